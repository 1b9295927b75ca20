package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
)

func newClientHandler(t *testing.T) (*ClientHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewClientHandler(
        repository.NewReservationRepo(db),
        repository.NewBidRepo(db),
        repository.NewEvaluationRepo(db),
        repository.NewUserRepo(db),
    ), mock
}

func ctxFor(t *testing.T, method, path, body string, userID float64, role string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", userID)
    c.Set("role", role)
    return c, rec
}

func TestAcceptBidForbiddenForOtherClient(t *testing.T) {
    h, mock := newClientHandler(t)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT b.id, b.reservation_id").
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows(
            []string{"id", "reservation_id", "provider_id", "status", "client_id", "status"}).
            AddRow(3, 10, 7, "PENDING", 1, "OPEN"))
    mock.ExpectRollback()

    // Caller 2 does not own reservation 10.
    c, rec := ctxFor(t, http.MethodPut, "/v1/bids/3/accept", "", 2, "CLIENT")
    c.SetParamNames("id")
    c.SetParamValues("3")

    require.NoError(t, h.AcceptBid(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptBidConflictWhenNotOpen(t *testing.T) {
    h, mock := newClientHandler(t)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT b.id, b.reservation_id").
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows(
            []string{"id", "reservation_id", "provider_id", "status", "client_id", "status"}).
            AddRow(3, 10, 7, "PENDING", 1, "ASSIGNED"))
    mock.ExpectRollback()

    c, rec := ctxFor(t, http.MethodPut, "/v1/bids/3/accept", "", 1, "CLIENT")
    c.SetParamNames("id")
    c.SetParamValues("3")

    require.NoError(t, h.AcceptBid(c))
    assert.Equal(t, http.StatusConflict, rec.Code)

    var body map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "reservation already assigned", body["error"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

// reservationRow builds a full reservations row for the GetByID query.
// provider may be nil for unassigned or cancelled reservations.
func reservationRow(id, clientID uint64, provider any, status string) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "client_id", "provider_id", "category", "title", "description",
        "address", "city", "postal_code", "service_date", "start_time",
        "duration_minutes", "price_cents", "details", "status", "cancel_reason",
        "created_at", "updated_at",
    }).AddRow(id, clientID, provider, "HOUSE", "weekly clean", "",
        "12 rue Haute", "Lyon", "69001", now, "09:00",
        120, 6000, nil, status, nil, now, now)
}

func TestSubmitEvaluationConflictWhenNotCompleted(t *testing.T) {
    for _, status := range []string{"OPEN", "ASSIGNED", "IN_PROGRESS"} {
        h, mock := newClientHandler(t)
        mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
            WithArgs(uint64(10)).
            WillReturnRows(reservationRow(10, 1, 7, status))

        c, rec := ctxFor(t, http.MethodPost, "/v1/evaluations",
            `{"reservation_id":10,"rating":5,"comment":"great"}`, 1, "CLIENT")

        require.NoError(t, h.SubmitEvaluation(c))
        assert.Equal(t, http.StatusConflict, rec.Code, status)

        var body map[string]string
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
        assert.Equal(t, "reservation is not completed", body["error"], status)
        assert.NoError(t, mock.ExpectationsWereMet())
    }
}

func TestSubmitEvaluationConflictWithoutProvider(t *testing.T) {
    h, mock := newClientHandler(t)
    mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
        WithArgs(uint64(10)).
        WillReturnRows(reservationRow(10, 1, nil, "COMPLETED"))

    c, rec := ctxFor(t, http.MethodPost, "/v1/evaluations",
        `{"reservation_id":10,"rating":4}`, 1, "CLIENT")

    require.NoError(t, h.SubmitEvaluation(c))
    assert.Equal(t, http.StatusConflict, rec.Code)

    var body map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "no provider assigned", body["error"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitEvaluationRejectsBadRating(t *testing.T) {
    h, _ := newClientHandler(t)
    c, rec := ctxFor(t, http.MethodPost, "/v1/evaluations",
        `{"reservation_id":10,"rating":6}`, 1, "CLIENT")

    require.NoError(t, h.SubmitEvaluation(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReservationRejectsUnknownCategory(t *testing.T) {
    h, _ := newClientHandler(t)
    c, rec := ctxFor(t, http.MethodPost, "/v1/reservations",
        `{"category":"POOL","address":"1 rue Haute","city":"Lyon","service_date":"2026-10-01","start_time":"09:00","price_cents":4000}`,
        1, "CLIENT")

    require.NoError(t, h.CreateReservation(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
