package handler

import (
    "encoding/json"
    "net/http"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
)

func newReservationHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewReservationHandler(repository.NewReservationRepo(db)), mock
}

func TestCancelRecordsDefaultReason(t *testing.T) {
    h, mock := newReservationHandler(t)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT client_id, provider_id, status FROM reservations").
        WithArgs(uint64(10)).
        WillReturnRows(sqlmock.NewRows([]string{"client_id", "provider_id", "status"}).
            AddRow(1, nil, "OPEN"))
    mock.ExpectExec("UPDATE reservations").
        WithArgs("CANCELLED", "no reason given", uint64(10), "OPEN").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    c, rec := ctxFor(t, http.MethodPut, "/v1/reservations/10/cancel", `{}`, 1, "CLIENT")
    c.SetParamNames("id")
    c.SetParamValues("10")

    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "no reason given", body["cancel_reason"])
    assert.Equal(t, "CANCELLED", body["status"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelForbiddenForUnrelatedProvider(t *testing.T) {
    h, mock := newReservationHandler(t)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT client_id, provider_id, status FROM reservations").
        WithArgs(uint64(10)).
        WillReturnRows(sqlmock.NewRows([]string{"client_id", "provider_id", "status"}).
            AddRow(1, 7, "ASSIGNED"))
    mock.ExpectRollback()

    c, rec := ctxFor(t, http.MethodPut, "/v1/reservations/10/cancel", `{"reason":"nope"}`, 9, "PROVIDER")
    c.SetParamNames("id")
    c.SetParamValues("10")

    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}
