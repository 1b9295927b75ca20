package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
)

func newReservationMock(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewReservationRepo(db), mock
}

func TestAssignTx(t *testing.T) {
    repo, mock := newReservationMock(t)
    mock.ExpectBegin()
    mock.ExpectExec("UPDATE reservations SET provider_id").
        WithArgs(uint64(7), "ASSIGNED", uint64(10), "OPEN").
        WillReturnResult(sqlmock.NewResult(0, 1))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    require.NoError(t, repo.AssignTx(context.Background(), tx, 10, 7))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignTxLosesRace(t *testing.T) {
    repo, mock := newReservationMock(t)
    mock.ExpectBegin()
    // Another accept got there first: the OPEN guard matches no rows.
    mock.ExpectExec("UPDATE reservations SET provider_id").
        WithArgs(uint64(8), "ASSIGNED", uint64(10), "OPEN").
        WillReturnResult(sqlmock.NewResult(0, 0))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    err = repo.AssignTx(context.Background(), tx, 10, 8)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTx(t *testing.T) {
    repo, mock := newReservationMock(t)
    mock.ExpectBegin()
    mock.ExpectExec("UPDATE reservations").
        WithArgs("CANCELLED", "schedule conflict", uint64(10), "ASSIGNED").
        WillReturnResult(sqlmock.NewResult(0, 1))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    require.NoError(t, repo.CancelTx(context.Background(), tx, 10, model.StatusAssigned, "schedule conflict"))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTxRejectedByTransitionTable(t *testing.T) {
    repo, mock := newReservationMock(t)
    mock.ExpectBegin()
    // No exec expected: the transition table rejects before any write.

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    err = repo.CancelTx(context.Background(), tx, 10, model.StatusInProgress, "too late")
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionTxConcurrentChange(t *testing.T) {
    repo, mock := newReservationMock(t)
    mock.ExpectBegin()
    mock.ExpectExec("UPDATE reservations SET status").
        WithArgs("IN_PROGRESS", uint64(10), "ASSIGNED").
        WillReturnResult(sqlmock.NewResult(0, 0))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    err = repo.TransitionTx(context.Background(), tx, 10, model.StatusAssigned, model.EventStart)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByClientRejectsUnknownStatus(t *testing.T) {
    repo, mock := newReservationMock(t)
    now := time.Now().UTC()
    rows := sqlmock.NewRows([]string{
        "id", "client_id", "provider_id", "category", "title", "description",
        "address", "city", "postal_code", "service_date", "start_time",
        "duration_minutes", "price_cents", "details", "status", "cancel_reason",
        "created_at", "updated_at", "p_id", "p_full_name", "p_phone",
    }).AddRow(10, 1, nil, "HOUSE", "weekly clean", "",
        "12 rue Haute", "Lyon", "69001", now, "09:00",
        120, 6000, nil, "PAUSED", nil, now, now, nil, nil, nil)
    mock.ExpectQuery("SELECT (.+) FROM reservations r").
        WithArgs(uint64(1)).
        WillReturnRows(rows)

    _, err := repo.ListByClient(context.Background(), 1)
    require.Error(t, err)
    assert.Contains(t, err.Error(), "unknown status")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
    repo, mock := newReservationMock(t)
    mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id").
        WithArgs(uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err := repo.GetByID(context.Background(), 99)
    assert.ErrorIs(t, err, ErrNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}
