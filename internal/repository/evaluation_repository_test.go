package repository

import (
    "context"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
)

func newEvaluationMock(t *testing.T) (*EvaluationRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewEvaluationRepo(db), mock
}

func TestCreateEvaluationTxDuplicate(t *testing.T) {
    repo, mock := newEvaluationMock(t)
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO evaluations").
        WithArgs(uint64(10), uint64(1), uint64(7), uint8(5), "spotless work").
        WillReturnError(errors.New("Error 1062: Duplicate entry '10' for key 'uq_evaluation_reservation'"))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    ev := model.Evaluation{ReservationID: 10, ClientID: 1, ProviderID: 7, Rating: 5, Comment: "spotless work"}
    err = repo.CreateTx(context.Background(), tx, &ev)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeAggregateTx(t *testing.T) {
    repo, mock := newEvaluationMock(t)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT COUNT").
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(3, 4.3333))
    mock.ExpectExec("UPDATE users SET review_count").
        WithArgs(uint32(3), 4.3333, uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    agg, err := repo.RecomputeAggregateTx(context.Background(), tx, 7)
    require.NoError(t, err)
    assert.Equal(t, uint32(3), agg.ReviewCount)
    assert.InDelta(t, 4.3333, agg.AverageRating, 0.0001)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockProviderTxNotFound(t *testing.T) {
    repo, mock := newEvaluationMock(t)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT id FROM users").
        WithArgs(uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    err = repo.LockProviderTx(context.Background(), tx, 99)
    assert.ErrorIs(t, err, ErrNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsForReservation(t *testing.T) {
    repo, mock := newEvaluationMock(t)
    mock.ExpectQuery("SELECT 1 FROM evaluations").
        WithArgs(uint64(10)).
        WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

    exists, err := repo.ExistsForReservation(context.Background(), 10)
    require.NoError(t, err)
    assert.True(t, exists)

    mock.ExpectQuery("SELECT 1 FROM evaluations").
        WithArgs(uint64(11)).
        WillReturnRows(sqlmock.NewRows([]string{"1"}))

    exists, err = repo.ExistsForReservation(context.Background(), 11)
    require.NoError(t, err)
    assert.False(t, exists)
    assert.NoError(t, mock.ExpectationsWereMet())
}
