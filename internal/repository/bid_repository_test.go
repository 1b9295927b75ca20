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

func newMock(t *testing.T) (*BidRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewBidRepo(db), mock
}

func TestCreateTxDuplicateBid(t *testing.T) {
    repo, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO bids").
        WithArgs(uint64(10), uint64(7), uint32(5000), true, "available this week", "PENDING").
        WillReturnError(errors.New("Error 1062: Duplicate entry '10-7' for key 'uq_bid_reservation_provider'"))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    bid := model.Bid{ReservationID: 10, ProviderID: 7, PriceCents: 5000, Negotiable: true, Motivation: "available this week"}
    err = repo.CreateTx(context.Background(), tx, &bid)
    require.Error(t, err)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForAcceptTx(t *testing.T) {
    repo, mock := newMock(t)
    mock.ExpectBegin()
    rows := sqlmock.NewRows([]string{"id", "reservation_id", "provider_id", "status", "client_id", "status"}).
        AddRow(3, 10, 7, "PENDING", 1, "OPEN")
    mock.ExpectQuery("SELECT b.id, b.reservation_id, b.provider_id, b.status, r.client_id, r.status").
        WithArgs(uint64(3)).
        WillReturnRows(rows)

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    target, err := repo.GetForAcceptTx(context.Background(), tx, 3)
    require.NoError(t, err)
    assert.Equal(t, uint64(3), target.BidID)
    assert.Equal(t, uint64(10), target.ReservationID)
    assert.Equal(t, uint64(7), target.ProviderID)
    assert.Equal(t, model.BidPending, target.BidStatus)
    assert.Equal(t, uint64(1), target.ClientID)
    assert.Equal(t, model.StatusOpen, target.ReservationStatus)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForAcceptTxNotFound(t *testing.T) {
    repo, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectQuery("SELECT b.id, b.reservation_id").
        WithArgs(uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    _, err = repo.GetForAcceptTx(context.Background(), tx, 99)
    assert.ErrorIs(t, err, ErrNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptTxRequiresPending(t *testing.T) {
    repo, mock := newMock(t)
    mock.ExpectBegin()
    // The PENDING guard matched nothing: the bid was already decided.
    mock.ExpectExec("UPDATE bids SET status").
        WithArgs("ACCEPTED", uint64(3), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 0))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    err = repo.AcceptTx(context.Background(), tx, 3)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectSiblingsTx(t *testing.T) {
    repo, mock := newMock(t)
    mock.ExpectBegin()
    mock.ExpectExec("UPDATE bids SET status").
        WithArgs("REJECTED", uint64(10), uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 4))

    tx, err := repo.DB().BeginTx(context.Background(), nil)
    require.NoError(t, err)
    defer tx.Rollback()

    require.NoError(t, repo.RejectSiblingsTx(context.Background(), tx, 10, 3))
    assert.NoError(t, mock.ExpectationsWereMet())
}
