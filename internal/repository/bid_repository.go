package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
)

// BidRepo provides operations on provider bids. Bids are created by
// providers while a reservation is open and mutated only by the acceptance
// transaction, which marks one bid ACCEPTED and every sibling REJECTED.
// The (reservation_id, provider_id) unique key enforces at most one bid per
// provider per reservation at the storage level.
type BidRepo struct {
    db *sql.DB
}

// NewBidRepo returns a new BidRepo bound to the given database.
func NewBidRepo(db *sql.DB) *BidRepo { return &BidRepo{db: db} }

// DB exposes the underlying handle for handler-managed transactions.
func (r *BidRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a PENDING bid within an existing transaction and
// populates the generated ID and creation time. A duplicate-key failure on
// (reservation_id, provider_id) is translated into ErrConflict so handlers
// report "duplicate bid" instead of a raw driver error.
func (r *BidRepo) CreateTx(ctx context.Context, tx *sql.Tx, bid *model.Bid) error {
    const q = `INSERT INTO bids (reservation_id, provider_id, price_cents, negotiable, motivation, status)
               VALUES (?, ?, ?, ?, ?, ?)`
    bid.Status = model.BidPending
    result, err := tx.ExecContext(ctx, q,
        bid.ReservationID, bid.ProviderID, bid.PriceCents, bid.Negotiable, bid.Motivation, bid.Status)
    if err != nil {
        if strings.Contains(err.Error(), "1062") {
            return fmt.Errorf("%w: duplicate bid", ErrConflict)
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    bid.ID = uint64(id)
    const sel = `SELECT created_at FROM bids WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, bid.ID).Scan(&bid.CreatedAt)
}

// AcceptTarget carries everything the acceptance transaction needs to know
// about a bid and its parent reservation after the locking read.
type AcceptTarget struct {
    BidID             uint64
    ReservationID     uint64
    ProviderID        uint64
    BidStatus         model.BidStatus
    ClientID          uint64
    ReservationStatus model.ReservationStatus
}

// GetForAcceptTx loads a bid joined with its parent reservation under a row
// lock on both, serializing racing accept calls on the same reservation.
// Returns ErrNotFound when the bid does not exist.
func (r *BidRepo) GetForAcceptTx(ctx context.Context, tx *sql.Tx, bidID uint64) (*AcceptTarget, error) {
    const q = `SELECT b.id, b.reservation_id, b.provider_id, b.status, r.client_id, r.status
               FROM bids b
               JOIN reservations r ON r.id = b.reservation_id
               WHERE b.id = ?
               FOR UPDATE`
    var t AcceptTarget
    err := tx.QueryRowContext(ctx, q, bidID).Scan(
        &t.BidID, &t.ReservationID, &t.ProviderID, &t.BidStatus, &t.ClientID, &t.ReservationStatus)
    if err == sql.ErrNoRows {
        return nil, fmt.Errorf("%w: bid not found", ErrNotFound)
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// AcceptTx marks the target bid ACCEPTED. The PENDING guard keeps a replay
// of the transaction from re-accepting a finished bid.
func (r *BidRepo) AcceptTx(ctx context.Context, tx *sql.Tx, bidID uint64) error {
    const q = `UPDATE bids SET status = ? WHERE id = ? AND status = ?`
    result, err := tx.ExecContext(ctx, q, model.BidAccepted, bidID, model.BidPending)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return fmt.Errorf("%w: bid is not pending", ErrConflict)
    }
    return nil
}

// RejectSiblingsTx marks every other bid on the reservation REJECTED so the
// "at most one accepted bid" invariant holds the moment the transaction
// commits.
func (r *BidRepo) RejectSiblingsTx(ctx context.Context, tx *sql.Tx, reservationID, acceptedBidID uint64) error {
    const q = `UPDATE bids SET status = ? WHERE reservation_id = ? AND id <> ?`
    _, err := tx.ExecContext(ctx, q, model.BidRejected, reservationID, acceptedBidID)
    return err
}

// BidWithProvider is a bid row joined with the submitting provider's public
// profile summary, as shown to the owning client.
type BidWithProvider struct {
    ID         uint64                `json:"id"`
    PriceCents uint32                `json:"price_cents"`
    Negotiable bool                  `json:"negotiable"`
    Motivation string                `json:"motivation"`
    Status     string                `json:"status"`
    CreatedAt  string                `json:"created_at"`
    Provider   model.ProviderSummary `json:"provider"`
}

// ListByReservation returns all bids on a reservation, newest first, each
// joined with the provider's public summary. Ownership of the reservation
// is checked by the caller before this runs.
func (r *BidRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]BidWithProvider, error) {
    const q = `SELECT b.id, b.price_cents, b.negotiable, b.motivation, b.status, b.created_at,
                      p.id, p.full_name, p.phone, p.city, p.specialties, p.review_count, p.average_rating
               FROM bids b
               JOIN users p ON p.id = b.provider_id
               WHERE b.reservation_id = ?
               ORDER BY b.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    bids := make([]BidWithProvider, 0)
    for rows.Next() {
        var b BidWithProvider
        var createdAt time.Time
        var specialties sql.NullString
        if err := rows.Scan(
            &b.ID, &b.PriceCents, &b.Negotiable, &b.Motivation, &b.Status, &createdAt,
            &b.Provider.ID, &b.Provider.FullName, &b.Provider.Phone, &b.Provider.City,
            &specialties, &b.Provider.ReviewCount, &b.Provider.AverageRating,
        ); err != nil {
            return nil, err
        }
        b.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        if specialties.Valid {
            s := specialties.String
            b.Provider.Specialties = &s
        }
        bids = append(bids, b)
    }
    return bids, rows.Err()
}

// HasBid reports whether the provider already holds a bid on the
// reservation. Used for a friendlier error before the unique key would
// reject the insert anyway.
func (r *BidRepo) HasBid(ctx context.Context, reservationID, providerID uint64) (bool, error) {
    const q = `SELECT 1 FROM bids WHERE reservation_id = ? AND provider_id = ? LIMIT 1`
    var one int
    err := r.db.QueryRowContext(ctx, q, reservationID, providerID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}
