package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
)

// EvaluationRepo stores post-completion evaluations and keeps the provider
// rating aggregate consistent with them. Insert and recompute run in one
// transaction per provider: the provider row is locked first, so two
// evaluations landing concurrently for the same provider serialize and the
// final (review_count, average_rating) reflects both.
type EvaluationRepo struct {
    db *sql.DB
}

// NewEvaluationRepo returns a new EvaluationRepo bound to the given database.
func NewEvaluationRepo(db *sql.DB) *EvaluationRepo { return &EvaluationRepo{db: db} }

// DB exposes the underlying handle for handler-managed transactions.
func (r *EvaluationRepo) DB() *sql.DB { return r.db }

// CreateTx inserts an evaluation within an existing transaction. The unique
// key on reservation_id turns a second evaluation of the same reservation
// into ErrConflict. The generated ID is populated on the record.
func (r *EvaluationRepo) CreateTx(ctx context.Context, tx *sql.Tx, ev *model.Evaluation) error {
    const q = `INSERT INTO evaluations (reservation_id, client_id, provider_id, rating, comment)
               VALUES (?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, ev.ReservationID, ev.ClientID, ev.ProviderID, ev.Rating, ev.Comment)
    if err != nil {
        if strings.Contains(err.Error(), "1062") {
            return fmt.Errorf("%w: already evaluated", ErrConflict)
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    ev.ID = uint64(id)
    return nil
}

// LockProviderTx takes a row lock on the provider so that concurrent
// evaluation transactions for the same provider queue up behind each other.
// Must run before CreateTx and RecomputeAggregateTx in the same transaction.
func (r *EvaluationRepo) LockProviderTx(ctx context.Context, tx *sql.Tx, providerID uint64) error {
    const q = `SELECT id FROM users WHERE id = ? FOR UPDATE`
    var id uint64
    err := tx.QueryRowContext(ctx, q, providerID).Scan(&id)
    if err == sql.ErrNoRows {
        return fmt.Errorf("%w: provider not found", ErrNotFound)
    }
    return err
}

// RecomputeAggregateTx re-derives the provider's (review_count,
// average_rating) from the full evaluation set and persists it. The count
// query is a locking read: under REPEATABLE READ a plain select would use
// the transaction's snapshot and could miss rows committed after it began,
// losing an update.
func (r *EvaluationRepo) RecomputeAggregateTx(ctx context.Context, tx *sql.Tx, providerID uint64) (model.RatingAggregate, error) {
    const countQ = `SELECT COUNT(*), COALESCE(AVG(rating), 0)
                    FROM evaluations
                    WHERE provider_id = ?
                    FOR UPDATE`
    var agg model.RatingAggregate
    if err := tx.QueryRowContext(ctx, countQ, providerID).Scan(&agg.ReviewCount, &agg.AverageRating); err != nil {
        return model.RatingAggregate{}, err
    }
    const updateQ = `UPDATE users SET review_count = ?, average_rating = ? WHERE id = ?`
    if _, err := tx.ExecContext(ctx, updateQ, agg.ReviewCount, agg.AverageRating, providerID); err != nil {
        return model.RatingAggregate{}, err
    }
    return agg, nil
}

// ExistsForReservation reports whether the reservation has already been
// evaluated. A pre-check for a friendlier error; the unique key is the
// actual guard.
func (r *EvaluationRepo) ExistsForReservation(ctx context.Context, reservationID uint64) (bool, error) {
    const q = `SELECT 1 FROM evaluations WHERE reservation_id = ? LIMIT 1`
    var one int
    err := r.db.QueryRowContext(ctx, q, reservationID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// EvaluationDetail is an evaluation prepared for public display, joined
// with the evaluating client's name and the service it concerned.
type EvaluationDetail struct {
    ID          uint64 `json:"id"`
    Rating      uint8  `json:"rating"`
    Comment     string `json:"comment"`
    CreatedAt   string `json:"created_at"`
    ClientName  string `json:"client_name"`
    Category    string `json:"category"`
    ServiceDate string `json:"service_date"`
}

// ListByProvider returns a provider's evaluations, newest first. Reputation
// data is public, so there is no caller restriction here.
func (r *EvaluationRepo) ListByProvider(ctx context.Context, providerID uint64) ([]EvaluationDetail, error) {
    const q = `SELECT e.id, e.rating, e.comment, e.created_at,
                      c.full_name, r.category, r.service_date
               FROM evaluations e
               JOIN users c ON c.id = e.client_id
               JOIN reservations r ON r.id = e.reservation_id
               WHERE e.provider_id = ?
               ORDER BY e.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, providerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    evals := make([]EvaluationDetail, 0)
    for rows.Next() {
        var e EvaluationDetail
        var createdAt, serviceDate time.Time
        if err := rows.Scan(&e.ID, &e.Rating, &e.Comment, &createdAt, &e.ClientName, &e.Category, &serviceDate); err != nil {
            return nil, err
        }
        e.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        e.ServiceDate = serviceDate.UTC().Format("2006-01-02")
        evals = append(evals, e)
    }
    return evals, rows.Err()
}
