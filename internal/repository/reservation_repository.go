package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
)

// ReservationRepo provides CRUD and lifecycle operations for reservations.
// Reservations are never deleted; every status write goes through one of the
// transition methods below, each of which re-checks the current status in
// its WHERE clause so a stale read can never produce an illegal transition.
// All timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, client_id, provider_id, category, title, description,
    address, city, postal_code, service_date, start_time, duration_minutes,
    price_cents, details, status, cancel_reason, created_at, updated_at`

// scanReservation scans one row selected with reservationColumns.
func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
    var res model.Reservation
    var providerID sql.NullInt64
    var details []byte
    var cancelReason sql.NullString
    err := row.Scan(
        &res.ID, &res.ClientID, &providerID, &res.Category, &res.Title, &res.Description,
        &res.Address, &res.City, &res.PostalCode, &res.ServiceDate, &res.StartTime,
        &res.DurationMinutes, &res.PriceCents, &details, &res.Status, &cancelReason,
        &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if providerID.Valid {
        pid := uint64(providerID.Int64)
        res.ProviderID = &pid
    }
    if len(details) > 0 {
        res.Details = json.RawMessage(details)
    }
    if cancelReason.Valid {
        cr := cancelReason.String
        res.CancelReason = &cr
    }
    if !model.ValidStatus(string(res.Status)) {
        return nil, fmt.Errorf("reservation %d has unknown status %q", res.ID, res.Status)
    }
    return &res, nil
}

// Create inserts a new reservation in OPEN state and populates the generated
// ID and timestamps on the provided record. Field validation happens in the
// handler; this method assumes a well-formed record.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    const q = `INSERT INTO reservations
        (client_id, category, title, description, address, city, postal_code,
         service_date, start_time, duration_minutes, price_cents, details, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var details any
    if len(res.Details) > 0 {
        details = []byte(res.Details)
    }
    res.Status = model.StatusOpen
    result, err := r.db.ExecContext(ctx, q,
        res.ClientID, res.Category, res.Title, res.Description, res.Address,
        res.City, res.PostalCode, res.ServiceDate, res.StartTime,
        res.DurationMinutes, res.PriceCents, details, res.Status,
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // Query back the row to populate created_at/updated_at defaults.
    sel := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    full, err := scanReservation(r.db.QueryRowContext(ctx, sel, res.ID))
    if err != nil {
        return err
    }
    *res = *full
    return nil
}

// GetByID returns the full reservation record or ErrNotFound. The caller is
// responsible for the capability check against the returned owner/provider.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, fmt.Errorf("%w: reservation not found", ErrNotFound)
    }
    return res, err
}

// GetForUpdateTx loads the ownership and status fields of a reservation with
// a row lock, serializing concurrent lifecycle mutations on the same row.
// Returns ErrNotFound when the reservation does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (clientID uint64, providerID *uint64, status model.ReservationStatus, err error) {
    const q = `SELECT client_id, provider_id, status FROM reservations WHERE id = ? FOR UPDATE`
    var pid sql.NullInt64
    err = tx.QueryRowContext(ctx, q, id).Scan(&clientID, &pid, &status)
    if err == sql.ErrNoRows {
        return 0, nil, "", fmt.Errorf("%w: reservation not found", ErrNotFound)
    }
    if err != nil {
        return 0, nil, "", err
    }
    if pid.Valid {
        p := uint64(pid.Int64)
        providerID = &p
    }
    return clientID, providerID, status, nil
}

// CancelTx transitions a reservation to CANCELLED, records the reason and
// clears the assigned provider reference. The observed status is re-checked
// in the WHERE clause; zero affected rows means another writer got there
// first and the cancellation conflicts.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, observed model.ReservationStatus, reason string) error {
    next, err := model.Transition(observed, model.EventCancel)
    if err != nil {
        return fmt.Errorf("%w: %s", ErrConflict, err.Error())
    }
    const q = `UPDATE reservations
               SET status = ?, cancel_reason = ?, provider_id = NULL
               WHERE id = ? AND status = ?`
    result, err := tx.ExecContext(ctx, q, next, reason, id, observed)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return fmt.Errorf("%w: reservation status changed concurrently", ErrConflict)
    }
    return nil
}

// AssignTx sets the provider and moves an OPEN reservation to ASSIGNED.
// This is the decisive write of the bid acceptance transaction: the
// status='OPEN' guard makes sure that of N racing accepts exactly one
// observes an affected row; the rest get ErrConflict.
func (r *ReservationRepo) AssignTx(ctx context.Context, tx *sql.Tx, id, providerID uint64) error {
    next, err := model.Transition(model.StatusOpen, model.EventAccept)
    if err != nil {
        return fmt.Errorf("%w: %s", ErrConflict, err.Error())
    }
    const q = `UPDATE reservations SET provider_id = ?, status = ? WHERE id = ? AND status = ?`
    result, err := tx.ExecContext(ctx, q, providerID, next, id, model.StatusOpen)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return fmt.Errorf("%w: reservation already assigned", ErrConflict)
    }
    return nil
}

// TransitionTx applies a lifecycle event (start, complete) to a reservation
// currently in the observed status. Illegal (status, event) pairs are
// rejected by the transition table before any write happens.
func (r *ReservationRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, observed model.ReservationStatus, event model.LifecycleEvent) error {
    next, err := model.Transition(observed, event)
    if err != nil {
        return fmt.Errorf("%w: %s", ErrConflict, err.Error())
    }
    const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`
    result, err := tx.ExecContext(ctx, q, next, id, observed)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return fmt.Errorf("%w: reservation status changed concurrently", ErrConflict)
    }
    return nil
}

// CounterpartSummary is the slice of the other party's profile joined onto
// reservation listings: the provider's contact for clients, the client's
// contact for providers.
type CounterpartSummary struct {
    ID       uint64 `json:"id"`
    FullName string `json:"full_name"`
    Phone    string `json:"phone"`
}

// ReservationDetail is a reservation row prepared for display, with the
// counterpart profile attached when one is relevant.
type ReservationDetail struct {
    ID              uint64              `json:"id"`
    Category        string              `json:"category"`
    Title           string              `json:"title"`
    Description     string              `json:"description"`
    Address         string              `json:"address"`
    City            string              `json:"city"`
    PostalCode      string              `json:"postal_code"`
    ServiceDate     string              `json:"service_date"`
    StartTime       string              `json:"start_time"`
    DurationMinutes uint32              `json:"duration_minutes"`
    PriceCents      uint32              `json:"price_cents"`
    Details         json.RawMessage     `json:"details,omitempty"`
    Status          string              `json:"status"`
    CancelReason    *string             `json:"cancel_reason,omitempty"`
    CreatedAt       string              `json:"created_at"`
    Client          *CounterpartSummary `json:"client,omitempty"`
    Provider        *CounterpartSummary `json:"provider,omitempty"`
}

// NewDetail converts a scanned reservation into its display form. Date and
// timestamp fields are rendered in UTC.
func NewDetail(res *model.Reservation) ReservationDetail {
    return ReservationDetail{
        ID:              res.ID,
        Category:        string(res.Category),
        Title:           res.Title,
        Description:     res.Description,
        Address:         res.Address,
        City:            res.City,
        PostalCode:      res.PostalCode,
        ServiceDate:     res.ServiceDate.UTC().Format("2006-01-02"),
        StartTime:       res.StartTime,
        DurationMinutes: res.DurationMinutes,
        PriceCents:      res.PriceCents,
        Details:         res.Details,
        Status:          string(res.Status),
        CancelReason:    res.CancelReason,
        CreatedAt:       res.CreatedAt.UTC().Format(time.RFC3339),
    }
}

const reservationColumnsJoined = `r.id, r.client_id, r.provider_id, r.category, r.title,
    r.description, r.address, r.city, r.postal_code, r.service_date, r.start_time,
    r.duration_minutes, r.price_cents, r.details, r.status, r.cancel_reason,
    r.created_at, r.updated_at`

// ListByClient returns all reservations owned by a client, newest first,
// with the assigned provider's contact joined when one is set.
func (r *ReservationRepo) ListByClient(ctx context.Context, clientID uint64) ([]ReservationDetail, error) {
    q := `SELECT ` + reservationColumnsJoined + `,
                 p.id, p.full_name, p.phone
          FROM reservations r
          LEFT JOIN users p ON p.id = r.provider_id
          WHERE r.client_id = ?
          ORDER BY r.created_at DESC`
    return r.listWithCounterpart(ctx, q, false, clientID)
}

// ListAssigned returns the reservations assigned to a provider (their
// missions), soonest service date first, with the client's contact joined.
func (r *ReservationRepo) ListAssigned(ctx context.Context, providerID uint64) ([]ReservationDetail, error) {
    q := `SELECT ` + reservationColumnsJoined + `,
                 c.id, c.full_name, c.phone
          FROM reservations r
          JOIN users c ON c.id = r.client_id
          WHERE r.provider_id = ?
          ORDER BY r.service_date ASC, r.start_time ASC`
    return r.listWithCounterpart(ctx, q, true, providerID)
}

// ListOpenForProvider returns the open pool for a provider: reservations
// still accepting bids, with a future service date, that this provider has
// not yet bid on. Newest first, with the client's name joined so providers
// can see who they would work for.
func (r *ReservationRepo) ListOpenForProvider(ctx context.Context, providerID uint64) ([]ReservationDetail, error) {
    q := `SELECT ` + reservationColumnsJoined + `,
                 c.id, c.full_name, c.phone
          FROM reservations r
          JOIN users c ON c.id = r.client_id
          WHERE r.status = 'OPEN'
            AND r.service_date >= CURDATE()
            AND NOT EXISTS (
                SELECT 1 FROM bids b
                WHERE b.reservation_id = r.id AND b.provider_id = ?
            )
          ORDER BY r.created_at DESC`
    return r.listWithCounterpart(ctx, q, true, providerID)
}

// listWithCounterpart runs a listing query whose trailing three columns are
// the counterpart summary. asClient controls which side of the detail the
// summary lands on.
func (r *ReservationRepo) listWithCounterpart(ctx context.Context, query string, asClient bool, arg uint64) ([]ReservationDetail, error) {
    rows, err := r.db.QueryContext(ctx, query, arg)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReservationDetail, 0)
    for rows.Next() {
        var res model.Reservation
        var providerID sql.NullInt64
        var rawDetails []byte
        var cancelReason sql.NullString
        var cpID sql.NullInt64
        var cpName, cpPhone sql.NullString
        if err := rows.Scan(
            &res.ID, &res.ClientID, &providerID, &res.Category, &res.Title, &res.Description,
            &res.Address, &res.City, &res.PostalCode, &res.ServiceDate, &res.StartTime,
            &res.DurationMinutes, &res.PriceCents, &rawDetails, &res.Status, &cancelReason,
            &res.CreatedAt, &res.UpdatedAt,
            &cpID, &cpName, &cpPhone,
        ); err != nil {
            return nil, err
        }
        if !model.ValidStatus(string(res.Status)) {
            return nil, fmt.Errorf("reservation %d has unknown status %q", res.ID, res.Status)
        }
        if len(rawDetails) > 0 {
            res.Details = json.RawMessage(rawDetails)
        }
        if cancelReason.Valid {
            cr := cancelReason.String
            res.CancelReason = &cr
        }
        d := NewDetail(&res)
        if cpID.Valid {
            summary := &CounterpartSummary{
                ID:       uint64(cpID.Int64),
                FullName: cpName.String,
                Phone:    cpPhone.String,
            }
            if asClient {
                d.Client = summary
            } else {
                d.Provider = summary
            }
        }
        details = append(details, d)
    }
    return details, rows.Err()
}
