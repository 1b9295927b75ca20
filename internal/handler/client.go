package handler

import (
    "context"
    "encoding/json"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
    "github.com/iliyamo/cleanhome-marketplace/internal/queue"
    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
    publisher "github.com/iliyamo/cleanhome-marketplace/internal/service"
)

// ClientHandler groups the repositories used by client-facing endpoints:
// creating reservations, reviewing bids, running the acceptance transaction
// and submitting evaluations. JWT authentication and the CLIENT role are
// enforced by middleware before any of these run.
type ClientHandler struct {
    ReservationRepo *repository.ReservationRepo
    BidRepo         *repository.BidRepo
    EvaluationRepo  *repository.EvaluationRepo
    UserRepo        *repository.UserRepo
}

// NewClientHandler constructs a ClientHandler. All dependencies must be non-nil.
func NewClientHandler(rr *repository.ReservationRepo, br *repository.BidRepo, er *repository.EvaluationRepo, ur *repository.UserRepo) *ClientHandler {
    if rr == nil || br == nil || er == nil || ur == nil {
        panic("nil repository passed to NewClientHandler")
    }
    return &ClientHandler{ReservationRepo: rr, BidRepo: br, EvaluationRepo: er, UserRepo: ur}
}

type createReservationReq struct {
    Category        string          `json:"category"`
    Title           string          `json:"title"`
    Description     string          `json:"description"`
    Address         string          `json:"address"`
    City            string          `json:"city"`
    PostalCode      string          `json:"postal_code"`
    ServiceDate     string          `json:"service_date"` // YYYY-MM-DD
    StartTime       string          `json:"start_time"`   // HH:MM
    DurationMinutes uint32          `json:"duration_minutes"`
    PriceCents      uint32          `json:"price_cents"`
    Details         json.RawMessage `json:"details"`
}

// CreateReservation handles POST /v1/reservations. The new reservation
// starts OPEN with no provider; validation failures are reported field by
// field so the caller can fix them.
func (h *ClientHandler) CreateReservation(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createReservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Category = strings.ToUpper(strings.TrimSpace(req.Category))
    if !model.ValidCategory(req.Category) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
    }
    if strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.City) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "address and city are required"})
    }
    serviceDate, err := time.Parse("2006-01-02", req.ServiceDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_date must be YYYY-MM-DD"})
    }
    if _, err := time.Parse("15:04", req.StartTime); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be HH:MM"})
    }
    if req.PriceCents == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents is required"})
    }
    if len(req.Details) > 0 && !json.Valid(req.Details) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "details must be a JSON object"})
    }

    res := model.Reservation{
        ClientID:        actor.ID,
        Category:        model.ServiceCategory(req.Category),
        Title:           strings.TrimSpace(req.Title),
        Description:     strings.TrimSpace(req.Description),
        Address:         strings.TrimSpace(req.Address),
        City:            strings.TrimSpace(req.City),
        PostalCode:      strings.TrimSpace(req.PostalCode),
        ServiceDate:     serviceDate.UTC(),
        StartTime:       req.StartTime,
        DurationMinutes: req.DurationMinutes,
        PriceCents:      req.PriceCents,
        Details:         req.Details,
    }
    ctx := c.Request().Context()
    if err := h.ReservationRepo.Create(ctx, &res); err != nil {
        return respondRepoError(c, "create reservation", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "id":           res.ID,
        "status":       res.Status,
        "category":     res.Category,
        "service_date": res.ServiceDate.UTC().Format("2006-01-02"),
        "price_cents":  res.PriceCents,
        "created_at":   res.CreatedAt.UTC().Format(time.RFC3339),
    })
}

// ListMyReservations handles GET /v1/my-reservations: all reservations
// owned by the calling client, newest first.
func (h *ClientHandler) ListMyReservations(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.ReservationRepo.ListByClient(c.Request().Context(), actor.ID)
    if err != nil {
        return respondRepoError(c, "list client reservations", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// ListBids handles GET /v1/reservations/:id/bids. Only the owning client
// may see the bids on their reservation; each bid is joined with the
// provider's public profile summary.
func (h *ClientHandler) ListBids(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    resID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx := c.Request().Context()
    res, err := h.ReservationRepo.GetByID(ctx, resID)
    if err != nil {
        return respondRepoError(c, "load reservation for bids", err)
    }
    if res.ClientID != actor.ID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    bids, err := h.BidRepo.ListByReservation(ctx, resID)
    if err != nil {
        return respondRepoError(c, "list bids", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": bids})
}

// AcceptBid handles PUT /v1/bids/:id/accept, the acceptance transaction.
// Within a single unit of work it marks the target bid ACCEPTED, assigns
// the bid's provider to the reservation, moves the reservation to ASSIGNED
// and rejects every sibling bid. The reservation row is re-checked against
// OPEN at the decisive write, so of N racing accepts exactly one commits;
// the rest observe the non-open status and fail with a conflict.
func (h *ClientHandler) AcceptBid(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bidID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx := c.Request().Context()
    tx, err := h.BidRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    target, err := h.BidRepo.GetForAcceptTx(ctx, tx, bidID)
    if err != nil {
        return respondRepoError(c, "load bid for accept", err)
    }
    if target.ClientID != actor.ID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if target.ReservationStatus != model.StatusOpen {
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already assigned"})
    }

    if err := h.ReservationRepo.AssignTx(ctx, tx, target.ReservationID, target.ProviderID); err != nil {
        return respondRepoError(c, "assign reservation", err)
    }
    if err := h.BidRepo.AcceptTx(ctx, tx, target.BidID); err != nil {
        return respondRepoError(c, "accept bid", err)
    }
    if err := h.BidRepo.RejectSiblingsTx(ctx, tx, target.ReservationID, target.BidID); err != nil {
        return respondRepoError(c, "reject sibling bids", err)
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    // Publish the assignment event outside the transaction; a broker outage
    // must not fail the accepted bid.
    go h.publishAssigned(target)

    return c.JSON(http.StatusOK, echo.Map{
        "bid_id":         target.BidID,
        "reservation_id": target.ReservationID,
        "provider_id":    target.ProviderID,
        "status":         model.StatusAssigned,
    })
}

// publishAssigned builds and publishes the reservation.assigned event.
// Lookups run on a background context since the request is already done.
func (h *ClientHandler) publishAssigned(target *repository.AcceptTarget) {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    res, err := h.ReservationRepo.GetByID(ctx, target.ReservationID)
    if err != nil {
        log.Printf("assignment event: load reservation failed: %v", err)
        return
    }
    provider, err := h.UserRepo.GetProviderSummary(ctx, target.ProviderID)
    if err != nil {
        log.Printf("assignment event: load provider failed: %v", err)
        return
    }
    ev := queue.ReservationAssignedEvent{
        ReservationID: res.ID,
        ClientID:      res.ClientID,
        ProviderID:    provider.ID,
        ProviderName:  provider.FullName,
        Category:      string(res.Category),
        City:          res.City,
        ServiceDate:   res.ServiceDate.UTC().Format("2006-01-02"),
        StartTime:     res.StartTime,
        PriceCents:    res.PriceCents,
        AssignedAt:    time.Now().UTC().Format(time.RFC3339),
    }
    _ = publisher.PublishReservationAssigned(ctx, ev) // already logged inside
}

type submitEvaluationReq struct {
    ReservationID uint64 `json:"reservation_id"`
    Rating        uint8  `json:"rating"`
    Comment       string `json:"comment"`
}

// SubmitEvaluation handles POST /v1/evaluations. The reservation must be
// COMPLETED, owned by the caller, have an assigned provider and no prior
// evaluation. Insert and aggregate recomputation run in one transaction:
// the provider row is locked first so concurrent evaluations of the same
// provider serialize and the stored (count, average) reflects all of them.
func (h *ClientHandler) SubmitEvaluation(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req submitEvaluationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.ReservationID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
    }
    if req.Rating < 1 || req.Rating > 5 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
    }

    ctx := c.Request().Context()
    res, err := h.ReservationRepo.GetByID(ctx, req.ReservationID)
    if err != nil {
        return respondRepoError(c, "load reservation for evaluation", err)
    }
    if res.ClientID != actor.ID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if res.Status != model.StatusCompleted {
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not completed"})
    }
    if res.ProviderID == nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": "no provider assigned"})
    }
    if exists, err := h.EvaluationRepo.ExistsForReservation(ctx, req.ReservationID); err != nil {
        return respondRepoError(c, "check existing evaluation", err)
    } else if exists {
        return c.JSON(http.StatusConflict, echo.Map{"error": "already evaluated"})
    }

    tx, err := h.EvaluationRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.EvaluationRepo.LockProviderTx(ctx, tx, *res.ProviderID); err != nil {
        return respondRepoError(c, "lock provider", err)
    }
    ev := model.Evaluation{
        ReservationID: req.ReservationID,
        ClientID:      actor.ID,
        ProviderID:    *res.ProviderID,
        Rating:        req.Rating,
        Comment:       strings.TrimSpace(req.Comment),
    }
    if err := h.EvaluationRepo.CreateTx(ctx, tx, &ev); err != nil {
        return respondRepoError(c, "create evaluation", err)
    }
    agg, err := h.EvaluationRepo.RecomputeAggregateTx(ctx, tx, *res.ProviderID)
    if err != nil {
        return respondRepoError(c, "recompute rating aggregate", err)
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    return c.JSON(http.StatusCreated, echo.Map{
        "id":             ev.ID,
        "reservation_id": ev.ReservationID,
        "provider_id":    ev.ProviderID,
        "rating":         ev.Rating,
        "provider_aggregate": agg,
    })
}
