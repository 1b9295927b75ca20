package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
)

// ProviderHandler serves the provider side of the marketplace: browsing the
// open pool, bidding, and moving assigned missions through their lifecycle.
// The PROVIDER role is enforced by middleware before any of these run.
type ProviderHandler struct {
    ReservationRepo *repository.ReservationRepo
    BidRepo         *repository.BidRepo
}

// NewProviderHandler constructs a ProviderHandler.
func NewProviderHandler(rr *repository.ReservationRepo, br *repository.BidRepo) *ProviderHandler {
    if rr == nil || br == nil {
        panic("nil repository passed to NewProviderHandler")
    }
    return &ProviderHandler{ReservationRepo: rr, BidRepo: br}
}

// ListOpenPool handles GET /v1/reservations/available: open reservations
// with a future service date that the calling provider has not bid on yet.
func (h *ProviderHandler) ListOpenPool(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.ReservationRepo.ListOpenForProvider(c.Request().Context(), actor.ID)
    if err != nil {
        return respondRepoError(c, "list open pool", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// ListMissions handles GET /v1/missions: reservations assigned to the
// calling provider, soonest first.
func (h *ProviderHandler) ListMissions(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.ReservationRepo.ListAssigned(c.Request().Context(), actor.ID)
    if err != nil {
        return respondRepoError(c, "list missions", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}

type submitBidReq struct {
    ReservationID uint64 `json:"reservation_id"`
    PriceCents    uint32 `json:"price_cents"`
    Negotiable    bool   `json:"negotiable"`
    Motivation    string `json:"motivation"`
}

// SubmitBid handles POST /v1/bids. The reservation is locked and re-checked
// inside the transaction so a bid can never land on a reservation that
// stopped being OPEN after the provider looked at the pool. One bid per
// provider per reservation; the unique key backs up the pre-check.
func (h *ProviderHandler) SubmitBid(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req submitBidReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.ReservationID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
    }
    if req.PriceCents == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents is required"})
    }

    ctx := c.Request().Context()
    if exists, err := h.BidRepo.HasBid(ctx, req.ReservationID, actor.ID); err != nil {
        return respondRepoError(c, "check existing bid", err)
    } else if exists {
        return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate bid"})
    }

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

    clientID, _, status, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, req.ReservationID)
    if err != nil {
        return respondRepoError(c, "load reservation for bid", err)
    }
    if clientID == actor.ID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot bid on your own reservation"})
    }
    if status != model.StatusOpen {
        return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not open for bids"})
    }

    bid := model.Bid{
        ReservationID: req.ReservationID,
        ProviderID:    actor.ID,
        PriceCents:    req.PriceCents,
        Negotiable:    req.Negotiable,
        Motivation:    strings.TrimSpace(req.Motivation),
    }
    if err := h.BidRepo.CreateTx(ctx, tx, &bid); err != nil {
        return respondRepoError(c, "create bid", err)
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    return c.JSON(http.StatusCreated, echo.Map{
        "id":             bid.ID,
        "reservation_id": bid.ReservationID,
        "price_cents":    bid.PriceCents,
        "negotiable":     bid.Negotiable,
        "status":         bid.Status,
    })
}

// StartMission handles PUT /v1/missions/:id/start: the assigned provider
// moves their ASSIGNED reservation to IN_PROGRESS.
func (h *ProviderHandler) StartMission(c echo.Context) error {
    return h.applyLifecycleEvent(c, model.EventStart)
}

// CompleteMission handles PUT /v1/missions/:id/complete: the assigned
// provider moves their IN_PROGRESS reservation to COMPLETED, after which the
// client may evaluate.
func (h *ProviderHandler) CompleteMission(c echo.Context) error {
    return h.applyLifecycleEvent(c, model.EventComplete)
}

// applyLifecycleEvent is the shared start/complete path: lock the row, check
// the caller is the assigned provider, and let the transition table decide
// whether the event is legal from the observed status.
func (h *ProviderHandler) applyLifecycleEvent(c echo.Context, event model.LifecycleEvent) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx := c.Request().Context()
    tx, err := h.ReservationRepo.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    _, providerID, status, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return respondRepoError(c, "load mission", err)
    }
    if providerID == nil || *providerID != actor.ID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.ReservationRepo.TransitionTx(ctx, tx, id, status, event); err != nil {
        return respondRepoError(c, "apply lifecycle event", err)
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    next, _ := model.Transition(status, event)
    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": next})
}
