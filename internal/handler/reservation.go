package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
)

// defaultCancelReason is recorded when a cancellation arrives without one.
const defaultCancelReason = "no reason given"

// ReservationHandler serves the endpoints shared by both roles: reading a
// single reservation and cancelling one. Access rules live on model.Actor,
// not here.
type ReservationHandler struct {
    ReservationRepo *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(rr *repository.ReservationRepo) *ReservationHandler {
    if rr == nil {
        panic("nil repository passed to NewReservationHandler")
    }
    return &ReservationHandler{ReservationRepo: rr}
}

// Get handles GET /v1/reservations/:id. Visible to the owning client and the
// assigned provider only.
func (h *ReservationHandler) Get(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    res, err := h.ReservationRepo.GetByID(c.Request().Context(), id)
    if err != nil {
        return respondRepoError(c, "load reservation", err)
    }
    if !actor.CanAccessReservation(res.ClientID, res.ProviderID) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, repository.NewDetail(res))
}

type cancelReq struct {
    Reason string `json:"reason"`
}

// Cancel handles PUT /v1/reservations/:id/cancel. Either party may cancel
// while the lifecycle still permits it (OPEN or ASSIGNED); the transition
// table rejects anything later. Cancelling clears the provider reference so
// the released provider no longer sees the reservation among their missions.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var req cancelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    reason := strings.TrimSpace(req.Reason)
    if reason == "" {
        reason = defaultCancelReason
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

    clientID, providerID, status, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, id)
    if err != nil {
        return respondRepoError(c, "load reservation for cancel", err)
    }
    if !actor.CanCancelReservation(clientID, providerID) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.ReservationRepo.CancelTx(ctx, tx, id, status, reason); err != nil {
        return respondRepoError(c, "cancel reservation", err)
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": "CANCELLED", "cancel_reason": reason})
}
