package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/handler"
    "github.com/iliyamo/cleanhome-marketplace/internal/middleware"
)

// RegisterClient registers client-scoped endpoints under /v1. All routes
// require a valid JWT and the CLIENT role. Clients create reservations,
// review the bids on them, accept one, and evaluate completed work.
func RegisterClient(e *echo.Echo, h *handler.ClientHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CLIENT"),
    )
    g.POST("/reservations", h.CreateReservation)
    g.GET("/my-reservations", h.ListMyReservations)
    g.GET("/reservations/:id/bids", h.ListBids)

    // Accepting a bid is the decisive marketplace write: it assigns the
    // provider, moves the reservation to ASSIGNED and rejects every sibling
    // bid in one transaction.
    g.PUT("/bids/:id/accept", h.AcceptBid)

    g.POST("/evaluations", h.SubmitEvaluation)
}
