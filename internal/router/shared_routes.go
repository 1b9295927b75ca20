package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/handler"
    "github.com/iliyamo/cleanhome-marketplace/internal/middleware"
)

// RegisterReservation registers the endpoints shared by both roles: reading
// a single reservation and cancelling one. Both roles pass the middleware;
// the handler decides per reservation whether the caller is the owning
// client or the assigned provider.
func RegisterReservation(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CLIENT", "PROVIDER"),
    )
    g.GET("/reservations/:id", h.Get)
    g.PUT("/reservations/:id/cancel", h.Cancel)
}

// RegisterPublic registers unauthenticated reputation endpoints. Provider
// profiles and evaluations are browsable by guests so clients can compare
// providers before signing up or accepting a bid.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
    e.GET("/v1/providers/:id", p.GetProviderProfile)
    e.GET("/v1/providers/:id/evaluations", p.ListProviderEvaluations)
}
