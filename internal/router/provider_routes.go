package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/handler"
    "github.com/iliyamo/cleanhome-marketplace/internal/middleware"
)

// RegisterProvider registers provider-scoped endpoints under /v1. All routes
// require a valid JWT and the PROVIDER role. Providers browse the open pool,
// bid, and walk their assigned missions through start and completion.
func RegisterProvider(e *echo.Echo, h *handler.ProviderHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("PROVIDER"),
    )
    g.GET("/reservations/available", h.ListOpenPool)
    g.POST("/bids", h.SubmitBid)

    // ---- Missions (assigned reservations) ----
    g.GET("/missions", h.ListMissions)
    g.PUT("/missions/:id/start", h.StartMission)
    g.PUT("/missions/:id/complete", h.CompleteMission)
}
