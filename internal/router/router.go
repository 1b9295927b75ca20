// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/handler"
    "github.com/iliyamo/cleanhome-marketplace/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication on the
// provided Echo instance. Currently it exposes only a health check, used by
// load balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface. Unauthenticated
// operations (register, login, refresh, logout) live under /v1/auth; the
// profile endpoint requires a valid access token with a known role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token: the presented token is revoked and
    // a new pair is issued.
    g.POST("/refresh", a.Refresh)
    // Issue a new access token without touching the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout takes a refresh_token in the body and revokes it; no JWT is
    // required so an expired session can still be terminated cleanly.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("CLIENT", "PROVIDER"))
    auth.GET("/me", a.Me)
}
