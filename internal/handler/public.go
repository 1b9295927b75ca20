package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
)

// PublicHandler serves unauthenticated reputation endpoints. Provider
// profiles and their evaluations are public so clients can compare providers
// before accepting a bid.
type PublicHandler struct {
    UserRepo       *repository.UserRepo
    EvaluationRepo *repository.EvaluationRepo
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(ur *repository.UserRepo, er *repository.EvaluationRepo) *PublicHandler {
    if ur == nil || er == nil {
        panic("nil repository passed to NewPublicHandler")
    }
    return &PublicHandler{UserRepo: ur, EvaluationRepo: er}
}

// GetProviderProfile handles GET /v1/providers/:id: the public profile
// summary with the stored rating aggregate.
func (h *PublicHandler) GetProviderProfile(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    summary, err := h.UserRepo.GetProviderSummary(c.Request().Context(), id)
    if err != nil {
        return respondRepoError(c, "load provider profile", err)
    }
    return c.JSON(http.StatusOK, summary)
}

// ListProviderEvaluations handles GET /v1/providers/:id/evaluations: all
// evaluations of a provider, newest first, alongside the aggregate they
// roll up into.
func (h *PublicHandler) ListProviderEvaluations(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx := c.Request().Context()
    summary, err := h.UserRepo.GetProviderSummary(ctx, id)
    if err != nil {
        return respondRepoError(c, "load provider for evaluations", err)
    }
    evals, err := h.EvaluationRepo.ListByProvider(ctx, id)
    if err != nil {
        return respondRepoError(c, "list provider evaluations", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "provider_id":    summary.ID,
        "review_count":   summary.ReviewCount,
        "average_rating": summary.AverageRating,
        "items":          evals,
    })
}
