package handler

import (
    "errors"
    "log"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
    "github.com/iliyamo/cleanhome-marketplace/internal/repository"
)

// getActor rebuilds the authenticated caller from the context values stored
// by the JWT middleware. The sub claim arrives as a float64 (JSON number)
// or string depending on how the token was minted, so both are accepted.
func getActor(c echo.Context) (model.Actor, error) {
    var actor model.Actor
    switch v := c.Get("user_id").(type) {
    case float64:
        actor.ID = uint64(v)
    case string:
        id, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return model.Actor{}, errors.New("invalid user id claim")
        }
        actor.ID = id
    default:
        return model.Actor{}, errors.New("missing user id claim")
    }
    role, ok := c.Get("role").(string)
    if !ok {
        return model.Actor{}, errors.New("missing role claim")
    }
    switch model.Role(strings.ToUpper(role)) {
    case model.RoleClient:
        actor.Role = model.RoleClient
    case model.RoleProvider:
        actor.Role = model.RoleProvider
    default:
        return model.Actor{}, errors.New("unknown role claim")
    }
    return actor, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// respondRepoError maps the repository error taxonomy onto HTTP responses.
// Validation, authorization, not-found and conflict errors carry their
// reason to the caller; anything else is a store failure, logged with
// context and surfaced as a generic 500 so internals do not leak.
func respondRepoError(c echo.Context, op string, err error) error {
    switch {
    case errors.Is(err, repository.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": reason(err)})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": reason(err)})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": reason(err)})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": reason(err)})
    }
    log.Printf("%s: %v", op, err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// reason strips the sentinel prefix from a wrapped taxonomy error, leaving
// the human-readable part ("conflict: duplicate bid" -> "duplicate bid").
func reason(err error) string {
    msg := err.Error()
    if i := strings.Index(msg, ": "); i >= 0 {
        return msg[i+2:]
    }
    return msg
}
