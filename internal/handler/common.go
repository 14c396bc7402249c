package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/repository"
    "github.com/stagelink/stagelink/internal/workflow"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the incoming request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// userID returns the authenticated user's ID set by the JWT middleware.
func userID(c echo.Context) uint64 {
    uid, _ := c.Get("user_id").(uint64)
    return uid
}

// userRole returns the authenticated user's role set by the JWT middleware.
func userRole(c echo.Context) string {
    role, _ := c.Get("role").(string)
    return role
}

// pathID parses a numeric path parameter; 0 means absent or malformed.
func pathID(c echo.Context, name string) uint64 {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil {
        return 0
    }
    return id
}

// writeErr translates workflow and repository errors into the JSON error
// shape used across the API.
func writeErr(c echo.Context, err error) error {
    var ve *workflow.ValidationError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrGigNotFound),
        errors.Is(err, repository.ErrApplicationNotFound),
        errors.Is(err, repository.ErrVenueNotFound),
        errors.Is(err, repository.ErrEnsembleNotFound),
        errors.Is(err, repository.ErrUserNotFound),
        errors.Is(err, repository.ErrMessageNotFound),
        errors.Is(err, repository.ErrJamPostNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    default:
        c.Logger().Errorf("internal error: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
