package router

import (
    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/handler"
    "github.com/stagelink/stagelink/internal/middleware"
    "github.com/stagelink/stagelink/internal/model"
)

// RegisterAdmin registers the oversight endpoints under /v1/admin.  All
// routes require a valid JWT and the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    grp := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )

    grp.GET("/users", a.ListUsers)
    grp.GET("/venues", a.ListVenues)
    grp.GET("/ensembles", a.ListEnsembles)
    grp.GET("/gigs", a.ListGigs)
    grp.POST("/users/:id/toggle-active", a.ToggleActive)
    grp.POST("/users/:id/toggle-pro", a.TogglePro)
    grp.POST("/gigs/:id/toggle-open", a.ToggleGigOpen)
    grp.GET("/stats", a.PlatformStats)
}
