package router // route registration for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/handler"
    "github.com/stagelink/stagelink/internal/middleware"
    "github.com/stagelink/stagelink/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring probe this endpoint.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints and the profile
// routes shared by every authenticated role.  Unauthenticated operations
// live under /v1/auth, protected endpoints under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    auth := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleMusician, model.RoleVenue, model.RoleAdmin),
    )
    auth.GET("/me", a.Me)
    auth.PUT("/me", a.UpdateMe)
}

// RegisterPublic registers the unauthenticated browse endpoints.  These are
// the read-heavy listing routes, so the Redis response cache wraps them.
func RegisterPublic(e *echo.Echo, g *handler.GigHandler, v *handler.VenueHandler,
    en *handler.EnsembleHandler, j *handler.JamBoardHandler, cache echo.MiddlewareFunc) {
    pub := e.Group("/v1", cache)
    pub.GET("/gigs", g.ListOpen)
    pub.GET("/gigs/:id", g.Get)
    pub.GET("/venues", v.List)
    pub.GET("/venues/:id", v.Get)
    pub.GET("/venues/:id/gigs", g.ListByVenue)
    pub.GET("/ensembles", en.List)
    pub.GET("/ensembles/:id", en.Get)
    pub.GET("/jam-posts", j.List)
    pub.GET("/jam-posts/:id", j.Get)
}

// RegisterShared registers authenticated endpoints open to musicians and
// venue users alike: chat, and the generic confirmation transition whose
// party check lives in the handler.
func RegisterShared(e *echo.Echo, ch *handler.ChatHandler, hs *handler.HandshakeHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleMusician, model.RoleVenue),
    )
    g.GET("/conversations", ch.Conversations)
    g.GET("/messages/:userID", ch.Thread)
    g.POST("/messages", ch.Send)
    g.POST("/messages/:id/read", ch.MarkRead)

    g.POST("/applications/:id/confirm", hs.Confirm)
}
