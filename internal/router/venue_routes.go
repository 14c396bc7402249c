package router

import (
    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/handler"
    "github.com/stagelink/stagelink/internal/middleware"
    "github.com/stagelink/stagelink/internal/model"
)

// RegisterVenue registers venue-scoped endpoints under /v1.  All routes
// require a valid JWT and the venue role.  Venue users manage their
// profile, post gigs, review applications and drive the venue side of the
// handshake.
func RegisterVenue(e *echo.Echo, v *handler.VenueHandler, g *handler.GigHandler,
    hs *handler.HandshakeHandler, hist *handler.HistoryHandler, an *handler.AnalyticsHandler,
    jwtSecret string) {
    grp := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleVenue),
    )

    // Venue profile.
    grp.POST("/venues", v.Create)
    grp.GET("/my-venue", v.Mine)
    grp.PUT("/venues/:id", v.Update)

    // Gig posting and application review.
    grp.POST("/gigs", g.Create)
    grp.GET("/my-gigs", g.MyGigs)
    grp.GET("/gigs/:id/applications", g.Applications)

    // The venue's side of the handshake.
    grp.POST("/applications/:id/accept", hs.Accept)
    grp.POST("/applications/:id/reject", hs.Reject)
    grp.POST("/gigs/:id/complete", hs.CompleteGig)

    grp.GET("/venue-history", hist.VenueHistory)
    grp.GET("/analytics/venue", an.VenueOverview)
}
