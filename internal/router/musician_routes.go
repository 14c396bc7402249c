package router

import (
    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/handler"
    "github.com/stagelink/stagelink/internal/middleware"
    "github.com/stagelink/stagelink/internal/model"
)

// RegisterMusician registers musician-scoped endpoints under /v1.  All
// routes require a valid JWT and the musician role.  Musicians browse the
// feed, apply through their ensembles, manage ensembles and jam posts, and
// settle their side of the handshake.
func RegisterMusician(e *echo.Echo, g *handler.GigHandler, hs *handler.HandshakeHandler,
    hist *handler.HistoryHandler, en *handler.EnsembleHandler, j *handler.JamBoardHandler,
    m *handler.MusicianHandler, an *handler.AnalyticsHandler, jwtSecret string) {
    grp := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleMusician),
    )

    // Feed and the application intake.
    grp.GET("/feed", g.Feed)
    grp.POST("/gigs/:id/apply", g.Apply)
    grp.POST("/gigs/:id/dismiss", hs.Dismiss)

    // The musician's side of the handshake.
    grp.POST("/applications/:id/ensemble-complete", hs.CompleteEnsemble)
    grp.GET("/my-applications", hist.MusicianActive)
    grp.GET("/my-history", hist.MusicianHistory)

    // Ensemble management.
    grp.POST("/ensembles", en.Create)
    grp.GET("/my-ensembles", en.Mine)
    grp.POST("/ensembles/:id/invite", en.Invite)
    grp.POST("/ensembles/:id/invite/accept", en.AcceptInvite)
    grp.DELETE("/ensembles/:id/members/:userID", en.RemoveMember)

    // Musician discovery, used when inviting players.
    grp.GET("/musicians", m.Search)
    grp.GET("/musicians/:id", m.Get)

    // Jam board writes; reads are public.
    grp.POST("/jam-posts", j.Create)
    grp.DELETE("/jam-posts/:id", j.Delete)

    grp.GET("/analytics/musician", an.MusicianOverview)
}
