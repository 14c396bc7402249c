package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/repository"
)

// AnalyticsHandler serves the dashboard overview endpoints.  Pro accounts
// (and admins) get the full overview; free accounts get a preview.
type AnalyticsHandler struct {
    Users  *repository.UserRepo
    Venues *repository.VenueRepo
    Stats  *repository.StatsRepo
}

func NewAnalyticsHandler(u *repository.UserRepo, v *repository.VenueRepo, s *repository.StatsRepo) *AnalyticsHandler {
    return &AnalyticsHandler{Users: u, Venues: v, Stats: s}
}

// hasPro reports whether the caller gets the full dashboard.  Admins
// always do; free accounts fall back to the preview response.
func (h *AnalyticsHandler) hasPro(c echo.Context) (bool, error) {
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByID(ctx, userID(c))
    if err != nil {
        return false, err
    }
    return u.IsPro || u.Role == model.RoleAdmin, nil
}

// MusicianOverview returns the caller's verified-work summary.  Free
// accounts only see the verified-gig count plus an upgrade hint.
func (h *AnalyticsHandler) MusicianOverview(c echo.Context) error {
    pro, err := h.hasPro(c)
    if err != nil {
        return writeErr(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    o, err := h.Stats.Musician(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    if !pro {
        return c.JSON(http.StatusOK, echo.Map{
            "preview": echo.Map{"verified_gigs": o.VerifiedGigs},
            "message": "upgrade to pro for the full overview",
        })
    }
    return c.JSON(http.StatusOK, o)
}

// VenueOverview returns the caller venue's gig activity summary.  Free
// accounts only see the verified-gig count plus an upgrade hint.
func (h *AnalyticsHandler) VenueOverview(c echo.Context) error {
    pro, err := h.hasPro(c)
    if err != nil {
        return writeErr(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    venue, err := h.Venues.GetByUserID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    o, err := h.Stats.Venue(ctx, venue.ID)
    if err != nil {
        return writeErr(c, err)
    }
    if !pro {
        return c.JSON(http.StatusOK, echo.Map{
            "preview": echo.Map{"verified_gigs": o.VerifiedGigs},
            "message": "upgrade to pro for the full overview",
        })
    }
    return c.JSON(http.StatusOK, o)
}
