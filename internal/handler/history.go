package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/repository"
)

// HistoryHandler serves the settled-gig views.  History is a read model
// over rows the workflow has already finalized; when the store misbehaves
// the endpoints degrade to an empty result instead of failing the page.
type HistoryHandler struct {
    Gigs   *repository.GigRepo
    Apps   *repository.ApplicationRepo
    Venues *repository.VenueRepo
}

func NewHistoryHandler(g *repository.GigRepo, a *repository.ApplicationRepo, v *repository.VenueRepo) *HistoryHandler {
    return &HistoryHandler{Gigs: g, Apps: a, Venues: v}
}

// MusicianHistory returns the caller's settled applications across all
// their ensembles, with a verified count recomputed from the rows.
func (h *HistoryHandler) MusicianHistory(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    rows, verified, err := h.Apps.HistoryForMusician(ctx, userID(c))
    if err != nil {
        c.Logger().Errorf("musician history failed for user %d: %v", userID(c), err)
        rows, verified = []repository.MusicianHistoryRow{}, 0
    }
    return c.JSON(http.StatusOK, echo.Map{"history": rows, "verified_count": verified})
}

// MusicianActive returns the caller's accepted gigs still in flight.
func (h *HistoryHandler) MusicianActive(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    apps, err := h.Apps.ActiveForMusician(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"gigs": apps})
}

// VenueHistory returns the caller venue's completed gigs.
func (h *HistoryHandler) VenueHistory(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    venue, err := h.Venues.GetByUserID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    rows, verified, err := h.Gigs.HistoryByVenue(ctx, venue.ID)
    if err != nil {
        c.Logger().Errorf("venue history failed for venue %d: %v", venue.ID, err)
        rows, verified = []repository.VenueHistoryRow{}, 0
    }
    return c.JSON(http.StatusOK, echo.Map{"history": rows, "verified_count": verified})
}
