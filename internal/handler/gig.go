package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/repository"
    "github.com/stagelink/stagelink/internal/workflow"
)

// GigHandler serves gig posting, browsing and the application intake.
type GigHandler struct {
    Engine    *workflow.Engine
    Gigs      *repository.GigRepo
    Apps      *repository.ApplicationRepo
    Venues    *repository.VenueRepo
    Ensembles *repository.EnsembleRepo
}

func NewGigHandler(eng *workflow.Engine, g *repository.GigRepo, a *repository.ApplicationRepo,
    v *repository.VenueRepo, e *repository.EnsembleRepo) *GigHandler {
    return &GigHandler{Engine: eng, Gigs: g, Apps: a, Venues: v, Ensembles: e}
}

type createGigReq struct {
    Title              string  `json:"title"`
    DateTime           string  `json:"date_time"` // RFC 3339
    PaymentDescription *string `json:"payment_description"`
    Description        string  `json:"description"`
}

// Create posts a new gig for the caller's venue.
func (h *GigHandler) Create(c echo.Context) error {
    var req createGigReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    dt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.DateTime))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_time must be RFC 3339"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    venue, err := h.Venues.GetByUserID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    rec, err := h.Engine.CreateGig(ctx, workflow.CreateGigInput{
        VenueID:            venue.ID,
        Title:              strings.TrimSpace(req.Title),
        DateTime:           dt,
        PaymentDescription: req.PaymentDescription,
        Description:        strings.TrimSpace(req.Description),
    })
    if err != nil {
        return writeErr(c, err)
    }
    det, err := h.Gigs.GetDetail(ctx, rec.ID)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, det)
}

// ListOpen returns open gigs, optionally filtered by venue location.
func (h *GigHandler) ListOpen(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    gigs, err := h.Gigs.ListOpen(ctx, c.QueryParam("location"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"gigs": gigs})
}

// Feed returns the musician's gig feed: open gigs plus closed gigs whose
// outcome the musician has not dismissed yet.
func (h *GigHandler) Feed(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    gigs, err := h.Gigs.FeedForMusician(ctx, userID(c), c.QueryParam("location"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"gigs": gigs})
}

// Get returns one gig with its venue summary.
func (h *GigHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    det, err := h.Gigs.GetDetail(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, det)
}

// ListByVenue returns every gig a venue has posted.
func (h *GigHandler) ListByVenue(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    gigs, err := h.Gigs.ListByVenue(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"gigs": gigs})
}

// MyGigs returns the caller venue's gigs that are still in flight.
func (h *GigHandler) MyGigs(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    venue, err := h.Venues.GetByUserID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    gigs, err := h.Gigs.ActiveByVenue(ctx, venue.ID)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"gigs": gigs})
}

type applyReq struct {
    EnsembleID uint64 `json:"ensemble_id"`
}

// Apply files an application from one of the caller's ensembles.  Only the
// ensemble leader may apply on its behalf.
func (h *GigHandler) Apply(c echo.Context) error {
    var req applyReq
    if err := c.Bind(&req); err != nil || req.EnsembleID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ensemble_id required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    leaderID, err := h.Ensembles.Leader(ctx, req.EnsembleID)
    if err != nil {
        return writeErr(c, err)
    }
    if leaderID != userID(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the ensemble leader can apply"})
    }

    rec, err := h.Engine.Apply(ctx, pathID(c, "id"), req.EnsembleID)
    if errors.Is(err, repository.ErrConflict) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "Already applied to this gig"})
    }
    if err != nil {
        return writeErr(c, err)
    }
    det, err := h.Apps.GetDetail(ctx, rec.ID)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, det)
}

// Applications lists every application on one of the caller venue's gigs.
func (h *GigHandler) Applications(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    gig, err := h.Gigs.GetByID(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    venue, err := h.Venues.GetByUserID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    if venue.ID != gig.VenueID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your gig"})
    }
    apps, err := h.Apps.ListByGig(ctx, gig.ID)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}
