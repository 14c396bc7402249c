package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/repository"
    "github.com/stagelink/stagelink/internal/workflow"
)

// HandshakeHandler exposes the gig workflow transitions: acceptance,
// rejection, completion, the two-party confirmation and notification
// dismissal.  The handler only authorizes; the Engine owns the semantics.
type HandshakeHandler struct {
    Engine    *workflow.Engine
    Gigs      *repository.GigRepo
    Apps      *repository.ApplicationRepo
    Venues    *repository.VenueRepo
    Ensembles *repository.EnsembleRepo
}

func NewHandshakeHandler(eng *workflow.Engine, g *repository.GigRepo, a *repository.ApplicationRepo,
    v *repository.VenueRepo, e *repository.EnsembleRepo) *HandshakeHandler {
    return &HandshakeHandler{Engine: eng, Gigs: g, Apps: a, Venues: v, Ensembles: e}
}

// callerOwnsGig verifies the caller's venue posted the gig.
func (h *HandshakeHandler) callerOwnsGig(ctx context.Context, c echo.Context, gigID uint64) (bool, error) {
    gig, err := h.Gigs.GetByID(ctx, gigID)
    if err != nil {
        return false, err
    }
    venue, err := h.Venues.GetByUserID(ctx, userID(c))
    if err != nil {
        return false, err
    }
    return venue.ID == gig.VenueID, nil
}

// Accept moves an application to accepted, closes the gig and seeds the
// chat, all in one transition.
func (h *HandshakeHandler) Accept(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    det, err := h.Apps.GetDetail(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    ok, err := h.callerOwnsGig(ctx, c, det.GigID)
    if err != nil {
        return writeErr(c, err)
    }
    if !ok {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your gig"})
    }

    res, err := h.Engine.AcceptApplication(ctx, det.ID)
    if err != nil {
        return writeErr(c, err)
    }
    updated, err := h.Apps.GetDetail(ctx, det.ID)
    if err != nil {
        return writeErr(c, err)
    }
    // leader_id lets clients jump straight into the seeded conversation.
    return c.JSON(http.StatusOK, echo.Map{"application": updated, "leader_id": res.LeaderID})
}

// Reject marks an application rejected.  The musician keeps a feed
// notification until they dismiss it.
func (h *HandshakeHandler) Reject(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    det, err := h.Apps.GetDetail(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    ok, err := h.callerOwnsGig(ctx, c, det.GigID)
    if err != nil {
        return writeErr(c, err)
    }
    if !ok {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your gig"})
    }

    if err := h.Engine.RejectApplication(ctx, det.ID); err != nil {
        return writeErr(c, err)
    }
    updated, err := h.Apps.GetDetail(ctx, det.ID)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, updated)
}

// CompleteGig is the venue-side completion of an accepted, past-date gig.
func (h *HandshakeHandler) CompleteGig(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    gigID := pathID(c, "id")
    ok, err := h.callerOwnsGig(ctx, c, gigID)
    if err != nil {
        return writeErr(c, err)
    }
    if !ok {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your gig"})
    }

    out, err := h.Engine.MarkGigCompleted(ctx, gigID)
    if err != nil {
        return writeErr(c, err)
    }
    resp := echo.Map{
        "gig_id":       out.GigID,
        "status":       out.Status,
        "completed_at": out.CompletedAt.UTC().Format(time.RFC3339),
    }
    if out.Confirmation != nil {
        resp["confirmation"] = confirmResp(out.Confirmation)
    }
    return c.JSON(http.StatusOK, resp)
}

// CompleteEnsemble is the ensemble-side completion: the leader reports
// their accepted gig happened.
func (h *HandshakeHandler) CompleteEnsemble(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    det, err := h.Apps.GetDetail(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    if det.EnsembleLeaderID != userID(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the ensemble leader can confirm"})
    }

    res, err := h.Engine.MarkEnsembleCompleted(ctx, det.ID)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, confirmResp(res))
}

type confirmReq struct {
    ConfirmerRole string `json:"confirmer_role"` // venue | ensemble
    GigHappened   *bool  `json:"gig_happened"`
}

// Confirm records one party's answer to "did this gig happen?".
func (h *HandshakeHandler) Confirm(c echo.Context) error {
    var req confirmReq
    if err := c.Bind(&req); err != nil || req.GigHappened == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "confirmer_role and gig_happened required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    det, err := h.Apps.GetDetail(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }

    switch req.ConfirmerRole {
    case model.ConfirmerVenue:
        ok, err := h.callerOwnsGig(ctx, c, det.GigID)
        if err != nil {
            return writeErr(c, err)
        }
        if !ok {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your gig"})
        }
    case model.ConfirmerEnsemble:
        if det.EnsembleLeaderID != userID(c) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "only the ensemble leader can confirm"})
        }
    }

    res, err := h.Engine.Confirm(ctx, det.ID, req.ConfirmerRole, *req.GigHappened)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, confirmResp(res))
}

// Dismiss acknowledges a gig outcome notification for the caller.
func (h *HandshakeHandler) Dismiss(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Engine.DismissNotification(ctx, pathID(c, "id"), userID(c)); err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"dismissed": true})
}

func confirmResp(res *workflow.ConfirmResult) echo.Map {
    m := echo.Map{
        "application_id":        res.ApplicationID,
        "gig_happened_venue":    res.GigHappenedVenue,
        "gig_happened_ensemble": res.GigHappenedEnsemble,
        "both_confirmed":        res.BothConfirmed,
        "verified":              res.Verified,
    }
    if res.ConfirmedAt != nil {
        m["confirmed_at"] = res.ConfirmedAt.UTC().Format(time.RFC3339)
    } else {
        m["confirmed_at"] = nil
    }
    return m
}
