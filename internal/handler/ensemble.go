package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/repository"
)

// EnsembleHandler serves ensemble profiles and membership management.
type EnsembleHandler struct {
    Ensembles *repository.EnsembleRepo
}

func NewEnsembleHandler(e *repository.EnsembleRepo) *EnsembleHandler {
    return &EnsembleHandler{Ensembles: e}
}

type createEnsembleReq struct {
    Name        string  `json:"name"`
    CombinedBio *string `json:"combined_bio"`
}

// Create registers a new ensemble with the caller as leader and first
// member.
func (h *EnsembleHandler) Create(c echo.Context) error {
    var req createEnsembleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    rec := &repository.EnsembleRecord{Name: req.Name, LeaderID: userID(c), CombinedBio: req.CombinedBio}
    if err := h.Ensembles.Create(ctx, rec); err != nil {
        return writeErr(c, err)
    }
    det, err := h.Ensembles.GetDetail(ctx, rec.ID)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, det)
}

// Get returns one ensemble with members and pending invites.
func (h *EnsembleHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    det, err := h.Ensembles.GetDetail(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, det)
}

type ensembleResp struct {
    ID               uint64  `json:"id"`
    Name             string  `json:"name"`
    LeaderID         uint64  `json:"leader_id"`
    CombinedBio      *string `json:"combined_bio"`
    VerifiedGigCount int     `json:"verified_gig_count"`
    CreatedAt        string  `json:"created_at"`
}

func toEnsembleResp(rec *repository.EnsembleRecord) ensembleResp {
    return ensembleResp{
        ID: rec.ID, Name: rec.Name, LeaderID: rec.LeaderID, CombinedBio: rec.CombinedBio,
        VerifiedGigCount: rec.VerifiedGigCount,
        CreatedAt:        rec.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// Mine returns every ensemble the caller leads or plays in.
func (h *EnsembleHandler) Mine(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    recs, err := h.Ensembles.ListByUser(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]ensembleResp, 0, len(recs))
    for i := range recs {
        out = append(out, toEnsembleResp(&recs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"ensembles": out})
}

// List returns every ensemble.
func (h *EnsembleHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    recs, err := h.Ensembles.List(ctx)
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]ensembleResp, 0, len(recs))
    for i := range recs {
        out = append(out, toEnsembleResp(&recs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"ensembles": out})
}

type inviteReq struct {
    UserID uint64 `json:"user_id"`
}

// Invite asks a musician to join the caller's ensemble.  Leader only.
func (h *EnsembleHandler) Invite(c echo.Context) error {
    var req inviteReq
    if err := c.Bind(&req); err != nil || req.UserID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    id := pathID(c, "id")
    leaderID, err := h.Ensembles.Leader(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    if leaderID != userID(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the leader can invite"})
    }
    if err := h.Ensembles.Invite(ctx, id, req.UserID); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "already a member or invited"})
        }
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"invited": true})
}

// AcceptInvite converts the caller's pending invite into membership.
func (h *EnsembleHandler) AcceptInvite(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Ensembles.AcceptInvite(ctx, pathID(c, "id"), userID(c)); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "no pending invite"})
        }
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"joined": true})
}

// RemoveMember drops a member from the caller's ensemble, or lets a member
// leave on their own.  The leader cannot be removed.
func (h *EnsembleHandler) RemoveMember(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    id := pathID(c, "id")
    target := pathID(c, "userID")
    leaderID, err := h.Ensembles.Leader(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    if userID(c) != leaderID && userID(c) != target {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if err := h.Ensembles.RemoveMember(ctx, id, target); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "the leader cannot be removed"})
        }
        return writeErr(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
