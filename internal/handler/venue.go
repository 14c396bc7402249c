package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/repository"
)

// VenueHandler serves venue profiles.
type VenueHandler struct {
    Venues *repository.VenueRepo
}

func NewVenueHandler(v *repository.VenueRepo) *VenueHandler {
    return &VenueHandler{Venues: v}
}

type venueReq struct {
    Name        string  `json:"name"`
    Location    string  `json:"location"`
    VibeTags    *string `json:"vibe_tags"`
    TechSpecs   *string `json:"tech_specs"`
    Description *string `json:"description"`
}

type venueResp struct {
    ID               uint64  `json:"id"`
    UserID           uint64  `json:"user_id"`
    Name             string  `json:"name"`
    Location         string  `json:"location"`
    VibeTags         *string `json:"vibe_tags"`
    TechSpecs        *string `json:"tech_specs"`
    Description      *string `json:"description"`
    VerifiedGigCount int     `json:"verified_gig_count"`
    CreatedAt        string  `json:"created_at"`
}

func toVenueResp(rec *repository.VenueRecord) venueResp {
    return venueResp{
        ID: rec.ID, UserID: rec.UserID, Name: rec.Name, Location: rec.Location,
        VibeTags: rec.VibeTags, TechSpecs: rec.TechSpecs, Description: rec.Description,
        VerifiedGigCount: rec.VerifiedGigCount,
        CreatedAt:        rec.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// Create registers the caller's venue profile.  One profile per venue user.
func (h *VenueHandler) Create(c echo.Context) error {
    var req venueReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Location = strings.TrimSpace(req.Location)
    if req.Name == "" || req.Location == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and location required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    rec := &repository.VenueRecord{
        UserID: userID(c), Name: req.Name, Location: req.Location,
        VibeTags: req.VibeTags, TechSpecs: req.TechSpecs, Description: req.Description,
    }
    if err := h.Venues.Create(ctx, rec); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "venue profile already exists"})
        }
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, toVenueResp(rec))
}

// Get returns one venue profile.
func (h *VenueHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    rec, err := h.Venues.GetByID(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, toVenueResp(rec))
}

// Mine returns the caller's own venue profile.
func (h *VenueHandler) Mine(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    rec, err := h.Venues.GetByUserID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, toVenueResp(rec))
}

// List returns every venue profile.
func (h *VenueHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    recs, err := h.Venues.List(ctx)
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]venueResp, 0, len(recs))
    for i := range recs {
        out = append(out, toVenueResp(&recs[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"venues": out})
}

// Update overwrites the caller's venue profile.
func (h *VenueHandler) Update(c echo.Context) error {
    var req venueReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Location = strings.TrimSpace(req.Location)
    if req.Name == "" || req.Location == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and location required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    id := pathID(c, "id")
    if err := h.Venues.Update(ctx, id, userID(c), req.Name, req.Location,
        req.VibeTags, req.TechSpecs, req.Description); err != nil {
        return writeErr(c, err)
    }
    rec, err := h.Venues.GetByID(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, toVenueResp(rec))
}
