package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/repository"
)

// AdminHandler serves the oversight endpoints: user listing and the
// moderation toggles.  All routes require the admin role.
type AdminHandler struct {
    Users     *repository.UserRepo
    Gigs      *repository.GigRepo
    Venues    *repository.VenueRepo
    Ensembles *repository.EnsembleRepo
    Stats     *repository.StatsRepo
}

func NewAdminHandler(u *repository.UserRepo, g *repository.GigRepo, v *repository.VenueRepo, e *repository.EnsembleRepo, s *repository.StatsRepo) *AdminHandler {
    return &AdminHandler{Users: u, Gigs: g, Venues: v, Ensembles: e, Stats: s}
}

// maskEmail hides most of the local part: "leonard@example.com" becomes
// "le*****@example.com".
func maskEmail(email string) string {
    at := strings.IndexByte(email, '@')
    if at <= 2 {
        return email
    }
    return email[:2] + strings.Repeat("*", at-2) + email[at:]
}

type adminUserRow struct {
    ID         uint64 `json:"id"`
    Email      string `json:"email"`
    Name       string `json:"name"`
    Role       string `json:"role"`
    Instrument string `json:"instrument,omitempty"`
    City       string `json:"city,omitempty"`
    IsPro      bool   `json:"is_pro"`
    IsActive   bool   `json:"is_active"`
}

// ListUsers returns all accounts with masked emails.  Filter with
// ?role=musician|venue|admin and ?active=true|false.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    var active *bool
    switch c.QueryParam("active") {
    case "true":
        v := true
        active = &v
    case "false":
        v := false
        active = &v
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    users, err := h.Users.List(ctx, c.QueryParam("role"), active)
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]adminUserRow, 0, len(users))
    for _, u := range users {
        out = append(out, adminUserRow{
            ID: u.ID, Email: maskEmail(u.Email), Name: u.Name, Role: u.Role,
            Instrument: u.Instrument, City: u.City, IsPro: u.IsPro, IsActive: u.IsActive,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// ListVenues returns every venue profile.
func (h *AdminHandler) ListVenues(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    venues, err := h.Venues.List(ctx)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"venues": venues})
}

// ListEnsembles returns every ensemble.
func (h *AdminHandler) ListEnsembles(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    ensembles, err := h.Ensembles.List(ctx)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ensembles": ensembles})
}

// ListGigs returns every gig, optionally filtered with ?status=.
func (h *AdminHandler) ListGigs(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    gigs, err := h.Gigs.ListAll(ctx, c.QueryParam("status"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"gigs": gigs})
}

// ToggleActive flips the soft-disable flag on an account.  Admin accounts
// cannot disable themselves.
func (h *AdminHandler) ToggleActive(c echo.Context) error {
    id := pathID(c, "id")
    if id == userID(c) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot toggle your own account"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    target, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    if target.Role == model.RoleAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot toggle an admin account"})
    }
    active, err := h.Users.ToggleActive(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "is_active": active})
}

// TogglePro flips the pro subscription flag on an account.
func (h *AdminHandler) TogglePro(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    id := pathID(c, "id")
    pro, err := h.Users.TogglePro(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "is_pro": pro})
}

// ToggleGigOpen force-flips is_open on a gig, an override for stuck
// listings.
func (h *AdminHandler) ToggleGigOpen(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    id := pathID(c, "id")
    open, err := h.Gigs.ToggleOpen(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "is_open": open})
}

// PlatformStats returns the full platform snapshot.
func (h *AdminHandler) PlatformStats(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    stats, err := h.Stats.Platform(ctx)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, stats)
}
