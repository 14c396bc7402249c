package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/repository"
)

// MusicianHandler serves musician discovery: profile lookup and the search
// ensemble leaders use when inviting players.
type MusicianHandler struct {
    Users *repository.UserRepo
}

func NewMusicianHandler(u *repository.UserRepo) *MusicianHandler {
    return &MusicianHandler{Users: u}
}

type musicianProfile struct {
    ID         uint64 `json:"id"`
    Name       string `json:"name"`
    Instrument string `json:"instrument,omitempty"`
    City       string `json:"city,omitempty"`
    Bio        string `json:"bio,omitempty"`
}

// Search finds active musicians by city and/or instrument substring.
func (h *MusicianHandler) Search(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    users, err := h.Users.Search(ctx, c.QueryParam("city"), c.QueryParam("instrument"))
    if err != nil {
        return writeErr(c, err)
    }
    out := make([]musicianProfile, 0, len(users))
    for _, u := range users {
        out = append(out, musicianProfile{ID: u.ID, Name: u.Name, Instrument: u.Instrument, City: u.City, Bio: u.Bio})
    }
    return c.JSON(http.StatusOK, echo.Map{"musicians": out})
}

// Get returns one musician's public profile.
func (h *MusicianHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByID(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    if u.Role != model.RoleMusician || !u.IsActive {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }
    return c.JSON(http.StatusOK, musicianProfile{ID: u.ID, Name: u.Name, Instrument: u.Instrument, City: u.City, Bio: u.Bio})
}
