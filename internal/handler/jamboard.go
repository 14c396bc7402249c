package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/repository"
)

// JamBoardHandler serves the jam board: open calls from musicians looking
// for players, outside the formal gig workflow.
type JamBoardHandler struct {
    Posts *repository.JamPostRepo
}

func NewJamBoardHandler(p *repository.JamPostRepo) *JamBoardHandler {
    return &JamBoardHandler{Posts: p}
}

type jamPostReq struct {
    Title             string `json:"title"`
    Description       string `json:"description"`
    Location          string `json:"location"`
    InstrumentsNeeded string `json:"instruments_needed"`
}

// Create publishes a new jam post by the caller.
func (h *JamBoardHandler) Create(c echo.Context) error {
    var req jamPostReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Title = strings.TrimSpace(req.Title)
    if req.Title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    id, err := h.Posts.Create(ctx, userID(c), req.Title, req.Description, req.Location, req.InstrumentsNeeded)
    if err != nil {
        return writeErr(c, err)
    }
    det, err := h.Posts.GetByID(ctx, id)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, det)
}

// List returns open jam posts, optionally filtered by location.
func (h *JamBoardHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    posts, err := h.Posts.ListOpen(ctx, c.QueryParam("location"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// Get returns one jam post.
func (h *JamBoardHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    det, err := h.Posts.GetByID(ctx, pathID(c, "id"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, det)
}

// Delete removes the caller's own jam post.
func (h *JamBoardHandler) Delete(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Posts.Delete(ctx, pathID(c, "id"), userID(c)); err != nil {
        return writeErr(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
