package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/repository"
)

// ChatHandler serves direct messaging between users.  The acceptance
// transition seeds the first message of a venue/leader conversation; from
// there the two parties talk through these endpoints.
type ChatHandler struct {
    Messages *repository.MessageRepo
    Users    *repository.UserRepo
}

func NewChatHandler(m *repository.MessageRepo, u *repository.UserRepo) *ChatHandler {
    return &ChatHandler{Messages: m, Users: u}
}

// Conversations lists the caller's chat partners with unread counts.
func (h *ChatHandler) Conversations(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    convos, err := h.Messages.Conversations(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"conversations": convos})
}

// Thread returns the full exchange between the caller and another user.
func (h *ChatHandler) Thread(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    msgs, err := h.Messages.Between(ctx, userID(c), pathID(c, "userID"))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

type sendMessageReq struct {
    ReceiverID uint64 `json:"receiver_id"`
    Content    string `json:"content"`
}

// Send delivers a chat message to another user.
func (h *ChatHandler) Send(c echo.Context) error {
    var req sendMessageReq
    if err := c.Bind(&req); err != nil || req.ReceiverID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "receiver_id required"})
    }
    req.Content = strings.TrimSpace(req.Content)
    if req.Content == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
    }
    if req.ReceiverID == userID(c) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot message yourself"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    if _, err := h.Users.GetByID(ctx, req.ReceiverID); err != nil {
        return writeErr(c, err)
    }
    id, err := h.Messages.Create(ctx, userID(c), req.ReceiverID, req.Content, model.MessageTypeChat)
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// MarkRead flags one received message as read.
func (h *ChatHandler) MarkRead(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Messages.MarkRead(ctx, pathID(c, "id"), userID(c)); err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"read": true})
}
