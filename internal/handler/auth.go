package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/stagelink/stagelink/internal/config"
    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/repository"
    "github.com/stagelink/stagelink/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Email      string `json:"email"`
    Password   string `json:"password"`
    Name       string `json:"name"`
    Role       string `json:"role"` // musician | venue
    Instrument string `json:"instrument"`
    City       string `json:"city"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID         uint64 `json:"id"`
    Email      string `json:"email"`
    Name       string `json:"name"`
    Role       string `json:"role"`
    Instrument string `json:"instrument,omitempty"`
    City       string `json:"city,omitempty"`
    Bio        string `json:"bio,omitempty"`
    IsPro      bool   `json:"is_pro"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u *model.User) userPart {
    return userPart{
        ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
        Instrument: u.Instrument, City: u.City, Bio: u.Bio, IsPro: u.IsPro,
    }
}

// issuePair creates an access/refresh token pair and stores the refresh hash.
func (h *AuthHandler) issuePair(c echo.Context, uid uint64, role string) (*tokenPart, *tokenPart, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return nil, nil, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return nil, nil, err
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return nil, nil, err
    }
    a := tokenPart{Token: access.Token, Expires: access.Exp}
    r := tokenPart{Token: refresh.Raw, Expires: refresh.Exp} // raw goes back to the client
    return &a, &r, nil
}

// Register creates a user account and returns a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Name = strings.TrimSpace(req.Name)
    if req.Email == "" || req.Password == "" || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password/name required"})
    }
    role := strings.ToLower(strings.TrimSpace(req.Role))
    if role != model.RoleVenue {
        role = model.RoleMusician
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Email, req.Password, req.Name, role, req.Instrument, req.City, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    access, refresh, err := h.issuePair(c, uid, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusCreated, authResp{
        User: userPart{ID: uid, Email: req.Email, Name: req.Name, Role: role,
            Instrument: req.Instrument, City: req.City},
        Access:  *access,
        Refresh: *refresh,
    })
}

// Login verifies the credentials and returns a fresh pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if !u.IsActive {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }

    access, refresh, err := h.issuePair(c, u.ID, u.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, authResp{User: toUserPart(u), Access: *access, Refresh: *refresh})
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    hash := utils.HashRefreshRaw(req.RefreshToken)
    uid, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil || !u.IsActive {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
    }

    access, refresh, err := h.issuePair(c, u.ID, u.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, authResp{User: toUserPart(u), Access: *access, Refresh: *refresh})
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    u, err := h.Users.GetByID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}

type updateProfileReq struct {
    Name       string `json:"name"`
    Instrument string `json:"instrument"`
    City       string `json:"city"`
    Bio        string `json:"bio"`
}

// UpdateMe overwrites the caller's self-editable profile fields.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
    var req updateProfileReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.Name) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Users.UpdateProfile(ctx, userID(c), req.Name, req.Instrument, req.City, req.Bio); err != nil {
        return writeErr(c, err)
    }
    u, err := h.Users.GetByID(ctx, userID(c))
    if err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
