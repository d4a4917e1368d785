// Package auth delegates login and registration to the platform API and owns
// session issuance: the cookie set and the session cache are updated together, and
// only here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentora-learn/gateway/internal/gateway"
	"github.com/mentora-learn/gateway/internal/models"
	"github.com/mentora-learn/gateway/internal/session"
	"github.com/mentora-learn/gateway/pkg/response"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"` // optional, defaults to student
}

// tokenPayload is what the platform API returns on login/register.
type tokenPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	gw      *gateway.Gateway
	store   session.Store
	cookies session.CookieWriter
	logger  *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(gw *gateway.Gateway, store session.Store, cookies session.CookieWriter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gw: gw, store: store, cookies: cookies, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	res := h.gw.Post(c.Request.Context(), "auth/login", req)
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	h.issue(c, res, http.StatusOK)
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Role == "" {
		req.Role = string(models.RoleStudent)
	}
	if !models.ValidRole(req.Role) {
		response.BadRequest(c, "invalid role")
		return
	}
	res := h.gw.Post(c.Request.Context(), "auth/register", req)
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	h.issue(c, res, http.StatusCreated)
}

// issue extracts token and user from an upstream auth result, then updates the
// cookie set and session cache atomically (both or neither).
func (h *Handler) issue(c *gin.Context, res *gateway.Result, status int) {
	var payload tokenPayload
	if err := res.Decode(&payload); err != nil || payload.User == nil {
		h.logger.Error("auth payload malformed", zap.Error(err))
		response.Internal(c, "unexpected response from server")
		return
	}
	token := payload.Token
	if token == "" && res.Header != nil {
		// Some upstream flows hand the token back in a header instead.
		token = res.Header.Get("X-Auth-Token")
	}
	if token == "" {
		response.Internal(c, "no session token issued")
		return
	}
	if err := h.store.SetAuth(c.Request.Context(), token, payload.User); err != nil {
		h.logger.Error("session cache write failed", zap.Error(err))
		response.Internal(c, "failed to establish session")
		return
	}
	h.cookies.Issue(c, token, payload.User)
	c.JSON(status, response.Body{Success: true, Data: gin.H{"user": payload.User}})
}

// Logout handles POST /auth/logout: destroys the session explicitly.
func (h *Handler) Logout(c *gin.Context) {
	token := session.CurrentToken(c)
	if token == "" {
		token = session.Token(c.Request)
	}
	if token != "" {
		// Best effort; the local session dies regardless of what upstream says.
		_ = h.gw.Post(c.Request.Context(), "auth/logout", nil)
		if err := h.store.ClearAuth(c.Request.Context(), token); err != nil {
			h.logger.Warn("session cache clear failed", zap.Error(err))
		}
	}
	h.cookies.Clear(c)
	response.OK(c, gin.H{"logged_out": true})
}

// Me handles GET /users/me: refreshes the identity snapshot from the platform API
// and re-issues the user cookies with the fresh snapshot. When the API rotates the
// token (X-Auth-Token header) the cached session is re-keyed under the new one.
func (h *Handler) Me(c *gin.Context) {
	res := h.gw.Get(c.Request.Context(), "users/me")
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	var user models.User
	if err := res.Decode(&user); err != nil || user.ID == "" {
		response.Internal(c, "unexpected response from server")
		return
	}
	token := session.CurrentToken(c)
	if rotated := res.Header.Get("X-Auth-Token"); rotated != "" && rotated != token {
		// The platform API rotated the token mid-session: re-key the cached
		// session so the old entry dies now instead of lingering to its TTL.
		if err := h.store.SetToken(c.Request.Context(), token, rotated); err != nil && !errors.Is(err, session.ErrNotFound) {
			h.logger.Warn("session re-key failed", zap.Error(err))
		}
		token = rotated
	}
	if token != "" {
		if err := h.store.SetAuth(c.Request.Context(), token, &user); err != nil {
			h.logger.Warn("session cache refresh failed", zap.Error(err))
		}
		h.cookies.Issue(c, token, &user)
	}
	response.OK(c, user)
}

// NewIdentityFetcher adapts the gateway into the hydration fallback: fetch the
// identity behind a token that has no cached session and no readable snapshot.
func NewIdentityFetcher(gw *gateway.Gateway) session.IdentityFetcher {
	return func(ctx context.Context, token string) (*models.User, error) {
		headers := map[string]string{"Authorization": "Bearer " + token}
		res := gw.Do(ctx, http.MethodGet, "users/me", nil, headers)
		if res.Error {
			return nil, fmt.Errorf("identity fetch failed: status %d", res.Status)
		}
		var user models.User
		if err := res.Decode(&user); err != nil {
			return nil, fmt.Errorf("identity fetch failed: %w", err)
		}
		if user.ID == "" {
			return nil, fmt.Errorf("identity fetch failed: empty user")
		}
		return &user, nil
	}
}
