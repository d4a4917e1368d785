package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentora-learn/gateway/internal/models"
)

const (
	// ContextUserID is the key for the user id in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for the user role in gin context.
	ContextUserRole = "user_role"
	// ContextUser is the key for the full user snapshot in gin context.
	ContextUser = "user"
	// ContextToken is the key for the bearer token in gin context.
	ContextToken = "token"
)

// IdentityFetcher re-fetches the identity behind a token from the platform API.
// Used when both the session cache and the user snapshot cookie fail.
type IdentityFetcher func(ctx context.Context, token string) (*models.User, error)

// Hydrate reconciles the cookie set with the session cache, one-directional
// (cookie to store, never store to cookie except through re-issuance here).
//
// Resolution order per request: expired token is dropped; cache hit wins; else the
// user snapshot cookie seeds the cache; else identity is re-fetched upstream. If
// everything fails the stale cookies are cleared and page requests are redirected
// to /login (API requests get 401 from their own handlers later).
func Hydrate(store Store, fetch IdentityFetcher, cookies CookieWriter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := Token(c.Request)
		if token == "" {
			c.Next()
			return
		}

		if Expired(token, time.Now()) {
			cookies.Clear(c)
			c.Next()
			return
		}

		sess, err := store.Get(c.Request.Context(), token)
		if err == nil {
			setIdentity(c, sess.User, token)
			c.Next()
			return
		}
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("session cache read failed", zap.Error(err))
		}

		if user, ok := UserFromCookie(c.Request); ok {
			if err := store.SetAuth(c.Request.Context(), token, user); err != nil {
				logger.Warn("session hydration failed", zap.Error(err))
			}
			setIdentity(c, user, token)
			c.Next()
			return
		}

		// Malformed or missing snapshot: treat as anonymous and re-fetch identity.
		user, err := fetch(c.Request.Context(), token)
		if err != nil || user == nil {
			cookies.Clear(c)
			_ = store.ClearAuth(c.Request.Context(), token)
			if isPageRequest(c.Request) {
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if err := store.SetAuth(c.Request.Context(), token, user); err != nil {
			logger.Warn("session hydration failed", zap.Error(err))
		}
		cookies.Issue(c, token, user)
		setIdentity(c, user, token)
		c.Next()
	}
}

func setIdentity(c *gin.Context, user *models.User, token string) {
	c.Set(ContextUser, user)
	c.Set(ContextUserID, user.ID)
	c.Set(ContextUserRole, string(user.Role))
	c.Set(ContextToken, token)
	c.Request = c.Request.WithContext(WithToken(c.Request.Context(), token))
}

// CurrentUser returns the hydrated user for a request, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

// CurrentToken returns the hydrated bearer token for a request, if any.
func CurrentToken(c *gin.Context) string {
	v, ok := c.Get(ContextToken)
	if !ok {
		return ""
	}
	t, _ := v.(string)
	return t
}

func isPageRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api") || strings.HasPrefix(r.URL.Path, "/ws") {
		return false
	}
	return r.Method == http.MethodGet
}
