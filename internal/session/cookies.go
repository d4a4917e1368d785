package session

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mentora-learn/gateway/internal/models"
)

// Cookie names for the session set. The access token is httpOnly everywhere; role
// and the user snapshot are readable so the browser can render without a round trip.
const (
	CookieAccessToken = "access_token"
	CookieUserRole    = "user_role"
	CookieUserData    = "user_data"
	// CookieRefreshToken is a legacy name still deleted on logout.
	CookieRefreshToken = "refresh_token"
)

// CookieWriter issues and clears the session cookie set. Cookie writes happen only
// here and only from session-issuing handlers; nothing else mutates cookies.
type CookieWriter struct {
	MaxAge int // seconds
	Secure bool
	Domain string
}

// Issue sets the full cookie set for an authenticated user.
func (w CookieWriter) Issue(c *gin.Context, token string, user *models.User) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccessToken, token, w.MaxAge, "/", w.Domain, w.Secure, true)
	c.SetCookie(CookieUserRole, string(user.Role), w.MaxAge, "/", w.Domain, w.Secure, false)
	if raw, err := json.Marshal(user); err == nil {
		c.SetCookie(CookieUserData, string(raw), w.MaxAge, "/", w.Domain, w.Secure, false)
	}
}

// Clear deletes the full cookie set, including the legacy refresh token.
func (w CookieWriter) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	for _, name := range []string{CookieAccessToken, CookieUserRole, CookieUserData, CookieRefreshToken} {
		c.SetCookie(name, "", -1, "/", w.Domain, w.Secure, true)
	}
}

// Token reads the access token cookie from a request; empty when absent.
func Token(r *http.Request) string {
	ck, err := r.Cookie(CookieAccessToken)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Role reads the role cookie from a request; empty when absent.
func Role(r *http.Request) string {
	ck, err := r.Cookie(CookieUserRole)
	if err != nil {
		return ""
	}
	return ck.Value
}

// UserFromCookie parses the user snapshot cookie. A missing or malformed cookie
// yields (nil, false): the caller treats the request as anonymous, never errors.
func UserFromCookie(r *http.Request) (*models.User, bool) {
	ck, err := r.Cookie(CookieUserData)
	if err != nil || ck.Value == "" {
		return nil, false
	}
	// gin escapes cookie values on write; tolerate both escaped and raw JSON.
	raw := ck.Value
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, false
	}
	if u.ID == "" {
		return nil, false
	}
	return &u, true
}
