package models

import (
	"time"
)

// Session is the server-side view of an authenticated actor: identity plus the
// bearer token the platform API issued. The token, when present, always belongs to
// the same user id as the cached user snapshot. An empty token is legal when the
// token lives only in the httpOnly cookie.
type Session struct {
	User          *User     `json:"user"`
	Token         string    `json:"token,omitempty"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
