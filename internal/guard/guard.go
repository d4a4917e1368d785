// Package guard gatekeeps every page request before it renders, using only
// cookie-visible state, so protection holds for direct navigation with no client
// script involved.
package guard

import (
	"strings"

	"github.com/mentora-learn/gateway/internal/models"
)

// Input is the cookie-visible state of one incoming request.
type Input struct {
	HasToken bool
	Role     string // "creator", "student", or empty when the cookie is absent
	Path     string
}

// Decision is the single outcome of evaluating a request: a redirect target, or
// pass-through when Redirect is empty.
type Decision struct {
	Redirect string
}

// Allow reports whether the request passes through unchanged.
func (d Decision) Allow() bool { return d.Redirect == "" }

// publicPaths are reachable without a session.
var publicPaths = map[string]bool{
	"/":         true,
	"/login":    true,
	"/register": true,
	"/promo":    true,
}

// roleRule gates a path prefix to one role. Prefixes are disjoint; order is fixed
// but does not affect the outcome.
type roleRule struct {
	prefix string
	role   models.Role
}

var roleRules = []roleRule{
	{"/courses/create", models.RoleCreator},
	{"/courses/manage", models.RoleCreator},
	{"/videos/upload", models.RoleCreator},
	{"/dashboard/creator", models.RoleCreator},
	{"/courses/enrolled", models.RoleStudent},
	{"/checkout", models.RoleStudent},
	{"/dashboard/student", models.RoleStudent},
}

// Evaluate decides what happens to a request. It is pure and total: exactly one of
// redirect or allow is produced for every input, and it never mutates cookies.
func Evaluate(in Input) Decision {
	path := normalizePath(in.Path)

	if !in.HasToken {
		if publicPaths[path] {
			return Decision{}
		}
		return Decision{Redirect: "/login"}
	}

	if publicPaths[path] {
		return Decision{Redirect: "/dashboard"}
	}

	if path == "/dashboard" {
		switch in.Role {
		case string(models.RoleCreator):
			return Decision{Redirect: "/dashboard/creator"}
		case string(models.RoleStudent):
			return Decision{Redirect: "/dashboard/student"}
		}
		// Unknown role value: no redirect, falls through.
		return Decision{}
	}

	if models.ValidRole(in.Role) {
		for _, rule := range roleRules {
			if !matchPrefix(path, rule.prefix) {
				continue
			}
			if in.Role == string(rule.role) {
				return Decision{}
			}
			return Decision{Redirect: safeDefault(in.Role, path)}
		}
	}

	return Decision{}
}

// safeDefault is where a role-mismatched request lands: the course detail page when
// the path embeds a course id, otherwise the caller's own dashboard.
func safeDefault(role, path string) string {
	if id := courseID(path); id != "" {
		return "/course/" + id
	}
	return "/dashboard/" + role
}

// courseID extracts the path segment following /course/, or empty.
func courseID(path string) string {
	const marker = "/course/"
	i := strings.Index(path, marker)
	if i < 0 {
		return ""
	}
	rest := path[i+len(marker):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func matchPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// skipPrefixes are never evaluated: API, auth and websocket surfaces authenticate
// themselves, and static assets are public by nature.
var skipPrefixes = []string{"/api", "/auth", "/ws", "/health", "/static", "/assets", "/_next"}

var skipExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico"}

// Skip reports whether the guard matcher excludes this path.
func Skip(path string) bool {
	for _, p := range skipPrefixes {
		if matchPrefix(path, p) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
