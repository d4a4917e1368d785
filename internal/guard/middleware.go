package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentora-learn/gateway/internal/session"
)

// Middleware evaluates every navigable request before its handler runs. It reads
// only the cookie set; the session cache plays no part in navigation decisions.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if Skip(path) {
			c.Next()
			return
		}
		decision := Evaluate(Input{
			HasToken: session.Token(c.Request) != "",
			Role:     session.Role(c.Request),
			Path:     path,
		})
		if !decision.Allow() {
			// Routing decision, not an error: redirect silently.
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}
