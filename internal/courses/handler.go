// Package courses is a thin passthrough over the platform API course resources —
// representative of the presentation-facing glue; the interesting logic lives in
// the gateway it calls through.
package courses

import (
	"github.com/gin-gonic/gin"

	"github.com/mentora-learn/gateway/internal/gateway"
	"github.com/mentora-learn/gateway/internal/models"
	"github.com/mentora-learn/gateway/pkg/response"
)

// Handler handles course HTTP endpoints.
type Handler struct {
	gw *gateway.Gateway
}

// NewHandler creates a course handler.
func NewHandler(gw *gateway.Gateway) *Handler {
	return &Handler{gw: gw}
}

// List handles GET /api/courses.
func (h *Handler) List(c *gin.Context) {
	res := h.gw.Get(c.Request.Context(), "courses")
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	var list []models.Course
	if err := res.Decode(&list); err != nil {
		response.Internal(c, "unexpected response from server")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/courses/:id.
func (h *Handler) Get(c *gin.Context) {
	res := h.gw.Get(c.Request.Context(), "courses/"+c.Param("id"))
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	var course models.Course
	if err := res.Decode(&course); err != nil {
		response.Internal(c, "unexpected response from server")
		return
	}
	response.OK(c, course)
}

// Enroll handles POST /api/courses/:id/enroll (student only).
func (h *Handler) Enroll(c *gin.Context) {
	res := h.gw.Post(c.Request.Context(), "courses/"+c.Param("id")+"/enroll", nil)
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	response.OK(c, gin.H{"enrolled": true})
}
