package videos

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mentora-learn/gateway/internal/upload"
	"github.com/mentora-learn/gateway/pkg/response"
)

// ObjectStore is the direct bucket access used in local presign mode: download
// URLs are signed here and deleted videos have their bytes cleaned up. Nil when
// the platform API owns the bucket.
type ObjectStore interface {
	PresignDownload(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	PresignExpire() time.Duration
}

// UploadURLRequest is the body for POST /api/videos/upload-url.
type UploadURLRequest struct {
	CourseID    string `json:"course_id" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// RegisterRequest is the body for POST /api/videos. ObjectKey must come from a
// completed upload; the record is never created ahead of the bytes.
type RegisterRequest struct {
	CourseID  string  `json:"course_id" binding:"required"`
	Title     string  `json:"title" binding:"required"`
	ObjectKey string  `json:"object_key" binding:"required"`
	Duration  float64 `json:"duration"`
}

// ImportRequest is the body for POST /api/videos/import.
type ImportRequest struct {
	CourseID string `json:"course_id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	URL      string `json:"url" binding:"required,url"`
}

// Handler handles video HTTP endpoints.
type Handler struct {
	svc        *Service
	authorizer upload.Authorizer
	importer   *upload.Importer
	objects    ObjectStore
	logger     *zap.Logger
}

// NewHandler creates a video handler. authorizer is the local S3 presigner when
// configured, otherwise the gateway delegate; objects follows the same split.
func NewHandler(svc *Service, authorizer upload.Authorizer, importer *upload.Importer, objects ObjectStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, authorizer: authorizer, importer: importer, objects: objects, logger: logger}
}

// UploadURL handles POST /api/videos/upload-url (creator only).
func (h *Handler) UploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	target, err := h.authorizer.AuthorizeUpload(c.Request.Context(), req.CourseID, req.Filename, req.ContentType)
	if err != nil {
		h.logger.Error("authorize upload failed", zap.String("course_id", req.CourseID), zap.Error(err))
		response.Internal(c, "failed to generate upload URL")
		return
	}
	response.OK(c, target)
}

// Register handles POST /api/videos (creator only).
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	video, err := h.svc.RegisterVideo(c.Request.Context(), req.CourseID, req.Title, req.ObjectKey, req.Duration)
	if err != nil {
		h.logger.Error("register video failed", zap.String("object_key", req.ObjectKey), zap.Error(err))
		response.Internal(c, "failed to register video")
		return
	}
	response.Created(c, video)
}

// ListByCourse handles GET /api/courses/:id/videos.
func (h *Handler) ListByCourse(c *gin.Context) {
	list, res := h.svc.ListByCourse(c.Request.Context(), c.Param("id"))
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /api/videos/:id (creator only). In local presign mode the
// object key is resolved before the record disappears so the bytes can be cleaned
// up afterwards; in delegate mode the platform API cascades storage cleanup.
func (h *Handler) Delete(c *gin.Context) {
	videoID := c.Param("id")

	var objectKey string
	if h.objects != nil {
		if video, res := h.svc.Get(c.Request.Context(), videoID); !res.Error && video != nil {
			objectKey = video.ObjectKey
		}
	}

	res := h.svc.Delete(c.Request.Context(), videoID)
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}

	if h.objects != nil && objectKey != "" {
		if err := h.objects.DeleteObject(c.Request.Context(), objectKey); err != nil {
			// The record is already gone; the orphaned object is an ops concern.
			h.logger.Warn("video object cleanup failed", zap.String("key", objectKey), zap.Error(err))
		}
	}
	response.OK(c, gin.H{"deleted": true})
}

// Download handles GET /api/videos/:id/download: a time-boxed URL for the stored
// file, signed locally when the bucket is ours, otherwise delegated upstream.
func (h *Handler) Download(c *gin.Context) {
	videoID := c.Param("id")
	if h.objects == nil {
		res := h.svc.DownloadURL(c.Request.Context(), videoID)
		if res.Error {
			response.Status(c, res.Status, res.Message)
			return
		}
		response.OK(c, res.Data)
		return
	}

	video, res := h.svc.Get(c.Request.Context(), videoID)
	if res.Error {
		response.Status(c, res.Status, res.Message)
		return
	}
	if video == nil || video.ObjectKey == "" {
		response.NotFound(c, "video has no stored file")
		return
	}
	url, err := h.objects.PresignDownload(c.Request.Context(), video.ObjectKey)
	if err != nil {
		h.logger.Error("presign download failed", zap.String("key", video.ObjectKey), zap.Error(err))
		response.Internal(c, "failed to generate download URL")
		return
	}
	response.OK(c, gin.H{
		"download_url": url,
		"expires_in":   int(h.objects.PresignExpire().Seconds()),
	})
}

// Import handles POST /api/videos/import (creator only): kicks off a server-side
// pull of a remote video; progress is observable over the upload websocket.
func (h *Handler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if h.importer == nil {
		response.ServiceUnavailable(c, "import not configured")
		return
	}
	uploadID := uuid.New().String()
	err := h.importer.Enqueue(upload.ImportJob{
		UploadID:  uploadID,
		CourseID:  req.CourseID,
		Title:     req.Title,
		SourceURL: req.URL,
	})
	if err != nil {
		response.ServiceUnavailable(c, "import queue full, try again shortly")
		return
	}
	response.OK(c, gin.H{"upload_id": uploadID})
}
