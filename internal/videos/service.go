package videos

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mentora-learn/gateway/internal/gateway"
	"github.com/mentora-learn/gateway/internal/models"
	"github.com/mentora-learn/gateway/internal/upload"
	"github.com/mentora-learn/gateway/pkg/storage"
)

// Service talks to the platform API for video records. It satisfies both
// upload.Authorizer (delegate mode: the API issues the presigned target) and
// upload.Registrar.
type Service struct {
	gw *gateway.Gateway
}

// NewService creates a video service over the gateway.
func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// AuthorizeUpload asks the platform API for a presigned upload target. Filenames
// are passed through unsanitized; the API is trusted to produce a safe key.
func (s *Service) AuthorizeUpload(ctx context.Context, courseID, filename, contentType string) (*upload.AuthorizeResult, error) {
	res := s.gw.Post(ctx, "videos/upload-url", map[string]string{
		"course_id":    courseID,
		"filename":     filename,
		"content_type": contentType,
	})
	if res.Error {
		return nil, fmt.Errorf("upload-url: status %d: %s", res.Status, res.Message)
	}
	var target upload.AuthorizeResult
	if err := res.Decode(&target); err != nil {
		return nil, fmt.Errorf("upload-url: %w", err)
	}
	if target.UploadURL == "" || target.Key == "" {
		return nil, fmt.Errorf("upload-url: incomplete target")
	}
	return &target, nil
}

// RegisterVideo creates the video record for an object already in storage.
func (s *Service) RegisterVideo(ctx context.Context, courseID, title, objectKey string, duration float64) (*models.Video, error) {
	res := s.gw.Post(ctx, "videos", map[string]interface{}{
		"course_id":  courseID,
		"title":      title,
		"object_key": objectKey,
		"duration":   duration,
	})
	if res.Error {
		return nil, fmt.Errorf("register video: status %d: %s", res.Status, res.Message)
	}
	var video models.Video
	if err := res.Decode(&video); err != nil {
		return nil, fmt.Errorf("register video: %w", err)
	}
	return &video, nil
}

// Get returns a single video record.
func (s *Service) Get(ctx context.Context, videoID string) (*models.Video, *gateway.Result) {
	res := s.gw.Get(ctx, "videos/"+videoID)
	if res.Error {
		return nil, res
	}
	var video models.Video
	if err := res.Decode(&video); err != nil {
		return nil, res
	}
	return &video, res
}

// DownloadURL asks the platform API for a download URL (delegate mode).
func (s *Service) DownloadURL(ctx context.Context, videoID string) *gateway.Result {
	return s.gw.Get(ctx, "videos/"+videoID+"/download")
}

// ListByCourse returns the videos of a course.
func (s *Service) ListByCourse(ctx context.Context, courseID string) ([]models.Video, *gateway.Result) {
	res := s.gw.Get(ctx, "courses/"+courseID+"/videos")
	if res.Error {
		return nil, res
	}
	var list []models.Video
	if err := res.Decode(&list); err != nil {
		return nil, res
	}
	return list, res
}

// Delete removes a video record; the platform API cascades storage cleanup.
func (s *Service) Delete(ctx context.Context, videoID string) *gateway.Result {
	return s.gw.Delete(ctx, "videos/"+videoID)
}

// S3Authorizer issues presigned targets directly against the bucket (local presign
// mode). Keys come from ids, so unsanitized filenames only contribute an extension.
type S3Authorizer struct {
	s3 *storage.S3
}

// NewS3Authorizer creates a local presign authorizer.
func NewS3Authorizer(s3 *storage.S3) *S3Authorizer {
	return &S3Authorizer{s3: s3}
}

func (a *S3Authorizer) AuthorizeUpload(ctx context.Context, courseID, filename, contentType string) (*upload.AuthorizeResult, error) {
	if !storage.ValidVideoType(contentType) {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}
	key := storage.VideoKey(courseID, uuid.New().String(), filename)
	uploadURL, err := a.s3.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &upload.AuthorizeResult{
		UploadURL:   uploadURL,
		Key:         key,
		Bucket:      a.s3.Bucket(),
		Filename:    filename,
		ContentType: contentType,
		ExpiresIn:   int(a.s3.PresignExpire().Seconds()),
	}, nil
}
