// Package upload moves large video files into object storage without routing the
// bytes through the platform API: authorize a presigned target, transfer the raw
// bytes to it, then register the resulting object key as a video record.
package upload

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mentora-learn/gateway/internal/models"
)

// AuthorizeResult is the presigned upload target issued for one attempt. Targets
// are time-boxed and never reused: a failed attempt re-requests a fresh one.
type AuthorizeResult struct {
	UploadURL   string `json:"upload_url"`
	Key         string `json:"key"`
	Bucket      string `json:"bucket"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// Authorizer issues a presigned upload target for a filename and content type.
type Authorizer interface {
	AuthorizeUpload(ctx context.Context, courseID, filename, contentType string) (*AuthorizeResult, error)
}

// Registrar creates the video record once the bytes are in storage.
type Registrar interface {
	RegisterVideo(ctx context.Context, courseID, title, objectKey string, duration float64) (*models.Video, error)
}

// ProgressFunc observes transfer progress as a 0-100 float. Reports are
// non-decreasing within one transfer.
type ProgressFunc func(pct float64)

// Input describes one upload attempt.
type Input struct {
	CourseID    string
	Title       string
	Filename    string
	ContentType string
	Duration    float64 // seconds, optional
	Body        io.Reader
	Size        int64 // bytes; <= 0 means unknown (progress stays at 0 until done)
}

// Pipeline runs the three steps strictly in order with no cross-step retries: a
// failed step aborts the whole operation. A register failure after a successful
// transfer leaves an orphaned object; cleanup is an ops concern, not retried here.
type Pipeline struct {
	authorizer Authorizer
	registrar  Registrar
	client     *http.Client
	logger     *zap.Logger
}

// NewPipeline creates an upload pipeline. The transfer client carries no timeout:
// arbitrarily large files are the point of the direct-to-storage design.
func NewPipeline(authorizer Authorizer, registrar Registrar, client *http.Client, logger *zap.Logger) *Pipeline {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{authorizer: authorizer, registrar: registrar, client: client, logger: logger}
}

// Run executes authorize, transfer, register. Cancel ctx to abort the transfer;
// the pending operation resolves promptly with a distinct aborted failure.
func (p *Pipeline) Run(ctx context.Context, in Input, onProgress ProgressFunc) (*models.Video, error) {
	target, err := p.authorizer.AuthorizeUpload(ctx, in.CourseID, in.Filename, in.ContentType)
	if err != nil {
		return nil, &Error{Reason: ReasonAuthorizeFailed, Err: err}
	}

	if err := p.transfer(ctx, target, in, onProgress); err != nil {
		return nil, err
	}

	video, err := p.registrar.RegisterVideo(ctx, in.CourseID, in.Title, target.Key, in.Duration)
	if err != nil {
		p.logger.Warn("video register failed after successful transfer, object orphaned",
			zap.String("key", target.Key), zap.Error(err))
		return nil, &Error{Reason: ReasonRegisterFailed, Err: err}
	}
	return video, nil
}

// transfer PUTs the raw bytes directly to the presigned URL. The request bypasses
// the gateway on purpose: the URL carries its own authorization, and the body must
// not be JSON-encoded or given a bearer header.
func (p *Pipeline) transfer(ctx context.Context, target *AuthorizeResult, in Input, onProgress ProgressFunc) error {
	reader := newProgressReader(in.Body, in.Size, onProgress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, reader)
	if err != nil {
		return &Error{Reason: ReasonTransferNetwork, Err: err}
	}
	if in.Size > 0 {
		req.ContentLength = in.Size
	}
	if in.ContentType != "" {
		req.Header.Set("Content-Type", in.ContentType)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return &Error{Reason: ReasonTransferAborted, Err: err}
		}
		return &Error{Reason: ReasonTransferNetwork, CORS: corsLikely(err), Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &Error{Reason: TransferStatusReason(resp.StatusCode)}
	}
	reader.finish()
	return nil
}
