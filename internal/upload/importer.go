package upload

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/mentora-learn/gateway/pkg/storage"
)

// ProgressBroadcaster fans import progress out to watching clients.
type ProgressBroadcaster interface {
	BroadcastProgress(uploadID string, pct float64)
	BroadcastStatus(uploadID, status, message string)
}

// ImportJob pulls a remote video into storage server-side.
type ImportJob struct {
	UploadID  string
	CourseID  string
	Title     string
	SourceURL string
}

// Importer streams remote videos into the bucket in-process. When a direct S3
// client is configured the multipart uploader is used (handles unknown content
// length); otherwise the job runs through the presigned pipeline.
type Importer struct {
	jobs     chan ImportJob
	pipeline *Pipeline
	store    *storage.S3 // optional
	reg      Registrar
	hub      ProgressBroadcaster
	client   *http.Client
	logger   *zap.Logger
}

// NewImporter creates an importer with a bounded job queue.
func NewImporter(pipeline *Pipeline, store *storage.S3, reg Registrar, hub ProgressBroadcaster, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		jobs:     make(chan ImportJob, 64),
		pipeline: pipeline,
		store:    store,
		reg:      reg,
		hub:      hub,
		client:   &http.Client{},
		logger:   logger,
	}
}

// Enqueue submits a job; fails fast when the queue is full rather than blocking
// the request handler.
func (imp *Importer) Enqueue(job ImportJob) error {
	select {
	case imp.jobs <- job:
		return nil
	default:
		return fmt.Errorf("import queue full")
	}
}

// Run processes jobs until ctx is done.
func (imp *Importer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			imp.logger.Info("import worker stopping")
			return
		case job := <-imp.jobs:
			start := time.Now()
			if err := imp.process(ctx, job); err != nil {
				imp.logger.Error("import failed", zap.String("upload_id", job.UploadID), zap.Error(err))
				imp.hub.BroadcastStatus(job.UploadID, "failed", UserMessage(err))
				continue
			}
			imp.logger.Info("import completed",
				zap.String("upload_id", job.UploadID),
				zap.Duration("took", time.Since(start)))
			imp.hub.BroadcastStatus(job.UploadID, "completed", "")
		}
	}
}

func (imp *Importer) process(ctx context.Context, job ImportJob) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.SourceURL, nil)
	if err != nil {
		return &Error{Reason: ReasonTransferNetwork, Err: err}
	}
	resp, err := imp.client.Do(req)
	if err != nil {
		return &Error{Reason: ReasonTransferNetwork, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Error{Reason: TransferStatusReason(resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	filename := sourceFilename(job.SourceURL)
	onProgress := func(pct float64) { imp.hub.BroadcastProgress(job.UploadID, pct) }

	if imp.store != nil {
		key := storage.VideoKey(job.CourseID, job.UploadID, filename)
		reader := newProgressReader(resp.Body, resp.ContentLength, onProgress)
		if err := imp.store.Upload(ctx, key, contentType, reader, resp.ContentLength); err != nil {
			return &Error{Reason: ReasonTransferNetwork, Err: err}
		}
		reader.finish()
		if _, err := imp.reg.RegisterVideo(ctx, job.CourseID, job.Title, key, 0); err != nil {
			return &Error{Reason: ReasonRegisterFailed, Err: err}
		}
		return nil
	}

	_, err = imp.pipeline.Run(ctx, Input{
		CourseID:    job.CourseID,
		Title:       job.Title,
		Filename:    filename,
		ContentType: contentType,
		Body:        resp.Body,
		Size:        resp.ContentLength,
	}, onProgress)
	return err
}

func sourceFilename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "import.mp4"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return "import.mp4"
	}
	return base
}
