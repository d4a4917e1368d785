package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mentora-learn/gateway/internal/models"
)

type stubAuthorizer struct {
	target *AuthorizeResult
	err    error
	calls  int
}

func (s *stubAuthorizer) AuthorizeUpload(ctx context.Context, courseID, filename, contentType string) (*AuthorizeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.target, nil
}

type stubRegistrar struct {
	video *models.Video
	err   error
	calls int
	key   string
}

func (s *stubRegistrar) RegisterVideo(ctx context.Context, courseID, title, objectKey string, duration float64) (*models.Video, error) {
	s.calls++
	s.key = objectKey
	if s.err != nil {
		return nil, s.err
	}
	return s.video, nil
}

func uploadInput(body string) Input {
	return Input{
		CourseID:    "c1",
		Title:       "Intro",
		Filename:    "intro.mp4",
		ContentType: "video/mp4",
		Body:        strings.NewReader(body),
		Size:        int64(len(body)),
	}
}

func TestPipelineHappyPathOrder(t *testing.T) {
	var gotMethod, gotContentType string
	var gotLen int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotLen = r.ContentLength
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	auth := &stubAuthorizer{target: &AuthorizeResult{UploadURL: srv.URL, Key: "videos/c1/v1.mp4"}}
	reg := &stubRegistrar{video: &models.Video{ID: "v1", ObjectKey: "videos/c1/v1.mp4"}}
	p := NewPipeline(auth, reg, nil, nil)

	video, err := p.Run(context.Background(), uploadInput("0123456789"), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if video.ID != "v1" {
		t.Fatalf("unexpected video: %+v", video)
	}
	if auth.calls != 1 || reg.calls != 1 {
		t.Fatalf("authorize=%d register=%d, want 1/1", auth.calls, reg.calls)
	}
	if reg.key != "videos/c1/v1.mp4" {
		t.Fatalf("registered key = %q, want the authorized key", reg.key)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("transfer method = %s, want PUT", gotMethod)
	}
	if gotContentType != "video/mp4" {
		t.Fatalf("transfer content type = %q", gotContentType)
	}
	if gotLen != 10 {
		t.Fatalf("content length = %d, want 10", gotLen)
	}
}

func TestPipelineAuthorizeFailureSkipsTransfer(t *testing.T) {
	transferred := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transferred = true
	}))
	defer srv.Close()

	auth := &stubAuthorizer{err: fmt.Errorf("backend says no")}
	reg := &stubRegistrar{}
	p := NewPipeline(auth, reg, nil, nil)

	_, err := p.Run(context.Background(), uploadInput("data"), nil)
	var e *Error
	if !errors.As(err, &e) || e.Reason != ReasonAuthorizeFailed {
		t.Fatalf("err = %v, want %s", err, ReasonAuthorizeFailed)
	}
	if transferred {
		t.Fatal("transfer ran after a failed authorize")
	}
	if reg.calls != 0 {
		t.Fatal("register ran after a failed authorize")
	}
}

func TestPipelineTransferStatusFailureSkipsRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	auth := &stubAuthorizer{target: &AuthorizeResult{UploadURL: srv.URL, Key: "k"}}
	reg := &stubRegistrar{}
	p := NewPipeline(auth, reg, nil, nil)

	_, err := p.Run(context.Background(), uploadInput("data"), nil)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v, want pipeline error", err)
	}
	if e.Reason != "transfer failed: 403" {
		t.Fatalf("reason = %q, want transfer failed: 403", e.Reason)
	}
	if reg.calls != 0 {
		t.Fatal("register must not run after a failed transfer")
	}
}

func TestPipelineAbortDistinctFromNetworkFailure(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	auth := &stubAuthorizer{target: &AuthorizeResult{UploadURL: srv.URL, Key: "k"}}
	reg := &stubRegistrar{}
	p := NewPipeline(auth, reg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx, uploadInput("data"), nil)
		done <- err
	}()
	cancel()

	err := <-done
	var e *Error
	if !errors.As(err, &e) || e.Reason != ReasonTransferAborted {
		t.Fatalf("err = %v, want %s", err, ReasonTransferAborted)
	}
	if reg.calls != 0 {
		t.Fatal("register must not run after an aborted transfer")
	}
}

func TestPipelineRegisterFailureReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	auth := &stubAuthorizer{target: &AuthorizeResult{UploadURL: srv.URL, Key: "k"}}
	reg := &stubRegistrar{err: fmt.Errorf("db down")}
	p := NewPipeline(auth, reg, nil, nil)

	_, err := p.Run(context.Background(), uploadInput("data"), nil)
	var e *Error
	if !errors.As(err, &e) || e.Reason != ReasonRegisterFailed {
		t.Fatalf("err = %v, want %s", err, ReasonRegisterFailed)
	}
}

func TestProgressMonotonicBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	auth := &stubAuthorizer{target: &AuthorizeResult{UploadURL: srv.URL, Key: "k"}}
	reg := &stubRegistrar{video: &models.Video{ID: "v1"}}
	p := NewPipeline(auth, reg, nil, nil)

	var reports []float64
	_, err := p.Run(context.Background(), uploadInput(strings.Repeat("x", 1<<16)), func(pct float64) {
		reports = append(reports, pct)
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(reports) == 0 {
		t.Fatal("expected progress reports")
	}
	last := -1.0
	for _, pct := range reports {
		if pct <= last {
			t.Fatalf("progress regressed: %v then %v", last, pct)
		}
		if pct < 0 || pct > 100 {
			t.Fatalf("progress out of bounds: %v", pct)
		}
		last = pct
	}
	if reports[len(reports)-1] != 100 {
		t.Fatalf("final report = %v, want 100", reports[len(reports)-1])
	}
}

func TestProgressUnknownSizeTerminalOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	auth := &stubAuthorizer{target: &AuthorizeResult{UploadURL: srv.URL, Key: "k"}}
	reg := &stubRegistrar{video: &models.Video{ID: "v1"}}
	p := NewPipeline(auth, reg, nil, nil)

	in := uploadInput("data")
	in.Size = 0 // unknown length: no incremental reports possible
	var reports []float64
	if _, err := p.Run(context.Background(), in, func(pct float64) {
		reports = append(reports, pct)
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(reports) != 1 || reports[0] != 100 {
		t.Fatalf("reports = %v, want single terminal 100", reports)
	}
}

func TestCORSClassification(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("request blocked by CORS policy"), true},
		{fmt.Errorf("no Access-Control-Allow-Origin header present"), true},
		{fmt.Errorf("preflight response not ok"), true},
		{fmt.Errorf("connection refused"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := corsLikely(tc.err); got != tc.want {
			t.Errorf("corsLikely(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestUserMessageMapping(t *testing.T) {
	cases := []struct {
		err      error
		contains string
	}{
		{&Error{Reason: ReasonAuthorizeFailed}, "prepare"},
		{&Error{Reason: ReasonTransferAborted}, "cancelled"},
		{&Error{Reason: ReasonTransferNetwork}, "network"},
		{&Error{Reason: ReasonTransferNetwork, CORS: true}, "cross-origin"},
		{&Error{Reason: ReasonRegisterFailed}, "could not be registered"},
		{&Error{Reason: TransferStatusReason(403)}, "403"},
		{fmt.Errorf("plain"), "try again"},
	}
	for _, tc := range cases {
		msg := UserMessage(tc.err)
		if !strings.Contains(msg, tc.contains) {
			t.Errorf("UserMessage(%v) = %q, want substring %q", tc.err, msg, tc.contains)
		}
	}
}
