package videos

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentora-learn/gateway/internal/gateway"
)

type stubObjectStore struct {
	deleted    []string
	presigned  []string
	deleteErr  error
	presignErr error
}

func (s *stubObjectStore) PresignDownload(ctx context.Context, key string) (string, error) {
	s.presigned = append(s.presigned, key)
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://bucket.example.com/" + key + "?sig=abc", nil
}

func (s *stubObjectStore) DeleteObject(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

func (s *stubObjectStore) PresignExpire() time.Duration { return 15 * time.Minute }

func newVideoRouter(backend *httptest.Server, objects ObjectStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gw := gateway.New(backend.URL, time.Second, nil, nil)
	svc := NewService(gw)
	h := NewHandler(svc, svc, nil, objects, nil)

	router := gin.New()
	router.DELETE("/api/videos/:id", h.Delete)
	router.GET("/api/videos/:id/download", h.Download)
	return router
}

func TestDeleteLocalModeCleansUpObject(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/videos/v1":
			w.Write([]byte(`{"id":"v1","course_id":"c1","title":"intro","object_key":"videos/c1/v1.mp4"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/videos/v1":
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer backend.Close()

	objects := &stubObjectStore{}
	router := newVideoRouter(backend, objects)

	req := httptest.NewRequest(http.MethodDelete, "/api/videos/v1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(objects.deleted) != 1 || objects.deleted[0] != "videos/c1/v1.mp4" {
		t.Fatalf("object cleanup = %v, want the record's key", objects.deleted)
	}
}

func TestDeleteDelegateModeSkipsCleanup(t *testing.T) {
	var gets int
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		w.Write([]byte(`{}`))
	}))
	defer backend.Close()

	router := newVideoRouter(backend, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/videos/v1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gets != 0 {
		t.Fatal("delegate mode must not pre-fetch the record; the API cascades cleanup")
	}
}

func TestDeleteUpstreamFailureSkipsCleanup(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id":"v1","object_key":"videos/c1/v1.mp4"}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"not your course"}`))
		}
	}))
	defer backend.Close()

	objects := &stubObjectStore{}
	router := newVideoRouter(backend, objects)

	req := httptest.NewRequest(http.MethodDelete, "/api/videos/v1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want upstream 403", rec.Code)
	}
	if len(objects.deleted) != 0 {
		t.Fatalf("object deleted although the record survived: %v", objects.deleted)
	}
}

func TestDownloadLocalModePresigns(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"v1","object_key":"videos/c1/v1.mp4"}`))
	}))
	defer backend.Close()

	objects := &stubObjectStore{}
	router := newVideoRouter(backend, objects)

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1/download", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(objects.presigned) != 1 || objects.presigned[0] != "videos/c1/v1.mp4" {
		t.Fatalf("presigned keys = %v", objects.presigned)
	}
	if !strings.Contains(rec.Body.String(), "https://bucket.example.com/videos/c1/v1.mp4") {
		t.Fatalf("body missing signed URL: %s", rec.Body.String())
	}
}

func TestDownloadDelegatesWithoutBucket(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/videos/v1/download" {
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
		w.Write([]byte(`{"download_url":"https://cdn.example.com/v1"}`))
	}))
	defer backend.Close()

	router := newVideoRouter(backend, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1/download", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "https://cdn.example.com/v1") {
		t.Fatalf("upstream URL not relayed: %s", rec.Body.String())
	}
}

func TestDownloadPresignFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"v1","object_key":"videos/c1/v1.mp4"}`))
	}))
	defer backend.Close()

	objects := &stubObjectStore{presignErr: fmt.Errorf("signing key unavailable")}
	router := newVideoRouter(backend, objects)

	req := httptest.NewRequest(http.MethodGet, "/api/videos/v1/download", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
