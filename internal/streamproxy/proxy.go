// Package streamproxy lets a browser video element play a privately stored file
// without long-lived credentials in the URL: the viewer is re-authenticated per
// request and the byte stream is relayed with partial-content semantics intact.
package streamproxy

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentora-learn/gateway/internal/gateway"
	"github.com/mentora-learn/gateway/internal/session"
	"github.com/mentora-learn/gateway/pkg/response"
)

// Proxy relays authenticated range requests to the platform API video endpoint.
type Proxy struct {
	backendBase string
	client      *http.Client
	logger      *zap.Logger
}

// New creates a streaming proxy. The client never follows redirects: streaming
// backends may redirect to signed storage URLs, and blind-following would break
// range semantics.
func New(backendBase string, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{
		backendBase: gateway.NormalizeBase(backendBase),
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Handle serves GET /api/videos/:id/proxy.
func (p *Proxy) Handle(c *gin.Context) {
	token := p.credential(c.Request)
	if token == "" {
		// Do not contact the backend without a credential.
		response.Unauthorized(c, "authentication required")
		return
	}

	videoID := c.Param("id")
	upstreamURL := p.backendBase + "/api/videos/" + videoID + "/stream"

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		response.Internal(c, "failed to build video request")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if rng := c.GetHeader("Range"); rng != "" {
		// Forwarded verbatim; required for seeking.
		req.Header.Set("Range", rng)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("video backend unreachable", zap.String("video_id", videoID), zap.Error(err))
		response.Internal(c, "failed to load video")
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent:
		p.relay(c, resp)
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		// Redirects are surfaced, never followed.
		for _, h := range []string{"Location", "Content-Type"} {
			if v := resp.Header.Get(h); v != "" {
				c.Header(h, v)
			}
		}
		c.Status(resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		response.Status(c, resp.StatusCode, upstreamErrorMessage(body))
	}
}

// relay copies headers and pipes the body straight through; the file is never
// buffered, and the upstream status (200 or 206) is preserved so the browser's
// range retry logic keeps working.
func (p *Proxy) relay(c *gin.Context, resp *http.Response) {
	for _, h := range []string{"Content-Type", "Content-Length", "Content-Range"} {
		if v := resp.Header.Get(h); v != "" {
			c.Header(h, v)
		}
	}
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		// The browser disconnecting mid-stream lands here; let the upstream
		// connection terminate rather than buffering on.
		p.logger.Debug("video stream interrupted", zap.Error(err))
	}
}

// credential resolves the viewer's token: httpOnly cookie first, then the
// Authorization header.
func (p *Proxy) credential(r *http.Request) string {
	if token := session.Token(r); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func upstreamErrorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "video unavailable"
}
