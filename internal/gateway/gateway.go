// Package gateway is the only code path that calls the platform API. Every call is
// authorized when a credential can be resolved, and every call returns a uniform
// result instead of an error: transport failures, malformed payloads and upstream
// error statuses are all folded into the Result.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GenericErrorMessage is the user-facing text for failures without an upstream message.
const GenericErrorMessage = "something went wrong, please try again"

// CredentialResolver returns the bearer token for an outbound call, or empty when
// the call should go out unauthenticated. Injected at construction; the gateway
// never reaches into globals for credentials.
type CredentialResolver func(ctx context.Context) string

// Result is the uniform outcome of a gateway call. Error is true for transport
// failures and non-2xx statuses alike; Status is 500 for network-level failures.
type Result struct {
	Status  int
	Data    json.RawMessage
	Error   bool
	Message string
	Header  http.Header
}

// Decode unmarshals the result payload into v.
func (r *Result) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(r.Data, v)
}

// Gateway issues authenticated requests against the platform API.
type Gateway struct {
	baseURL     string
	client      *http.Client
	credentials CredentialResolver
	logger      *zap.Logger
}

// New creates a gateway. baseURL may carry a trailing slash or an /api suffix; both
// are normalized away so composition stays idempotent.
func New(baseURL string, timeout time.Duration, credentials CredentialResolver, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if credentials == nil {
		credentials = func(context.Context) string { return "" }
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
		credentials: credentials,
		logger:      logger,
	}
}

// NormalizeBase strips trailing slashes and a trailing /api segment from a base URL.
func NormalizeBase(base string) string {
	base = strings.TrimSpace(base)
	for strings.HasSuffix(base, "/") {
		base = strings.TrimSuffix(base, "/")
	}
	if strings.HasSuffix(base, "/api") {
		base = strings.TrimSuffix(base, "/api")
	}
	return base
}

// JoinAPIPath composes base + /api + resource path exactly once, regardless of
// whether either side already carries the prefix or slashes. Composing an already
// composed path yields the same URL.
func JoinAPIPath(base, resource string) string {
	base = NormalizeBase(base)
	p := strings.TrimSpace(resource)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/api" && !strings.HasPrefix(p, "/api/") {
		p = "/api" + p
	}
	return base + p
}

// URL returns the absolute URL for a resource path.
func (g *Gateway) URL(resource string) string {
	return JoinAPIPath(g.baseURL, resource)
}

// Do issues a request and folds every outcome into a Result. body rules: nil means
// no body; []byte and io.Reader are sent raw with no content-type (the transport
// decides); anything else is JSON-encoded with an application/json content-type.
// Caller-supplied headers always win over computed defaults.
func (g *Gateway) Do(ctx context.Context, method, resource string, body interface{}, headers map[string]string) *Result {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return &Result{Status: http.StatusInternalServerError, Error: true, Message: GenericErrorMessage}
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}

	url := g.URL(resource)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &Result{Status: http.StatusInternalServerError, Error: true, Message: GenericErrorMessage}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := g.credentials(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("platform api unreachable", zap.String("url", url), zap.Error(err))
		return &Result{Status: http.StatusInternalServerError, Error: true, Message: GenericErrorMessage}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{Status: http.StatusInternalServerError, Error: true, Message: GenericErrorMessage, Header: resp.Header}
	}

	res := &Result{Status: resp.StatusCode, Header: resp.Header}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Error payloads only feed the message; Data stays nil on error results.
		res.Error = true
		res.Message = upstreamMessage(payload)
		return res
	}
	if json.Valid(payload) {
		res.Data = payload
	}
	return res
}

// Get issues a GET request.
func (g *Gateway) Get(ctx context.Context, resource string) *Result {
	return g.Do(ctx, http.MethodGet, resource, nil, nil)
}

// Post issues a POST request with a JSON body.
func (g *Gateway) Post(ctx context.Context, resource string, body interface{}) *Result {
	return g.Do(ctx, http.MethodPost, resource, body, nil)
}

// Put issues a PUT request with a JSON body.
func (g *Gateway) Put(ctx context.Context, resource string, body interface{}) *Result {
	return g.Do(ctx, http.MethodPut, resource, body, nil)
}

// Delete issues a DELETE request.
func (g *Gateway) Delete(ctx context.Context, resource string) *Result {
	return g.Do(ctx, http.MethodDelete, resource, nil, nil)
}

// upstreamMessage pulls a user-facing message out of an error payload: the platform
// API answers {"message": ...} or the envelope {"error": ...}.
func upstreamMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return GenericErrorMessage
}
