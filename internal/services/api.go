// API transport for raw HTTP requests to the Moodify backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strings"

	"github.com/desertthunder/moodify/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:8000"

// APIService performs raw HTTP requests against the backend, throttled by an optional [rate.Limiter].
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates a new API service. A nil limiter disables throttling.
func NewAPIService(baseURL string, client *http.Client, limiter *rate.Limiter) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    limiter,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorMessage extracts a human readable error from the response body.
//
// It looks at "error", "detail" and "message" in turn, then falls back to field validation errors.
func (r *APIResponse) ErrorMessage() string {
	obj, ok := r.JSONData.(map[string]any)
	if !ok {
		if s := strings.TrimSpace(string(r.Body)); s != "" && len(s) < 200 && !r.IsJSON {
			return s
		}
		return http.StatusText(r.StatusCode)
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}

	var parts []string
	for field, v := range obj {
		switch msgs := v.(type) {
		case []any:
			for _, m := range msgs {
				parts = append(parts, fmt.Sprintf("%s: %v", field, m))
			}
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", field, msgs))
		}
	}
	if len(parts) > 0 {
		slices.Sort(parts)
		return strings.Join(parts, "; ")
	}
	return http.StatusText(r.StatusCode)
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return a.do(req)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.sendJSON(ctx, http.MethodPost, path, data)
}

// Put performs a PUT request with the given JSON data and returns the raw response.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.sendJSON(ctx, http.MethodPut, path, data)
}

// Upload sends a single file as multipart/form-data under field.
func (a *APIService) Upload(ctx context.Context, path, field, filename, contentType string, r io.Reader) (*APIResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req)
}

func (a *APIService) sendJSON(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *APIService) do(req *http.Request) (*APIResponse, error) {
	ctx := req.Context()
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, wrapContextErr(ctx, err)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, wrapContextErr(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func wrapContextErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return fmt.Errorf("request failed: %w", err)
}
