package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/moodify/internal/shared"
	tu "github.com/desertthunder/moodify/internal/testing"
	"golang.org/x/time/rate"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient, nil)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil, nil)

			if srv.baseURL != "http://127.0.0.1:8000" {
				t.Errorf("expected default baseURL, got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response to be decoded")
			}
		})

		t.Run("Successful Request With Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("expected body 'plain text response', got %s", string(resp.Body))
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil, nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid")

			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}

			srv := NewAPIService("http://example.com", client, nil)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			srv := NewAPIService("http://example.com", client, nil)
			_, err := srv.Get(context.Background(), "/test")

			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("Deadline Exceeded", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			}))
			defer server.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			srv := NewAPIService(server.URL, nil, nil)
			_, err := srv.Get(ctx, "/slow")

			if !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrTimeout, got %v", err)
			}
		})
	})

	t.Run("Post and Put", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut} {
			t.Run(method, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.Method != method {
						t.Errorf("expected %s method, got %s", method, r.Method)
					}
					if r.Header.Get("Content-Type") != "application/json" {
						t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
					}

					body, _ := io.ReadAll(r.Body)
					var data map[string]string
					if err := json.Unmarshal(body, &data); err != nil {
						t.Errorf("failed to unmarshal request body: %v", err)
					}
					if data["test"] != "data" {
						t.Errorf("expected request data 'test:data', got %v", data)
					}

					w.WriteHeader(http.StatusCreated)
					json.NewEncoder(w).Encode(map[string]string{"id": "123"})
				}))
				defer server.Close()

				srv := NewAPIService(server.URL, nil, nil)
				requestData, _ := json.Marshal(map[string]string{"test": "data"})

				var resp *APIResponse
				var err error
				if method == http.MethodPost {
					resp, err = srv.Post(context.Background(), "/test", requestData)
				} else {
					resp, err = srv.Put(context.Background(), "/test", requestData)
				}

				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if resp.StatusCode != http.StatusCreated {
					t.Errorf("expected status 201, got %d", resp.StatusCode)
				}
			})
		}
	})

	t.Run("Upload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				t.Errorf("expected multipart content type, got %s", r.Header.Get("Content-Type"))
			}

			f, hdr, err := r.FormFile("audio_file")
			if err != nil {
				t.Errorf("FormFile() error = %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer f.Close()

			body, _ := io.ReadAll(f)
			if hdr.Filename != "recording.wav" || string(body) != "RIFF" {
				t.Errorf("unexpected part %s: %q", hdr.Filename, body)
			}
			if hdr.Header.Get("Content-Type") != "audio/wav" {
				t.Errorf("expected part type audio/wav, got %s", hdr.Header.Get("Content-Type"))
			}
			w.Write([]byte(`{"emotion": "happy"}`))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, nil)
		resp, err := srv.Upload(context.Background(), "/upload", "audio_file", "recording.wav", "audio/wav", strings.NewReader("RIFF"))

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !resp.OK() {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
		srv := NewAPIService(server.URL, nil, limiter)

		if _, err := srv.Get(context.Background(), "/first"); err != nil {
			t.Fatalf("first request error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := srv.Get(ctx, "/second"); err == nil {
			t.Error("expected the limiter to reject a request it cannot admit before the deadline")
		}
	})
}

func TestAPIResponseErrorMessage(t *testing.T) {
	tc := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "error field", status: 400, body: `{"error": "No audio file provided"}`, want: "No audio file provided"},
		{name: "detail field", status: 401, body: `{"detail": "Given token not valid"}`, want: "Given token not valid"},
		{name: "field errors", status: 400, body: `{"username": ["already exists"], "email": ["invalid"]}`, want: "email: invalid; username: already exists"},
		{name: "plain text", status: 502, body: "Bad Gateway from proxy", want: "Bad Gateway from proxy"},
		{name: "empty", status: 500, body: "", want: "Internal Server Error"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			resp := &APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
			var data any
			if err := json.Unmarshal(resp.Body, &data); err == nil {
				resp.IsJSON = true
				resp.JSONData = data
			}

			if got := resp.ErrorMessage(); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
