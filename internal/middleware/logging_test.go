package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// captureLog redirects the default logger to a JSON buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		handler   http.HandlerFunc
		wantCode  int
		wantLevel string
		wantBytes float64
	}{
		{
			name:   "implicit 200 from Write",
			method: http.MethodGet,
			path:   "/blog",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("hello"))
			},
			wantCode: http.StatusOK, wantLevel: "INFO", wantBytes: 5,
		},
		{
			name:   "created",
			method: http.MethodPost,
			path:   "/admin/images",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			wantCode: http.StatusCreated, wantLevel: "INFO",
		},
		{
			name:   "client error",
			method: http.MethodGet,
			path:   "/blog/missing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantCode: http.StatusNotFound, wantLevel: "WARN", wantBytes: 19,
		},
		{
			name:   "server error",
			method: http.MethodPost,
			path:   "/admin/blog",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.WriteHeader(http.StatusOK) // ignored
			},
			wantCode: http.StatusServiceUnavailable, wantLevel: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			rr := httptest.NewRecorder()
			Logger(tt.handler).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			entry := decodeLogLine(t, buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("level: got %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.wantCode) {
				t.Errorf("logged status: got %v, want %d", entry["status"], tt.wantCode)
			}
			if entry["method"] != tt.method || entry["path"] != tt.path {
				t.Errorf("request: got %v %v", entry["method"], entry["path"])
			}
			if entry["bytes"] != tt.wantBytes {
				t.Errorf("bytes: got %v, want %v", entry["bytes"], tt.wantBytes)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"forwarded by proxy", "edge-1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromCtx(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if seen == "" {
				t.Fatal("request ID missing from context")
			}
			if tt.incoming != "" && seen != tt.incoming {
				t.Errorf("request ID: got %q, want %q", seen, tt.incoming)
			}
			if got := rr.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("header: got %q, want %q", got, seen)
			}
		})
	}
}

func TestLoggerIncludesRequestID(t *testing.T) {
	buf := captureLog(t)
	h := RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := decodeLogLine(t, buf)["request_id"]; got != "req-42" {
		t.Errorf("request_id: got %v, want req-42", got)
	}
}

func TestRequestIDFromEmptyCtx(t *testing.T) {
	if got := RequestIDFromCtx(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
