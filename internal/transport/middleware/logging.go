package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// maxLoggedBody caps how much of a request or response body ends up in
// the log line. Bodies past the cap are truncated, not dropped.
const maxLoggedBody = 4 << 10

// redactedFields are substrings of header and JSON field names whose
// values must never reach the logs.
var redactedFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"api_key",
	"credential",
	"session",
	"auth",
}

func isRedacted(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range redactedFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// LoggingMiddleware logs every request and its response with sensitive
// values masked. Responses at 4xx log as warnings, 5xx as errors.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			logger.Info("request received",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", maskHeaders(r.Header),
				"body", captureRequestBody(r),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "request completed",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.written,
				"body", maskBody(rec.body.Bytes()),
			)
		})
	}
}

// statusRecorder remembers the status code and mirrors the response body
// for logging.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
	body    bytes.Buffer
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.body.Len() < maxLoggedBody {
		s.body.Write(b[:min(len(b), maxLoggedBody-s.body.Len())])
	}
	n, err := s.ResponseWriter.Write(b)
	s.written += n
	return n, err
}

// captureRequestBody reads the body for logging and restores it so the
// handler still sees the full stream.
func captureRequestBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return maskBody(raw)
}

func maskHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for name, values := range headers {
		if isRedacted(name) {
			masked[name] = "[REDACTED]"
			continue
		}
		masked[name] = strings.Join(values, ", ")
	}
	return masked
}

// maskBody redacts sensitive JSON fields. Non-JSON bodies are logged
// as-is unless they appear to contain sensitive material.
func maskBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if len(raw) > maxLoggedBody {
		raw = raw[:maxLoggedBody]
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if isRedacted(string(raw)) {
			return "[REDACTED]"
		}
		return string(raw)
	}

	masked, err := json.Marshal(maskValue(decoded))
	if err != nil {
		return "[REDACTED]"
	}
	return string(masked)
}

func maskValue(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isRedacted(key) {
				out[key] = "[REDACTED]"
				continue
			}
			out[key] = maskValue(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskValue(item)
		}
		return out
	default:
		return v
	}
}
