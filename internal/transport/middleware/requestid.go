package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/veedsify/mightyshare-api/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestID tags each request with a trace id, honoring one supplied by
// the caller, and echoes it back on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)
		w.Header().Set(traceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
