package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware tags each request with an id and logs one line per
// request. An X-Request-ID sent by the caller is kept, otherwise one is
// generated and echoed back.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		duration := time.Since(start)
		shopID := r.Header.Get("X-Shop-ID")
		if shopID == "" {
			shopID = r.URL.Query().Get("shop_id")
		}
		log.Printf("request id=%s method=%s path=%s status=%d duration_ms=%d shop=%s", requestID, r.Method, r.URL.Path, writer.status, duration.Milliseconds(), shopID)
	})
}
