package api

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"time"
)

// maxLoggedBody keeps camera-sized or hostile payloads out of the access log.
const maxLoggedBody = 2048

func loggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Log request
			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
			logged := body
			if len(logged) > maxLoggedBody {
				logged = logged[:maxLoggedBody]
			}
			logger.Printf("REQ: %s %s - Body: %s", r.Method, r.URL.Path, string(logged))

			// Capture response
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapper, r)

			// Log response
			logger.Printf("RES: %d - %s %s - %v", wrapper.statusCode, r.Method, r.URL.Path, time.Since(start))
		})
	}
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
