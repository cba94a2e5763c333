// Package middleware provides HTTP middleware for the research API.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Strob0t/professor/internal/logger"
)

// HeaderRequestID carries the correlation id on requests, responses and queue messages.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID takes X-Request-ID from the request or generates one, stores it
// in the context for logging, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = NewRequestID()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewRequestID returns a 16-byte random hex string (32 chars).
func NewRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
