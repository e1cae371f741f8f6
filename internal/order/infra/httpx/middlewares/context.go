// Package middlewares carries the HTTP middleware for the order service.
package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Header names recognised on incoming requests.
const (
	HeaderRequestID      = "x-request-id"
	HeaderIdempotencyKey = "x-idempotency-key"
)

// contextKey is unexported so keys cannot collide with other packages.
type contextKey string

const (
	ctxKeyRequestID      contextKey = HeaderRequestID
	ctxKeyIdempotencyKey contextKey = HeaderIdempotencyKey
)

// AttachRequestContext copies the chi request id and the caller's
// idempotency key into the request context under typed keys.
func AttachRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, middleware.GetReqID(r.Context()))
		ctx = context.WithValue(ctx, ctxKeyIdempotencyKey, r.Header.Get(HeaderIdempotencyKey))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request id stored by AttachRequestContext.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// IdempotencyKey returns the idempotency key stored by AttachRequestContext.
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(ctxKeyIdempotencyKey).(string)
	return key
}
