// Package shield provides reusable HTTP middleware for the lector API:
// security headers, request body limits, request tracing, rate limiting,
// and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxBody(64 << 20))
//	r.Use(shield.TraceID)
//
// Or apply the default stack in one call:
//
//	for _, mw := range shield.DefaultStack(64 << 20) {
//	    r.Use(mw)
//	}
//
// Rate limiting is not part of the default stack; it is applied per route
// on expensive endpoints:
//
//	rl := shield.NewRateLimiter(10, time.Minute)
//	r.With(rl.Middleware).Post("/api/audiobooks", handler)
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// DefaultStack returns the standard middleware stack for the lector API.
// Middleware is ordered: HeadToGet → SecurityHeaders → MaxBody → TraceID.
// maxBody bounds the request body size; document uploads arrive as
// multipart bodies, so the limit must cover the largest accepted document
// plus form overhead.
func DefaultStack(maxBody int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(maxBody),
		TraceID,
	}
}
