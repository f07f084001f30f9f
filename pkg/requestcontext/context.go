// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// Middleware sets the values; handlers and services read them:
//
//	requestID := requestcontext.RequestID(ctx)
//	sessionID := requestcontext.SessionID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "residency/pkg/domain"
)

type (
	requestIDKey   struct{}
	clientIPKey    struct{}
	sessionIDKey   struct{}
	requestTimeKey struct{}
)

// RequestID returns the request ID, or "" when unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientIP returns the client IP, or "" when unset.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientIP injects the client IP into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// SessionID returns the applicant session authenticated by the resume token.
// Returns the zero value if not set.
func SessionID(ctx context.Context) id.SessionID {
	if v, ok := ctx.Value(sessionIDKey{}).(id.SessionID); ok {
		return v
	}
	return id.SessionID{}
}

// WithSessionID injects the authenticated applicant session.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// Now returns the request time if one was injected, else time.Now().
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}

// WithTime pins the request time. Tests use it to control clocks.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
