package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/tenant-access-gate/clerk"
)

// Context key type to avoid collisions
type contextKey string

const (
	// SessionKey is the context key for the verified session
	SessionKey contextKey = "session"
)

// GetRequestIDFromContext retrieves the request ID assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetSessionFromContext retrieves the verified session, or nil when the request is anonymous
func GetSessionFromContext(ctx context.Context) *clerk.SessionClaims {
	if val := ctx.Value(SessionKey); val != nil {
		if session, ok := val.(*clerk.SessionClaims); ok {
			return session
		}
	}
	return nil
}

// WithSession adds a verified session to the context
func WithSession(ctx context.Context, session *clerk.SessionClaims) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}
