package cacheinfra

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key is absent or has expired.
	ErrNotFound = errors.New("cache: key not found")

	// ErrNoSession is returned by the session backend when the context
	// carries no session identifier.
	ErrNoSession = errors.New("cache: no session in context")
)

type sessionContextKey struct{}

// WithSession returns a context carrying the caller's session identifier.
func WithSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey{}, sessionID)
}

// SessionFromContext returns the session identifier stored by WithSession.
func SessionFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	sid, ok := ctx.Value(sessionContextKey{}).(string)
	return sid, ok && sid != ""
}
