package auth

import "context"

// Principal identifies the admin user acting on a request. It is injected at
// the request boundary, never hard-coded inside a workflow.
type Principal struct {
	UserID string
}

type ctxKey struct{}

// Anonymous is recorded when the boundary supplied no identity.
const Anonymous = "anonymous"

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext extracts the principal, falling back to Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(ctxKey{}).(Principal); ok && p.UserID != "" {
		return p
	}
	return Principal{UserID: Anonymous}
}
