package session

import (
	"context"
)

type tokenCtxKey struct{}

// WithToken returns a context carrying the resolved bearer token. Hydration calls
// this once per request; the gateway's credential resolver reads it back.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext returns the bearer token resolved for this request, or empty.
// Satisfies gateway.CredentialResolver.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenCtxKey{}).(string)
	return t
}
