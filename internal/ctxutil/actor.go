// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// AuthorKey is the context key for the author identity.
// Exported so it can be used consistently across packages.
type AuthorKey struct{}

// WithAuthor returns a context with the author identity embedded.
func WithAuthor(ctx context.Context, author string) context.Context {
	return context.WithValue(ctx, AuthorKey{}, author)
}

// AuthorFromContext returns the author from context, or empty string if not set.
func AuthorFromContext(ctx context.Context) string {
	if v := ctx.Value(AuthorKey{}); v != nil {
		return v.(string)
	}
	return ""
}
