// Package auth turns bearer credentials into an authenticated Identity.
// The rest of the service treats an Identity as an opaque value compared
// only for equality.
package auth

import "context"

// Identity is the authenticated principal behind a request.
type Identity string

// Anonymous is the zero Identity.
const Anonymous Identity = ""

func (id Identity) IsAnonymous() bool { return id == Anonymous }

func (id Identity) String() string { return string(id) }

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok {
		return id
	}
	return Anonymous
}
