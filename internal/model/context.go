package model

import "context"

// Identity is the resolved acting user and session for one request. It is
// threaded through calls explicitly via the request context instead of
// being read from any ambient state.
type Identity struct {
	User    User
	Session Session
}

// ContextManager stores and retrieves the request identity on a context.
type ContextManager interface {
	SetIdentityToContext(ctx context.Context, identity Identity) context.Context
	GetIdentityFromContext(ctx context.Context) (Identity, bool)
}
