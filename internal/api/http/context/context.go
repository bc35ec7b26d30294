// Package context carries the resolved request identity on the request
// context, replacing any ambient per-request state.
package context

import (
	"context"

	"github.com/dtroode/authgate-server/internal/model"
)

type identityKey struct{}

// Manager implements model.ContextManager over context values.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a child context carrying the identity.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext retrieves the identity stored by
// SetIdentityToContext, reporting whether one was present.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	return identity, ok
}
