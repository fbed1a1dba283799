// Package session owns the durable client identity: the anonymous session
// identifier and the access/refresh token pair.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Aquilass/tcnr01/storage"
)

// Storage keys, one per persisted value.
const (
	sessionIDKey = "tcnr01_session_id"
	tokensKey    = "tcnr01_auth_tokens"
)

// Provider hands out the session identifier that scopes anonymous carts.
// The identifier is generated once and never rotated; it changes only when
// the backing store is cleared.
type Provider struct {
	store storage.Store
}

func NewProvider(store storage.Store) *Provider {
	return &Provider{store: store}
}

// SessionID returns the stored identifier, generating and persisting a new
// UUID on first use.
func (p *Provider) SessionID(ctx context.Context) (string, error) {
	id, err := p.store.Get(ctx, sessionIDKey)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := p.store.Set(ctx, sessionIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}

// Adopt seeds the provider with an identifier minted elsewhere (the BFF
// edge issues it as a cookie). A previously stored identifier wins.
func (p *Provider) Adopt(ctx context.Context, id string) error {
	_, err := p.store.Get(ctx, sessionIDKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return p.store.Set(ctx, sessionIDKey, id)
}
