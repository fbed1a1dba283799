package session

import (
	"context"
	"encoding/json"

	"github.com/Aquilass/tcnr01/models"
	"github.com/Aquilass/tcnr01/storage"
)

// TokenStore is the single source of truth for the token pair. Nothing
// else caches tokens beyond the lifetime of one request's headers.
type TokenStore struct {
	store storage.Store
}

func NewTokenStore(store storage.Store) *TokenStore {
	return &TokenStore{store: store}
}

// Save overwrites the persisted pair in a single write.
func (t *TokenStore) Save(ctx context.Context, pair models.TokenPair) error {
	raw, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	return t.store.Set(ctx, tokensKey, string(raw))
}

// Clear removes the persisted pair. Clearing an empty store is a no-op.
func (t *TokenStore) Clear(ctx context.Context) error {
	return t.store.Delete(ctx, tokensKey)
}

// AccessToken returns the stored access token, or "" when no pair is
// stored or the persisted data is malformed.
func (t *TokenStore) AccessToken(ctx context.Context) string {
	if pair := t.pair(ctx); pair != nil {
		return pair.AccessToken
	}
	return ""
}

// RefreshToken returns the stored refresh token, or "" on absence or
// malformed data. It is only ever sent to the refresh endpoint.
func (t *TokenStore) RefreshToken(ctx context.Context) string {
	if pair := t.pair(ctx); pair != nil {
		return pair.RefreshToken
	}
	return ""
}

func (t *TokenStore) pair(ctx context.Context) *models.TokenPair {
	raw, err := t.store.Get(ctx, tokensKey)
	if err != nil {
		return nil
	}
	var pair models.TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		// Malformed persisted data is treated as absence, never an error.
		return nil
	}
	return &pair
}
