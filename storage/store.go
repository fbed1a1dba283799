package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key-value contract for client state. The session
// identifier and the token pair are the only values the storefront
// persists, each under its own key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// WithPrefix returns a view of s that namespaces every key. The session
// registry uses it to give each browser session its own slice of a shared
// backend.
func WithPrefix(s Store, prefix string) Store {
	return &prefixStore{inner: s, prefix: prefix}
}

type prefixStore struct {
	inner  Store
	prefix string
}

func (p *prefixStore) key(k string) string {
	return p.prefix + ":" + k
}

func (p *prefixStore) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.key(key))
}

func (p *prefixStore) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.key(key), value)
}

func (p *prefixStore) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.key(key))
}
