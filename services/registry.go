package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/events"
	"github.com/Aquilass/tcnr01/session"
	"github.com/Aquilass/tcnr01/storage"
)

// Bundle is the full manager set serving one browser session.
type Bundle struct {
	Provider *session.Provider
	Tokens   *session.TokenStore
	API      *clients.APIClient
	Bus      *events.Bus
	Auth     *AuthService
	Cart     *CartService
	Wishlist *WishlistService
	Products *ProductService
	Orders   *OrderService

	lastSeen time.Time
}

// Registry maps session identifiers to manager bundles. Each bundle works
// over a session-prefixed view of the shared store, so browser sessions
// cannot see each other's tokens. Idle bundles are evicted after the TTL;
// their durable state stays in the store and is rehydrated on return.
type Registry struct {
	store   storage.Store
	baseURL string
	timeout time.Duration
	ttl     time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	bundles map[string]*Bundle
}

func NewRegistry(store storage.Store, baseURL string, timeout, ttl time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		store:   store,
		baseURL: baseURL,
		timeout: timeout,
		ttl:     ttl,
		log:     log,
		bundles: make(map[string]*Bundle),
	}
}

// Get returns the bundle for sessionID, building it on first sight.
func (r *Registry) Get(ctx context.Context, sessionID string) *Bundle {
	r.mu.Lock()
	if b, ok := r.bundles[sessionID]; ok {
		b.lastSeen = time.Now()
		r.mu.Unlock()
		return b
	}
	r.mu.Unlock()

	b := r.build(ctx, sessionID)

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have built the bundle meanwhile; keep the first.
	if existing, ok := r.bundles[sessionID]; ok {
		existing.lastSeen = time.Now()
		return existing
	}
	b.lastSeen = time.Now()
	r.bundles[sessionID] = b
	return b
}

func (r *Registry) build(ctx context.Context, sessionID string) *Bundle {
	scoped := storage.WithPrefix(r.store, sessionID)

	provider := session.NewProvider(scoped)
	if err := provider.Adopt(ctx, sessionID); err != nil {
		r.log.Warn("failed to persist session id", zap.Error(err))
	}
	tokens := session.NewTokenStore(scoped)
	api := clients.NewAPIClient(r.baseURL, r.timeout, provider, tokens, r.log)
	bus := events.NewBus()

	auth := NewAuthService(api, tokens, bus, r.log)
	auth.Bootstrap(ctx)

	return &Bundle{
		Provider: provider,
		Tokens:   tokens,
		API:      api,
		Bus:      bus,
		Auth:     auth,
		Cart:     NewCartService(api, bus, r.log),
		Wishlist: NewWishlistService(api, auth, bus, r.log),
		Products: NewProductService(api),
		Orders:   NewOrderService(api),
	}
}

// Sweep evicts bundles idle past the TTL until ctx is done.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.bundles {
		if b.lastSeen.Before(cutoff) {
			delete(r.bundles, id)
		}
	}
}

// Len reports the number of live bundles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bundles)
}
