package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/events"
	"github.com/Aquilass/tcnr01/models"
)

// WishlistService mirrors CartService for the wishlist, with one
// difference: everything is gated on authentication. While anonymous the
// cache stays nil and no fetch is issued. Mutations invalidate rather than
// patch, for the same authoritative-server reason as the cart.
type WishlistService struct {
	api  *clients.APIClient
	auth *AuthService
	log  *zap.Logger

	mu     sync.Mutex
	cached *models.Wishlist
}

func NewWishlistService(api *clients.APIClient, auth *AuthService, bus *events.Bus, log *zap.Logger) *WishlistService {
	s := &WishlistService{
		api:  api,
		auth: auth,
		log:  log,
	}
	bus.Subscribe(events.TopicWishlist, s.Invalidate)
	return s
}

// Wishlist returns the cached wishlist, fetching on a cold cache. It is
// nil with no network activity while unauthenticated.
func (s *WishlistService) Wishlist(ctx context.Context) (*models.Wishlist, error) {
	if !s.auth.IsAuthenticated() {
		return nil, nil
	}

	s.mu.Lock()
	if s.cached != nil {
		wl := s.cached
		s.mu.Unlock()
		return wl, nil
	}
	s.mu.Unlock()

	var wl models.Wishlist
	if err := s.api.Get(ctx, "/wishlist", nil, &wl); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = &wl
	s.mu.Unlock()
	return &wl, nil
}

// AddItem saves a product and drops the cache so the next read refetches.
func (s *WishlistService) AddItem(ctx context.Context, productID string) error {
	req := models.AddWishlistRequest{ProductID: productID}
	if err := s.api.Post(ctx, "/wishlist", &clients.RequestOptions{Body: req}, nil); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

func (s *WishlistService) RemoveItem(ctx context.Context, productID string) error {
	if err := s.api.Delete(ctx, "/wishlist/"+productID, nil, nil); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// IsWishlisted is a pure lookup over the cached wishlist; false when the
// cache is nil.
func (s *WishlistService) IsWishlisted(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		return false
	}
	for _, item := range s.cached.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func (s *WishlistService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
