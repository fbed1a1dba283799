package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/events"
	"github.com/Aquilass/tcnr01/models"
)

// Cart quantities accepted per line item.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// ErrQuantityOutOfRange is returned before any network call when a
// requested quantity falls outside 1..10.
var ErrQuantityOutOfRange = errors.New("quantity must be between 1 and 10")

// CartService keeps the cached cart snapshot in sync with the backend.
// Every successful mutation replaces the whole cached cart with the
// server's returned snapshot; totals are never recomputed locally because
// pricing and stock may have changed concurrently.
//
// Concurrent mutations are not serialized: each resolves independently and
// the last response received overwrites the cache.
type CartService struct {
	api *clients.APIClient
	log *zap.Logger

	mu         sync.Mutex
	cached     *models.Cart
	drawerOpen bool
}

func NewCartService(api *clients.APIClient, bus *events.Bus, log *zap.Logger) *CartService {
	s := &CartService{
		api: api,
		log: log,
	}
	// Identity changes drop the snapshot so stale anonymous data is never
	// shown as the authenticated user's cart.
	bus.Subscribe(events.TopicCart, s.Invalidate)
	return s
}

// Cart returns the cached snapshot, fetching it when the cache is empty.
func (s *CartService) Cart(ctx context.Context) (*models.Cart, error) {
	s.mu.Lock()
	if s.cached != nil {
		cart := s.cached
		s.mu.Unlock()
		return cart, nil
	}
	s.mu.Unlock()

	var cart models.Cart
	if err := s.api.Get(ctx, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	s.commit(&cart)
	return &cart, nil
}

// AddItem adds a line to the cart. A zero quantity defaults to one. On
// success the drawer flag is raised as a presentation signal.
func (s *CartService) AddItem(ctx context.Context, req models.AddToCartRequest) (*models.Cart, error) {
	if req.Quantity == 0 {
		req.Quantity = MinQuantity
	}
	if req.Quantity < MinQuantity || req.Quantity > MaxQuantity {
		return nil, ErrQuantityOutOfRange
	}

	var cart models.Cart
	if err := s.api.Post(ctx, "/cart/items", &clients.RequestOptions{Body: req}, &cart); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = &cart
	s.drawerOpen = true
	s.mu.Unlock()
	return &cart, nil
}

// UpdateItem changes a line's quantity. Out-of-range quantities are
// rejected locally without a network call, leaving the cache untouched.
func (s *CartService) UpdateItem(ctx context.Context, itemID string, quantity int) (*models.Cart, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return nil, ErrQuantityOutOfRange
	}

	req := models.UpdateCartItemRequest{Quantity: quantity}
	var cart models.Cart
	if err := s.api.Put(ctx, "/cart/items/"+itemID, &clients.RequestOptions{Body: req}, &cart); err != nil {
		return nil, err
	}
	s.commit(&cart)
	return &cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, itemID string) (*models.Cart, error) {
	var cart models.Cart
	if err := s.api.Delete(ctx, "/cart/items/"+itemID, nil, &cart); err != nil {
		return nil, err
	}
	s.commit(&cart)
	return &cart, nil
}

func (s *CartService) Clear(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	if err := s.api.Delete(ctx, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	s.commit(&cart)
	return &cart, nil
}

// Invalidate drops the cached snapshot; the next read refetches.
func (s *CartService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// DrawerOpen reports the transient cart-drawer flag raised by a
// successful AddItem.
func (s *CartService) DrawerOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawerOpen
}

func (s *CartService) CloseDrawer() {
	s.mu.Lock()
	s.drawerOpen = false
	s.mu.Unlock()
}

func (s *CartService) commit(cart *models.Cart) {
	s.mu.Lock()
	s.cached = cart
	s.mu.Unlock()
}
