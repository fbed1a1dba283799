package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/events"
	"github.com/Aquilass/tcnr01/models"
	"github.com/Aquilass/tcnr01/services"
	"github.com/Aquilass/tcnr01/session"
	"github.com/Aquilass/tcnr01/storage"
)

// cartUpstream counts requests and always answers with the snapshot it is
// holding, letting tests assert the cache mirrors the server exactly.
type cartUpstream struct {
	srv      *httptest.Server
	requests int32
	snapshot atomic.Value // models.Cart
}

func newCartUpstream(t *testing.T) *cartUpstream {
	t.Helper()
	u := &cartUpstream{}
	u.snapshot.Store(models.Cart{ID: "cart-1", Items: []models.CartItem{}})

	mux := http.NewServeMux()
	serve := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.requests, 1)
		writeJSON(w, http.StatusOK, u.snapshot.Load().(models.Cart))
	}
	mux.HandleFunc("/cart", serve)
	mux.HandleFunc("/cart/items", serve)
	mux.HandleFunc("/cart/items/", serve)
	u.srv = httptest.NewServer(mux)
	return u
}

func (u *cartUpstream) calls() int32 {
	return atomic.LoadInt32(&u.requests)
}

func newCartService(t *testing.T, upstreamURL string) (*services.CartService, *events.Bus) {
	t.Helper()
	store := storage.NewMemoryStore()
	api := clients.NewAPIClient(upstreamURL, 5*time.Second, session.NewProvider(store), session.NewTokenStore(store), zap.NewNop())
	bus := events.NewBus()
	return services.NewCartService(api, bus, zap.NewNop()), bus
}

func TestCartCacheEqualsServerSnapshotAfterEachMutation(t *testing.T) {
	u := newCartUpstream(t)
	defer u.srv.Close()

	cart, _ := newCartService(t, u.srv.URL)
	ctx := context.Background()

	// The server computes totals; the client must adopt them verbatim,
	// even when they do not match local arithmetic.
	u.snapshot.Store(models.Cart{
		ID:        "cart-1",
		Items:     []models.CartItem{{ID: "li-1", ProductID: "p1", Quantity: 2, Price: 10}},
		ItemCount: 2,
		Subtotal:  15, // discounted server-side
	})

	got, err := cart.AddItem(ctx, models.AddToCartRequest{ProductID: "p1", ColorID: "c1", SizeID: "s1", Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, float64(15), got.Subtotal)
	assert.Equal(t, 2, got.ItemCount)

	// The cached copy serves the next read without a network call.
	before := u.calls()
	cached, err := cart.Cart(ctx)
	assert.NoError(t, err)
	assert.Equal(t, got, cached)
	assert.Equal(t, before, u.calls())

	u.snapshot.Store(models.Cart{ID: "cart-1", Items: []models.CartItem{}, ItemCount: 0, Subtotal: 0})
	got, err = cart.RemoveItem(ctx, "li-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, got.ItemCount)

	cached, _ = cart.Cart(ctx)
	assert.Equal(t, got, cached)
}

func TestUpdateItemOutOfRangeIssuesNoNetworkCall(t *testing.T) {
	u := newCartUpstream(t)
	defer u.srv.Close()

	cart, _ := newCartService(t, u.srv.URL)
	ctx := context.Background()

	// Warm the cache.
	warm, err := cart.Cart(ctx)
	assert.NoError(t, err)
	before := u.calls()

	for _, qty := range []int{0, 11, -1} {
		_, err := cart.UpdateItem(ctx, "li-1", qty)
		assert.ErrorIs(t, err, services.ErrQuantityOutOfRange)
	}
	assert.Equal(t, before, u.calls(), "rejected quantities never reach the network")

	cached, err := cart.Cart(ctx)
	assert.NoError(t, err)
	assert.Equal(t, warm, cached, "cache unchanged by local rejections")
}

func TestAddItemQuantityBounds(t *testing.T) {
	u := newCartUpstream(t)
	defer u.srv.Close()

	cart, _ := newCartService(t, u.srv.URL)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, models.AddToCartRequest{ProductID: "p1", ColorID: "c1", SizeID: "s1", Quantity: 11})
	assert.ErrorIs(t, err, services.ErrQuantityOutOfRange)

	// Zero defaults to one.
	_, err = cart.AddItem(ctx, models.AddToCartRequest{ProductID: "p1", ColorID: "c1", SizeID: "s1"})
	assert.NoError(t, err)
}

func TestDrawerOpensOnAddSuccessOnly(t *testing.T) {
	okUpstream := newCartUpstream(t)
	defer okUpstream.srv.Close()

	cart, _ := newCartService(t, okUpstream.srv.URL)
	ctx := context.Background()
	assert.False(t, cart.DrawerOpen())

	_, err := cart.AddItem(ctx, models.AddToCartRequest{ProductID: "p1", ColorID: "c1", SizeID: "s1", Quantity: 1})
	assert.NoError(t, err)
	assert.True(t, cart.DrawerOpen(), "successful add raises the drawer flag")

	cart.CloseDrawer()
	assert.False(t, cart.DrawerOpen())

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Out of stock"})
	}))
	defer failing.Close()

	failingCart, _ := newCartService(t, failing.URL)
	_, err = failingCart.AddItem(ctx, models.AddToCartRequest{ProductID: "p1", ColorID: "c1", SizeID: "s1", Quantity: 1})
	assert.Error(t, err)
	assert.False(t, failingCart.DrawerOpen(), "failed add leaves the drawer closed")
}

func TestIdentityChangeInvalidatesCachedCart(t *testing.T) {
	u := newCartUpstream(t)
	defer u.srv.Close()

	cart, bus := newCartService(t, u.srv.URL)
	ctx := context.Background()

	_, err := cart.Cart(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, u.calls())

	// Cache hit.
	_, _ = cart.Cart(ctx)
	assert.EqualValues(t, 1, u.calls())

	// A login/logout publishes a cart invalidation; the next read must
	// refetch under the new identity.
	bus.Publish(events.TopicCart)
	_, err = cart.Cart(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, u.calls())
}
