package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/middleware"
	"github.com/Aquilass/tcnr01/models"
	"github.com/Aquilass/tcnr01/services"
	"github.com/Aquilass/tcnr01/session"
)

// StorefrontController serves the browser-facing REST surface. Every
// handler works through the session's manager bundle, never against the
// upstream directly, so identity attachment, refresh, and cache
// invalidation apply uniformly.
type StorefrontController struct {
	registry *services.Registry
	log      *zap.Logger
}

func NewStorefrontController(registry *services.Registry, log *zap.Logger) *StorefrontController {
	return &StorefrontController{
		registry: registry,
		log:      log,
	}
}

func (sc *StorefrontController) bundle(c *gin.Context) *services.Bundle {
	return sc.registry.Get(c.Request.Context(), middleware.SessionID(c))
}

// respondError maps manager errors onto the browser-facing response:
// locally rejected input is a 400, upstream API errors keep their status
// and detail, anything else is a bad gateway.
func (sc *StorefrontController) respondError(c *gin.Context, err error) {
	var apiErr *clients.APIError
	switch {
	case errors.Is(err, services.ErrQuantityOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(apiErr.Status, gin.H{"detail": apiErr.Error()})
	default:
		sc.log.Error("upstream request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"detail": "upstream request failed"})
	}
}

// ---- auth ----

func (sc *StorefrontController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	if err := b.Auth.Register(c.Request.Context(), req); err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b.Auth.CurrentUser())
}

func (sc *StorefrontController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	if err := b.Auth.Login(c.Request.Context(), req); err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.Auth.CurrentUser())
}

func (sc *StorefrontController) Logout(c *gin.Context) {
	b := sc.bundle(c)
	b.Auth.Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (sc *StorefrontController) Me(c *gin.Context) {
	b := sc.bundle(c)
	user := b.Auth.CurrentUser()
	if user == nil {
		// A stored token may not have been verified yet for this session.
		if err := b.Auth.RefreshUser(c.Request.Context()); err != nil {
			sc.respondError(c, err)
			return
		}
		user = b.Auth.CurrentUser()
	}
	c.JSON(http.StatusOK, user)
}

func (sc *StorefrontController) UpdateMe(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	user, err := b.Auth.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (sc *StorefrontController) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	if err := b.Auth.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		sc.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SessionInfo reports the session's identity state: the session id, the
// auth state, and the access token's subject/expiry when one is stored.
func (sc *StorefrontController) SessionInfo(c *gin.Context) {
	b := sc.bundle(c)

	info := gin.H{
		"sessionId":     middleware.SessionID(c),
		"authenticated": b.Auth.IsAuthenticated(),
	}
	if token := b.Tokens.AccessToken(c.Request.Context()); token != "" {
		if claims, ok := session.ParseClaims(token); ok {
			info["subject"] = claims.Subject
			info["tokenExpiresAt"] = claims.ExpiresAt
		}
	}
	c.JSON(http.StatusOK, info)
}

// ---- cart ----

func (sc *StorefrontController) GetCart(c *gin.Context) {
	b := sc.bundle(c)
	cart, err := b.Cart.Cart(c.Request.Context())
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (sc *StorefrontController) AddCartItem(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	cart, err := b.Cart.AddItem(c.Request.Context(), req)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (sc *StorefrontController) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	cart, err := b.Cart.UpdateItem(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (sc *StorefrontController) RemoveCartItem(c *gin.Context) {
	b := sc.bundle(c)
	cart, err := b.Cart.RemoveItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (sc *StorefrontController) ClearCart(c *gin.Context) {
	b := sc.bundle(c)
	cart, err := b.Cart.Clear(c.Request.Context())
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// CartDrawer exposes the transient drawer flag raised by AddItem.
func (sc *StorefrontController) CartDrawer(c *gin.Context) {
	b := sc.bundle(c)
	c.JSON(http.StatusOK, gin.H{"open": b.Cart.DrawerOpen()})
}

func (sc *StorefrontController) CloseCartDrawer(c *gin.Context) {
	b := sc.bundle(c)
	b.Cart.CloseDrawer()
	c.JSON(http.StatusOK, gin.H{"open": false})
}

// ---- products ----

func (sc *StorefrontController) ListProducts(c *gin.Context) {
	params := services.ProductListParams{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
		params.PageSize = size
	}

	b := sc.bundle(c)
	out, err := b.Products.List(c.Request.Context(), params)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (sc *StorefrontController) GetProduct(c *gin.Context) {
	b := sc.bundle(c)
	out, err := b.Products.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ---- orders ----

func (sc *StorefrontController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	order, err := b.Orders.Create(c.Request.Context(), req)
	if err != nil {
		sc.respondError(c, err)
		return
	}
	// Placing an order empties the server-side cart.
	b.Cart.Invalidate()
	c.JSON(http.StatusCreated, order)
}

func (sc *StorefrontController) ListOrders(c *gin.Context) {
	b := sc.bundle(c)
	orders, err := b.Orders.List(c.Request.Context())
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (sc *StorefrontController) GetOrder(c *gin.Context) {
	b := sc.bundle(c)
	order, err := b.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ---- wishlist ----

func (sc *StorefrontController) GetWishlist(c *gin.Context) {
	b := sc.bundle(c)
	wl, err := b.Wishlist.Wishlist(c.Request.Context())
	if err != nil {
		sc.respondError(c, err)
		return
	}
	if wl == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, wl)
}

func (sc *StorefrontController) AddWishlistItem(c *gin.Context) {
	var req models.AddWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid payload"})
		return
	}

	b := sc.bundle(c)
	if err := b.Wishlist.AddItem(c.Request.Context(), req.ProductID); err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "added to wishlist"})
}

func (sc *StorefrontController) RemoveWishlistItem(c *gin.Context) {
	b := sc.bundle(c)
	if err := b.Wishlist.RemoveItem(c.Request.Context(), c.Param("productId")); err != nil {
		sc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
}

// ---- health ----

func (sc *StorefrontController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": sc.registry.Len()})
}
