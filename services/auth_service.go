// Package services holds the session managers: auth, cart, wishlist, and
// the read-only product/order gateways.
package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/events"
	"github.com/Aquilass/tcnr01/models"
	"github.com/Aquilass/tcnr01/session"
)

// AuthState is the identity state of one browser session.
type AuthState int

const (
	StateAnonymous AuthState = iota
	// StateLoading means a stored access token exists but has not been
	// verified against /auth/me yet.
	StateLoading
	StateAuthenticated
)

// AuthService orchestrates login, registration, logout and current-user
// verification. Identity changes publish cart/wishlist invalidations only
// after the new state is committed, so dependent fetches observe the new
// identity headers.
type AuthService struct {
	api    *clients.APIClient
	tokens *session.TokenStore
	bus    *events.Bus
	log    *zap.Logger

	mu    sync.Mutex
	state AuthState
	user  *models.User
}

func NewAuthService(api *clients.APIClient, tokens *session.TokenStore, bus *events.Bus, log *zap.Logger) *AuthService {
	return &AuthService{
		api:    api,
		tokens: tokens,
		bus:    bus,
		log:    log,
		state:  StateAnonymous,
	}
}

// Bootstrap resolves the startup state: with no stored access token the
// session is anonymous; otherwise it is loading until /auth/me confirms or
// rejects the token.
func (s *AuthService) Bootstrap(ctx context.Context) {
	if s.tokens.AccessToken(ctx) == "" {
		return
	}

	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	if err := s.RefreshUser(ctx); err != nil {
		s.log.Debug("stored token rejected at startup", zap.Error(err))
	}
}

// Login exchanges credentials for a token pair, verifies it via /auth/me,
// and commits the authenticated user. On any failure the store is left
// without tokens and the state stays anonymous.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) error {
	return s.authenticate(ctx, "/auth/login", req)
}

// Register has the same contract as Login against the register endpoint.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) error {
	return s.authenticate(ctx, "/auth/register", req)
}

func (s *AuthService) authenticate(ctx context.Context, endpoint string, body interface{}) error {
	var pair models.TokenPair
	if err := s.api.Post(ctx, endpoint, &clients.RequestOptions{Body: body, SkipAuth: true}, &pair); err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, pair); err != nil {
		return err
	}

	var user models.User
	if err := s.api.Get(ctx, "/auth/me", nil, &user); err != nil {
		// A pair that cannot be verified must not linger in the store.
		s.reset(ctx)
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.state = StateAuthenticated
	s.mu.Unlock()

	// Invalidate after the commit: the next cart fetch runs under the
	// authenticated identity.
	s.bus.Publish(events.TopicCart)
	s.log.Info("session authenticated", zap.String("user_id", user.ID))
	return nil
}

// Logout clears tokens and user state. It never fails, even when the
// session is already anonymous.
func (s *AuthService) Logout(ctx context.Context) {
	s.reset(ctx)
	s.bus.Publish(events.TopicCart)
	s.bus.Publish(events.TopicWishlist)
}

// RefreshUser re-fetches /auth/me. On failure the session falls back to
// anonymous with tokens cleared; this is the consistency backstop used at
// startup and after suspected staleness.
func (s *AuthService) RefreshUser(ctx context.Context) error {
	var user models.User
	if err := s.api.Get(ctx, "/auth/me", nil, &user); err != nil {
		s.reset(ctx)
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.state = StateAuthenticated
	s.mu.Unlock()
	return nil
}

// UpdateProfile writes profile fields and commits the returned user.
func (s *AuthService) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.api.Put(ctx, "/auth/me", &clients.RequestOptions{Body: req}, &user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	req := models.ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}
	return s.api.Post(ctx, "/auth/change-password", &clients.RequestOptions{Body: req}, nil)
}

// CurrentUser returns the committed user, nil when unauthenticated.
func (s *AuthService) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *AuthService) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *AuthService) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

func (s *AuthService) reset(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Warn("failed to clear tokens", zap.Error(err))
	}
	s.mu.Lock()
	s.user = nil
	s.state = StateAnonymous
	s.mu.Unlock()
}
