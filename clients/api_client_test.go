package clients_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/clients"
	"github.com/Aquilass/tcnr01/models"
	"github.com/Aquilass/tcnr01/session"
	"github.com/Aquilass/tcnr01/storage"
)

func newClient(t *testing.T, baseURL string) (*clients.APIClient, *session.TokenStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	provider := session.NewProvider(store)
	tokens := session.NewTokenStore(store)
	api := clients.NewAPIClient(baseURL, 5*time.Second, provider, tokens, zap.NewNop())
	return api, tokens
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRequestCarriesSessionIdentityWithoutToken(t *testing.T) {
	var gotSession, gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get("X-Session-Id")
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		writeJSON(w, http.StatusOK, map[string]string{"id": "cart-1"})
	}))
	defer srv.Close()

	api, _ := newClient(t, srv.URL)
	var out map[string]string
	err := api.Get(context.Background(), "/cart", nil, &out)
	assert.NoError(t, err)
	assert.Equal(t, "cart-1", out["id"])

	assert.Len(t, gotSession, 36)
	_, err = uuid.Parse(gotSession)
	assert.NoError(t, err)
	assert.Empty(t, gotAuth, "no access token stored, no Authorization header")
	assert.Equal(t, "application/json", gotContentType)
}

func TestSessionIdentityStableAcrossRequests(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Session-Id"))
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	api, _ := newClient(t, srv.URL)
	assert.NoError(t, api.Get(context.Background(), "/cart", nil, nil))
	assert.NoError(t, api.Get(context.Background(), "/cart", nil, nil))
	assert.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])
}

func TestBearerAttachedWhenTokenStored(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	api, tokens := newClient(t, srv.URL)
	ctx := context.Background()
	assert.NoError(t, tokens.Save(ctx, models.TokenPair{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer"}))

	assert.NoError(t, api.Get(ctx, "/auth/me", nil, nil))
	assert.Equal(t, "Bearer acc", gotAuth)
}

func TestSkipAuthOmitsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, models.TokenPair{AccessToken: "a"})
	}))
	defer srv.Close()

	api, tokens := newClient(t, srv.URL)
	ctx := context.Background()
	assert.NoError(t, tokens.Save(ctx, models.TokenPair{AccessToken: "acc", RefreshToken: "ref"}))

	err := api.Post(ctx, "/auth/login", &clients.RequestOptions{
		Body:     models.LoginRequest{Email: "a@b.c", Password: "pw"},
		SkipAuth: true,
	}, nil)
	assert.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestEmptyQueryParamsOmitted(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	api, _ := newClient(t, srv.URL)
	err := api.Get(context.Background(), "/products", &clients.RequestOptions{
		Params: map[string]string{"category": "", "page": "2"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "page=2", gotQuery)
}

func TestErrorCarriesBackendDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Insufficient stock"})
	}))
	defer srv.Close()

	api, _ := newClient(t, srv.URL)
	err := api.Post(context.Background(), "/cart/items", nil, nil)
	assert.Error(t, err)

	var apiErr *clients.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Insufficient stock", err.Error())
}

func TestErrorFallsBackToStatusMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))
	defer srv.Close()

	api, _ := newClient(t, srv.URL)
	err := api.Get(context.Background(), "/cart", nil, nil)
	assert.EqualError(t, err, "HTTP 500")
}

func TestRefreshRetriesOriginalRequestOnce(t *testing.T) {
	ctx := context.Background()
	var cartCalls, refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cartCalls, 1)
		if r.Header.Get("Authorization") != "Bearer new-access" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "cart-1"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var req models.RefreshTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "old-refresh", req.RefreshToken)
		assert.Empty(t, r.Header.Get("Authorization"), "refresh never carries the access token")
		writeJSON(w, http.StatusOK, models.TokenPair{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			TokenType:    "bearer",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api, tokens := newClient(t, srv.URL)
	assert.NoError(t, tokens.Save(ctx, models.TokenPair{AccessToken: "old-access", RefreshToken: "old-refresh"}))

	var out map[string]string
	err := api.Get(ctx, "/cart", nil, &out)
	assert.NoError(t, err)
	assert.Equal(t, "cart-1", out["id"])

	assert.EqualValues(t, 2, atomic.LoadInt32(&cartCalls), "original request retried exactly once")
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "new-access", tokens.AccessToken(ctx), "refreshed pair persisted")
	assert.Equal(t, "new-refresh", tokens.RefreshToken(ctx))
}

func TestRefreshFailureClearsTokensAndSurfacesOriginalError(t *testing.T) {
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api, tokens := newClient(t, srv.URL)
	assert.NoError(t, tokens.Save(ctx, models.TokenPair{AccessToken: "stale", RefreshToken: "stale-refresh"}))

	err := api.Get(ctx, "/cart", nil, nil)
	var apiErr *clients.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Not authenticated", apiErr.Detail, "the original failure propagates, not the refresh one")

	assert.Empty(t, tokens.AccessToken(ctx), "tokens cleared after failed refresh")
	assert.Empty(t, tokens.RefreshToken(ctx))
}

func TestNoRefreshWithoutStoredRefreshToken(t *testing.T) {
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api, _ := newClient(t, srv.URL)
	err := api.Get(context.Background(), "/cart", nil, nil)
	assert.Error(t, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(&refreshCalls))
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	ctx := context.Background()
	const workers = 10
	var refreshCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "cart-1"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		// Hold the refresh open long enough for every worker to pile up
		// behind the single-flight gate.
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, http.StatusOK, models.TokenPair{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			TokenType:    "bearer",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api, tokens := newClient(t, srv.URL)
	assert.NoError(t, tokens.Save(ctx, models.TokenPair{AccessToken: "old", RefreshToken: "old-refresh"}))

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out map[string]string
			errs[i] = api.Get(ctx, "/cart", nil, &out)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls), "exactly one refresh call for all concurrent 401s")
}
