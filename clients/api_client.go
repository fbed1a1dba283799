// Package clients talks to the upstream commerce API. APIClient attaches
// the session identity to every call and keeps authenticated callers alive
// through transparent token refresh.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aquilass/tcnr01/models"
	"github.com/Aquilass/tcnr01/session"
)

// RequestOptions tunes a single request.
type RequestOptions struct {
	// Body is JSON-marshalled when non-nil.
	Body interface{}
	// Params become the query string; empty values are omitted.
	Params map[string]string
	// SkipAuth suppresses the Authorization header and the 401 refresh
	// path. The auth endpoints themselves use it.
	SkipAuth bool
}

// APIClient issues JSON requests against the upstream API base URL.
//
// On a 401 it refreshes the token pair and retries the original request
// exactly once. Concurrent 401s share a single in-flight refresh call.
type APIClient struct {
	baseURL  string
	http     *http.Client
	provider *session.Provider
	tokens   *session.TokenStore
	log      *zap.Logger

	refreshMu sync.Mutex
	refresh   *refreshCall
}

type refreshCall struct {
	done chan struct{}
	err  error
}

func NewAPIClient(baseURL string, timeout time.Duration, provider *session.Provider, tokens *session.TokenStore, log *zap.Logger) *APIClient {
	return &APIClient{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		provider: provider,
		tokens:   tokens,
		log:      log,
	}
}

func (c *APIClient) Get(ctx context.Context, endpoint string, opts *RequestOptions, out interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, opts, out)
}

func (c *APIClient) Post(ctx context.Context, endpoint string, opts *RequestOptions, out interface{}) error {
	return c.Do(ctx, http.MethodPost, endpoint, opts, out)
}

func (c *APIClient) Put(ctx context.Context, endpoint string, opts *RequestOptions, out interface{}) error {
	return c.Do(ctx, http.MethodPut, endpoint, opts, out)
}

func (c *APIClient) Delete(ctx context.Context, endpoint string, opts *RequestOptions, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, endpoint, opts, out)
}

// Do performs one request and decodes the JSON response into out (which
// may be nil to discard the body). Non-2xx responses become *APIError.
func (c *APIClient) Do(ctx context.Context, method, endpoint string, opts *RequestOptions, out interface{}) error {
	if opts == nil {
		opts = &RequestOptions{}
	}

	u := c.baseURL + endpoint
	if len(opts.Params) > 0 {
		q := url.Values{}
		for k, v := range opts.Params {
			if v != "" {
				q.Set(k, v)
			}
		}
		if enc := q.Encode(); enc != "" {
			u += "?" + enc
		}
	}

	var body []byte
	if opts.Body != nil {
		var err error
		body, err = json.Marshal(opts.Body)
		if err != nil {
			return err
		}
	}

	sid, err := c.provider.SessionID(ctx)
	if err != nil {
		return err
	}

	token := ""
	if !opts.SkipAuth {
		token = c.tokens.AccessToken(ctx)
	}

	status, raw, err := c.send(ctx, method, u, sid, token, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !opts.SkipAuth && c.tokens.RefreshToken(ctx) != "" {
		original := toAPIError(status, raw)
		if refreshErr := c.refreshTokens(ctx); refreshErr != nil {
			// Tokens were cleared on the refresh path; the caller gets the
			// original failure to handle.
			return original
		}
		status, raw, err = c.send(ctx, method, u, sid, c.tokens.AccessToken(ctx), body)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return toAPIError(status, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// send issues one HTTP exchange and returns the status with the full body.
func (c *APIClient) send(ctx context.Context, method, url, sessionID, token string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", sessionID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// refreshTokens is the single-flight gate: the first caller performs the
// refresh, everyone arriving while it is in flight waits on the same
// result. The gate resets once the call completes, so a later 401 starts a
// fresh cycle.
func (c *APIClient) refreshTokens(ctx context.Context) error {
	c.refreshMu.Lock()
	if c.refresh != nil {
		call := c.refresh
		c.refreshMu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.refresh = call
	c.refreshMu.Unlock()

	call.err = c.doRefresh(ctx)

	c.refreshMu.Lock()
	c.refresh = nil
	c.refreshMu.Unlock()
	close(call.done)

	return call.err
}

// doRefresh exchanges the refresh token for a new pair. Any failure clears
// the stored pair, downgrading the session to anonymous.
func (c *APIClient) doRefresh(ctx context.Context) error {
	sid, err := c.provider.SessionID(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(models.RefreshTokenRequest{
		RefreshToken: c.tokens.RefreshToken(ctx),
	})
	if err != nil {
		return err
	}

	status, raw, err := c.send(ctx, http.MethodPost, c.baseURL+"/auth/refresh", sid, "", body)
	if err != nil {
		c.clearAfterFailedRefresh(ctx)
		return err
	}
	if status < 200 || status >= 300 {
		c.clearAfterFailedRefresh(ctx)
		return toAPIError(status, raw)
	}

	var pair models.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		c.clearAfterFailedRefresh(ctx)
		return err
	}
	if err := c.tokens.Save(ctx, pair); err != nil {
		return err
	}

	c.log.Debug("token pair refreshed")
	return nil
}

func (c *APIClient) clearAfterFailedRefresh(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Warn("failed to clear tokens after refresh failure", zap.Error(err))
	}
}

// toAPIError converts a non-2xx body into an APIError, preferring the
// backend's detail message.
func toAPIError(status int, raw []byte) *APIError {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return &APIError{Status: status, Detail: payload.Detail}
	}
	return &APIError{Status: status}
}
