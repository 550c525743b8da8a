// Package client is a typed Go client for the daybook REST API. Reads are
// served from a short-lived in-process cache that is dropped after every
// mutating call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/go-querystring/query"
)

const (
	CacheTTL        = 30 * time.Second
	CacheMaxEntries = 50
	defaultTimeout  = 15 * time.Second
)

// APIError is a non-2xx response. Message is the server's "message" field
// when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daybook: status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Location *time.Location
	Now      func() time.Time

	mu    sync.RWMutex
	token string
	cache *ristretto.Cache[string, []byte]
}

func New(baseURL string) (*Client, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        CacheMaxEntries * 10,
		MaxCost:            CacheMaxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create read cache: %w", err)
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: defaultTimeout},
		Location: time.Local,
		Now:      time.Now,
		cache:    cache,
	}, nil
}

func (c *Client) Close() {
	c.cache.Close()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.InvalidateCache()
}

// InvalidateCache drops every cached read.
func (c *Client) InvalidateCache() {
	c.cache.Clear()
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPost, "/user/signup", req, &resp); err != nil {
		return resp, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPost, "/user/login", req, &resp); err != nil {
		return resp, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, http.MethodPost, "/user/logout", nil, nil)
	c.SetToken("")
	return err
}

// get performs a cached GET. params may be nil or a struct with url tags.
func (c *Client) get(ctx context.Context, path string, params any, out any) error {
	target := path
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("encode query: %w", err)
		}
		if enc := v.Encode(); enc != "" {
			target += "?" + enc
		}
	}
	if body, ok := c.cache.Get(target); ok {
		return json.Unmarshal(body, out)
	}
	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	c.cache.SetWithTTL(target, body, 1, CacheTTL)
	c.cache.Wait()
	return json.Unmarshal(body, out)
}

// send performs a mutating call and clears the read cache on success.
func (c *Client) send(ctx context.Context, method, path string, payload, out any) error {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	c.InvalidateCache()
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		}
		return nil, apiErr
	}
	return data, nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
