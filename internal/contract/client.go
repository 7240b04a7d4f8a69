package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client issues plain REST calls to a running service. It never retries.
type Client struct {
	baseURL    string
	adminToken string
	http       *http.Client
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL, adminToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		http:       &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Response is a decoded service reply.
type Response struct {
	Status int
	Header http.Header
	Body   any // object, array or nil; numbers are json.Number
	Raw    []byte
}

// Object returns the body as a JSON object, or nil.
func (r *Response) Object() Record {
	m, _ := r.Body.(map[string]any)
	return m
}

// HasError reports whether the body carries an "error" key.
func (r *Response) HasError() bool {
	_, ok := r.Object()["error"]
	return ok
}

// auth decorates a request with credentials.
type auth func(*http.Request)

func bearer(token string) auth {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func basic(user, pass string) auth {
	return func(r *http.Request) { r.SetBasicAuth(user, pass) }
}

func (c *Client) do(ctx context.Context, method, path string, body any, a auth) (*Response, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a != nil {
		a(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header, Raw: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&out.Body); err != nil {
			return nil, fmt.Errorf("decode %s %s (status %d): %w", method, path, resp.StatusCode, err)
		}
	}
	return out, nil
}

// GetUser calls GET /users/{id} without credentials.
func (c *Client) GetUser(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, nil)
}

// CreateUser calls POST /users with the admin token.
func (c *Client) CreateUser(ctx context.Context, body Record) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/users", body, bearer(c.adminToken))
}

// CreateUserAs calls POST /users with an arbitrary bearer token; empty sends none.
func (c *Client) CreateUserAs(ctx context.Context, token string, body Record) (*Response, error) {
	var a auth
	if token != "" {
		a = bearer(token)
	}
	return c.do(ctx, http.MethodPost, "/users", body, a)
}

// UpdateUser calls PATCH /users/{id} with Basic credentials.
func (c *Client) UpdateUser(ctx context.Context, id int64, email, password string, body Record) (*Response, error) {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d", id), body, basic(email, password))
}

// RecordTransaction calls POST /transactions with the admin token.
func (c *Client) RecordTransaction(ctx context.Context, body Record) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/transactions", body, bearer(c.adminToken))
}

// Get calls an arbitrary GET path without credentials.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// MustCreate creates a user and returns its id, failing on anything but 201.
func (c *Client) MustCreate(ctx context.Context, body Record) (int64, error) {
	resp, err := c.CreateUser(ctx, body)
	if err != nil {
		return 0, err
	}
	if resp.Status != http.StatusCreated || resp.HasError() {
		return 0, fmt.Errorf("create user: status %d: %s", resp.Status, resp.Raw)
	}
	return IntField(resp.Object(), "userId")
}

// IntField extracts an integer-valued field.
func IntField(r Record, key string) (int64, error) {
	n, ok := r[key].(json.Number)
	if !ok {
		return 0, fmt.Errorf("%s is %T, want an integer", key, r[key])
	}
	id, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%s is %q, want an integer", key, n)
	}
	return id, nil
}
