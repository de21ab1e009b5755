package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gearup/storefront/internal/auth"
	"github.com/gearup/storefront/internal/models"
)

var (
	ErrUnauthenticated = errors.New("not signed in or session expired")
	ErrNotFound        = errors.New("not found")
)

// APIError is a non-success response from the storefront API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront api: %d %s", e.Status, e.Message)
}

// Client talks to the storefront HTTP API. Requests are bounded only by ctx
// and are never retried.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{BaseURL: u, HTTP: httpClient}, nil
}

func (c *Client) do(ctx context.Context, method, path, rawQuery, token string, headers http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.BaseURL.ResolveReference(&url.URL{Path: path, RawQuery: rawQuery})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vv := range headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, body.Error)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body.Error)
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

// CreateOrder submits order with the caller's bearer credential. The order's
// idempotency key, when set, travels in the Idempotency-Key header.
func (c *Client) CreateOrder(ctx context.Context, token string, order *models.Order) (*models.Order, error) {
	headers := http.Header{}
	if order.IdempotencyKey != "" {
		headers.Set("Idempotency-Key", order.IdempotencyKey)
	}

	var stored models.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", "", token, headers, order, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (c *Client) ListOrders(ctx context.Context, token string, status models.OrderStatus) ([]models.Order, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}

	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", q.Encode(), token, nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, "/api/product/"+id, "", "", nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Me returns the identity the API resolves for token.
func (c *Client) Me(ctx context.Context, token string) (*auth.Identity, error) {
	var id auth.Identity
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", "", token, nil, nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}
