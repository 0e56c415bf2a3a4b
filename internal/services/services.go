package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pulsecart/internal/models"
	"pulsecart/internal/resilience"
	"pulsecart/internal/telemetry"
)

// TokenSource yields the current bearer token, "" when anonymous.
type TokenSource func() string

type RequestOptions struct {
	Method string
	Body   any
	// Token overrides the TokenSource for this call.
	Token string
}

type Client struct {
	baseURL   string
	client    *http.Client
	token     TokenSource
	catalogCB *resilience.CircuitBreaker
	log       zerolog.Logger
}

// NewClient builds the REST client. A zero timeout leaves the transport defaults in place.
func NewClient(baseURL string, timeout time.Duration, token TokenSource, log zerolog.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		token:     token,
		catalogCB: resilience.NewCircuitBreaker(3, 10*time.Second, isTransportFailure, log),
		log:       log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs one JSON call and returns the raw body, nil for 204 No Content.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header.Set("Content-Type", "application/json")
	token := opts.Token
	if token == "" {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	route := routeLabel(path)
	start := time.Now()

	resp, err := c.client.Do(req)
	telemetry.APIRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.APIRequestsTotal.WithLabelValues(method, route, "error").Inc()
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	telemetry.APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		message := string(text)
		if message == "" {
			message = defaultErrorMessage
		}
		c.log.Debug().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Msg("request rejected")
		return nil, &RequestError{Status: resp.StatusCode, Message: message}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode %s %s response: invalid JSON", method, path)
	}
	return raw, nil
}

// call decodes the response into a fresh T; nil when the server answered 204.
func call[T any](ctx context.Context, c *Client, path string, opts RequestOptions) (*T, error) {
	raw, err := c.Request(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if raw == nil || string(raw) == "null" {
		return nil, nil
	}

	var target T
	if err := json.Unmarshal(raw, &target); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &target, nil
}

func (c *Client) catalog(fn func() error) error {
	return c.catalogCB.Execute(fn)
}

func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.catalog(func() error {
		res, err := call[[]models.Product](ctx, c, "/api/products", RequestOptions{})
		if err != nil {
			return err
		}
		if res != nil {
			products = *res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product *models.Product
	err := c.catalog(func() error {
		res, err := call[models.Product](ctx, c, "/api/products/"+url.PathEscape(productID), RequestOptions{})
		product = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (c *Client) GetMe(ctx context.Context) (*models.User, error) {
	return call[models.User](ctx, c, "/api/auth/me", RequestOptions{})
}

func (c *Client) GetCart(ctx context.Context) (*models.Cart, error) {
	return call[models.Cart](ctx, c, "/api/cart", RequestOptions{})
}

func (c *Client) GetOrders(ctx context.Context) ([]models.Order, error) {
	res, err := call[[]models.Order](ctx, c, "/api/orders", RequestOptions{})
	if err != nil || res == nil {
		return nil, err
	}
	return *res, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return call[models.Order](ctx, c, "/api/orders/"+url.PathEscape(orderID), RequestOptions{})
}

func (c *Client) Login(ctx context.Context, payload models.LoginPayload) (*models.AuthResponse, error) {
	return call[models.AuthResponse](ctx, c, "/api/auth/login", RequestOptions{Method: http.MethodPost, Body: payload})
}

func (c *Client) Register(ctx context.Context, payload models.RegisterPayload) (*models.User, error) {
	return call[models.User](ctx, c, "/api/auth/register", RequestOptions{Method: http.MethodPost, Body: payload})
}

func (c *Client) AddToCart(ctx context.Context, payload models.CartItemCreate) (*models.Cart, error) {
	return call[models.Cart](ctx, c, "/api/cart", RequestOptions{Method: http.MethodPost, Body: payload})
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*models.Cart, error) {
	path := fmt.Sprintf("/api/cart/%d", itemID)
	return call[models.Cart](ctx, c, path, RequestOptions{Method: http.MethodPut, Body: models.CartItemUpdate{Quantity: quantity}})
}

// RemoveCartItem returns nil when the API answers 204, the updated cart otherwise.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) (*models.Cart, error) {
	return call[models.Cart](ctx, c, fmt.Sprintf("/api/cart/%d", itemID), RequestOptions{Method: http.MethodDelete})
}

func (c *Client) CreateOrder(ctx context.Context) (*models.Order, error) {
	return call[models.Order](ctx, c, "/api/orders", RequestOptions{Method: http.MethodPost})
}

func isTransportFailure(err error) bool {
	code := StatusCode(err)
	return code == 0 || code >= 500
}

func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
