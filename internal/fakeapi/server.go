// Package fakeapi is an in-process implementation of the storefront REST API.
// It backs package tests and the mock-api command.
package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pulsecart/internal/models"
)

type Options struct {
	Secret   string
	Products []models.Product
	Logger   zerolog.Logger
	Now      func() time.Time
}

type account struct {
	user     models.User
	password string
}

type failure struct {
	status  int
	message string
}

type Server struct {
	echo   *echo.Echo
	secret []byte
	log    zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	products  []models.Product
	accounts  map[string]*account
	carts     map[int64][]models.CartItem
	orders    map[int64][]models.Order
	nextUser  int64
	nextItem  int64
	nextOrder int64
	hits      map[string]int
	failures  map[string]failure
	latency   time.Duration
	onRequest func(method, path string)
}

func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "pulsecart-dev-secret"
	}
	if opts.Products == nil {
		opts.Products = DefaultProducts()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		secret:   []byte(opts.Secret),
		log:      opts.Logger.With().Str("component", "fakeapi").Logger(),
		now:      opts.Now,
		products: opts.Products,
		accounts: make(map[string]*account),
		carts:    make(map[int64][]models.CartItem),
		orders:   make(map[int64][]models.Order),
		hits:     make(map[string]int),
		failures: make(map[string]failure),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Use(s.record)

	api := e.Group("/api")
	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	private := api.Group("", s.requireUser)
	private.GET("/auth/me", s.me)
	private.GET("/cart", s.getCart)
	private.POST("/cart", s.addToCart)
	private.PUT("/cart/:id", s.updateCartItem)
	private.DELETE("/cart/:id", s.removeCartItem)
	private.GET("/orders", s.listOrders)
	private.POST("/orders", s.createOrder)
	private.GET("/orders/:id", s.getOrder)

	s.echo = e
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("fake api: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Hits reports how many requests reached method and path, e.g. ("GET", "/api/cart").
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// TotalHits reports every request served so far.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// FailNext makes the next request to method and path answer with status and message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	s.failures[method+" "+path] = failure{status: status, message: message}
	s.mu.Unlock()
}

// SetLatency delays every response by d.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// OnRequest registers a hook run before each request is handled.
func (s *Server) OnRequest(fn func(method, path string)) {
	s.mu.Lock()
	s.onRequest = fn
	s.mu.Unlock()
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		key := req.Method + " " + req.URL.Path

		s.mu.Lock()
		s.hits[key]++
		fail, failing := s.failures[key]
		delete(s.failures, key)
		latency := s.latency
		hook := s.onRequest
		s.mu.Unlock()

		if hook != nil {
			hook(req.Method, req.URL.Path)
		}
		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-req.Context().Done():
				return req.Context().Err()
			}
		}
		if failing {
			return echo.NewHTTPError(fail.status, fail.message)
		}
		return next(c)
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, errorResponse{Detail: fmt.Sprintf("%v", he.Message)})
		return
	}

	s.log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
	_ = c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
}

func (s *Server) userExists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) findProduct(id int64) (models.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *Server) cartLocked(userID int64) models.Cart {
	items := s.carts[userID]
	cart := models.Cart{Items: make([]models.CartItem, 0, len(items)), TotalPrice: decimal.Zero}
	for _, item := range items {
		cart.Items = append(cart.Items, item)
		if item.SubtotalPrice != nil {
			cart.TotalPrice = cart.TotalPrice.Add(*item.SubtotalPrice)
		}
	}
	return cart
}

func priced(item models.CartItem) models.CartItem {
	unit := item.Product.Price
	subtotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.UnitPrice = &unit
	item.SubtotalPrice = &subtotal
	return item
}
