package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsecart/internal/models"
)

func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func loginAs(t *testing.T, s *Server, email string) string {
	t.Helper()
	creds := `{"email":"` + email + `","password":"secret"}`
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/auth/register", "", creds).Code)

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)

	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken
}

func TestProductsArePublic(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})

	rec := do(t, s, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, len(DefaultProducts()))

	rec = do(t, s, http.MethodGet, "/api/products/999", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Product not found"}`, rec.Body.String())
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})

	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/api/auth/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/api/cart", "garbage", "").Code)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).
		SignedString([]byte("another-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/api/orders", other, "").Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})
	loginAs(t, s, "ada@example.com")

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/auth/login", "", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/auth/register", "", `{"email":"ada@example.com","password":"secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartAndCheckout(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})
	token := loginAs(t, s, "ada@example.com")

	rec := do(t, s, http.MethodPost, "/api/cart", token, `{"product_id":1,"quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/cart", token, `{"product_id":1,"quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cart models.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "599.97", cart.TotalPrice.String())

	rec = do(t, s, http.MethodPut, "/api/cart/1", token, `{"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, "199.99", cart.TotalPrice.String())

	rec = do(t, s, http.MethodPost, "/api/orders", token, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "199.99", order.TotalPrice.String())

	rec = do(t, s, http.MethodGet, "/api/cart", token, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/orders/1", token, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/orders/2", token, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/orders", token, "").Code)
}

func TestOrdersAreScopedToUser(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})
	ada := loginAs(t, s, "ada@example.com")
	bob := loginAs(t, s, "bob@example.com")

	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/cart", ada, `{"product_id":2,"quantity":1}`).Code)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/orders", ada, "").Code)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/orders/1", bob, "").Code)

	rec := do(t, s, http.MethodGet, "/api/orders", bob, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestFailNextAndHits(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})
	s.FailNext(http.MethodGet, "/api/products", http.StatusServiceUnavailable, "maintenance")

	rec := do(t, s, http.MethodGet, "/api/products", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/products", "", "").Code)

	assert.Equal(t, 2, s.Hits(http.MethodGet, "/api/products"))
	assert.Equal(t, 2, s.TotalHits())
}

func TestRequestHooks(t *testing.T) {
	s := New(Options{Logger: zerolog.Nop()})

	var seen []string
	s.OnRequest(func(method, path string) { seen = append(seen, method+" "+path) })
	s.SetLatency(20 * time.Millisecond)

	start := time.Now()
	do(t, s, http.MethodGet, "/api/products/1", "", "")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, []string{"GET /api/products/1"}, seen)
	assert.Equal(t, 1, s.Hits(http.MethodGet, "/api/products/1"))
}
