package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsecart/internal/config"
	"pulsecart/internal/fakeapi"
	"pulsecart/internal/models"
	"pulsecart/internal/router"
	"pulsecart/internal/tokenstore"
)

// The API base URL is resolved once per process, so the whole flow lives in one test.
func TestStorefrontFlow(t *testing.T) {
	fake := fakeapi.New(fakeapi.Options{Logger: zerolog.Nop()})
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL: srv.URL,
		Query:      config.QueryConfig{Retries: 0, RetryDelay: time.Millisecond},
	}
	store := tokenstore.NewMemoryStore()
	ctx := context.Background()

	a := NewWithStore(ctx, cfg, store, tokenstore.KindMemory, zerolog.Nop())
	t.Cleanup(func() { _ = a.Close() })
	require.Equal(t, srv.URL, a.API.BaseURL())

	m, err := a.Router.Load(ctx, "/cart")
	require.NoError(t, err)
	assert.Equal(t, router.CartData{}, m.Data)
	assert.Equal(t, 0, fake.TotalHits())

	creds := models.LoginPayload{Email: "ada@example.com", Password: "secret"}
	_, err = a.Session.Register(ctx, creds)
	require.NoError(t, err)
	require.NoError(t, a.Session.Login(ctx, creds))

	state, err := a.Session.State(ctx)
	require.NoError(t, err)
	assert.True(t, state.IsAuthenticated)

	_, err = a.Shop.AddToCart(ctx, 3, 2)
	require.NoError(t, err)

	m, err = a.Router.Load(ctx, "/checkout")
	require.NoError(t, err)
	cart := m.Data.(router.CartData).Cart
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "178", cart.TotalPrice.String())

	order, err := a.Shop.CreateOrder(ctx)
	require.NoError(t, err)

	m, err = a.Router.Load(ctx, "/orders")
	require.NoError(t, err)
	orders := m.Data.(router.OrdersData).Orders
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	require.NoError(t, a.Session.Logout(ctx))
	before := fake.TotalHits()
	m, err = a.Router.Load(ctx, "/orders")
	require.NoError(t, err)
	assert.Empty(t, m.Data.(router.OrdersData).Orders)
	assert.Equal(t, before, fake.TotalHits())
	assert.Equal(t, 1, fake.Hits(http.MethodPost, "/api/orders"))
}
