package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsecart/internal/fakeapi"
	"pulsecart/internal/models"
	"pulsecart/internal/queries"
	"pulsecart/internal/querycache"
	"pulsecart/internal/services"
)

type env struct {
	fake   *fakeapi.Server
	cache  *querycache.Cache
	api    *services.Client
	router *Router
	token  string
}

func newEnv(t *testing.T, opts fakeapi.Options) *env {
	t.Helper()
	opts.Logger = zerolog.Nop()
	fake := fakeapi.New(opts)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	e := &env{fake: fake}
	e.api = services.NewClient(srv.URL, 0, func() string { return e.token }, zerolog.Nop())
	e.cache = querycache.New(querycache.Options{Retryable: queries.Retryable, Logger: zerolog.Nop()})
	e.router = New(LoaderContext{Cache: e.cache, API: e.api, GetToken: func() string { return e.token }}, zerolog.Nop())
	return e
}

func (e *env) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	creds := models.LoginPayload{Email: "ada@example.com", Password: "secret"}
	_, err := e.api.Register(ctx, creds)
	require.NoError(t, err)
	auth, err := e.api.Login(ctx, creds)
	require.NoError(t, err)
	e.token = auth.AccessToken
}

func TestMatch(t *testing.T) {
	r := New(LoaderContext{}, zerolog.Nop())

	cases := []struct {
		path   string
		name   string
		params Params
	}{
		{"/", "home", Params{}},
		{"/products", "products", Params{}},
		{"/products/", "products", Params{}},
		{"/products/42", "product", Params{"productId": "42"}},
		{"/products/42?ref=home", "product", Params{"productId": "42"}},
		{"/collections/birthday-card", "birthday-card", Params{}},
		{"/orders/7", "order", Params{"orderId": "7"}},
		{"/checkout", "checkout", Params{}},
		{"/onboarding", "onboarding", Params{}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			route, params, err := r.Match(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.name, route.Name)
			assert.Equal(t, tc.params, params)
		})
	}

	_, _, err := r.Match("/admin")
	assert.ErrorIs(t, err, ErrRouteNotFound)
	_, _, err = r.Match("/products/1/reviews")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestAnonymousScopedRoutesSkipNetwork(t *testing.T) {
	e := newEnv(t, fakeapi.Options{})
	ctx := context.Background()

	cases := map[string]any{
		"/cart":     CartData{},
		"/checkout": CartData{},
		"/orders":   OrdersData{Orders: []models.Order{}},
		"/orders/5": OrderData{},
	}
	for path, want := range cases {
		m, err := e.router.Load(ctx, path)
		require.NoError(t, err, path)
		assert.Equal(t, want, m.Data, path)
	}

	assert.Equal(t, 0, e.fake.TotalHits())
	assert.False(t, e.cache.Snapshot(queries.CartKey).HasData)
}

func TestRoutesWithoutLoaderYieldNoData(t *testing.T) {
	e := newEnv(t, fakeapi.Options{})

	m, err := e.router.Load(context.Background(), "/login")
	require.NoError(t, err)
	assert.Nil(t, m.Data)
	assert.Equal(t, 0, e.fake.TotalHits())
}

func TestProductsLoaderSeedsViewWithoutSecondFetch(t *testing.T) {
	e := newEnv(t, fakeapi.Options{})
	ctx := context.Background()

	m, err := e.router.Load(ctx, "/")
	require.NoError(t, err)
	data, ok := m.Data.(ProductsData)
	require.True(t, ok)
	require.NotEmpty(t, data.Products)

	_, err = e.router.Load(ctx, "/products")
	require.NoError(t, err)

	snap, cancel := querycache.Subscribe(e.cache, queries.Products(e.api),
		querycache.SubscribeOptions[[]models.Product]{InitialData: &data.Products}, func(querycache.Snapshot) {})
	defer cancel()

	assert.Equal(t, querycache.StatusSuccess, snap.Status)
	assert.Equal(t, 1, e.fake.Hits(http.MethodGet, "/api/products"))
}

func TestProductLoader(t *testing.T) {
	e := newEnv(t, fakeapi.Options{})
	ctx := context.Background()

	m, err := e.router.Load(ctx, "/products/2")
	require.NoError(t, err)
	data := m.Data.(ProductData)
	require.NotNil(t, data.Product)
	assert.Equal(t, int64(2), data.Product.ID)

	cached, ok := querycache.GetData[*models.Product](e.cache, queries.ProductKey("2"))
	require.True(t, ok)
	assert.Equal(t, data.Product, cached)

	m, err = e.router.Load(ctx, "/products/404")
	require.NoError(t, err)
	assert.Nil(t, m.Data.(ProductData).Product)
}

func TestBirthdayCardLoader(t *testing.T) {
	t.Run("named card", func(t *testing.T) {
		e := newEnv(t, fakeapi.Options{})
		m, err := e.router.Load(context.Background(), "/collections/birthday-card")
		require.NoError(t, err)
		product := m.Data.(ProductData).Product
		require.NotNil(t, product)
		assert.Equal(t, birthdayCardName, product.Name)
	})

	t.Run("falls back to first product", func(t *testing.T) {
		e := newEnv(t, fakeapi.Options{Products: []models.Product{
			{ID: 10, Name: "Plain Card", Price: decimal.RequireFromString("3.50")},
			{ID: 11, Name: "Gift Box", Price: decimal.RequireFromString("12")},
		}})
		m, err := e.router.Load(context.Background(), "/collections/birthday-card")
		require.NoError(t, err)
		product := m.Data.(ProductData).Product
		require.NotNil(t, product)
		assert.Equal(t, int64(10), product.ID)
	})

	t.Run("empty catalog", func(t *testing.T) {
		e := newEnv(t, fakeapi.Options{Products: []models.Product{}})
		m, err := e.router.Load(context.Background(), "/collections/birthday-card")
		require.NoError(t, err)
		assert.Nil(t, m.Data.(ProductData).Product)
	})
}

func TestSignedInScopedRoutesFetch(t *testing.T) {
	e := newEnv(t, fakeapi.Options{})
	e.signIn(t)
	ctx := context.Background()

	m, err := e.router.Load(ctx, "/cart")
	require.NoError(t, err)
	cart := m.Data.(CartData).Cart
	require.NotNil(t, cart)
	assert.Empty(t, cart.Items)

	m, err = e.router.Load(ctx, "/orders")
	require.NoError(t, err)
	assert.Empty(t, m.Data.(OrdersData).Orders)

	m, err = e.router.Load(ctx, "/orders/3")
	require.NoError(t, err)
	assert.Nil(t, m.Data.(OrderData).Order)

	assert.Equal(t, 1, e.fake.Hits(http.MethodGet, "/api/cart"))
	assert.Equal(t, 1, e.fake.Hits(http.MethodGet, "/api/orders"))
}

func TestLoaderErrorIsWrapped(t *testing.T) {
	e := newEnv(t, fakeapi.Options{})
	e.signIn(t)
	e.fake.FailNext(http.MethodGet, "/api/cart", http.StatusForbidden, "nope")

	_, err := e.router.Load(context.Background(), "/cart")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, services.StatusCode(err))
}
