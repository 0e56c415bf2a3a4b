// Package app wires the storefront client together: one token store,
// one REST client, one query cache and the session, mutations and router
// built on them.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"pulsecart/internal/auth"
	"pulsecart/internal/config"
	"pulsecart/internal/queries"
	"pulsecart/internal/querycache"
	"pulsecart/internal/router"
	"pulsecart/internal/services"
	"pulsecart/internal/shop"
	"pulsecart/internal/tokenstore"
)

type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Store     tokenstore.Store
	StoreKind tokenstore.Kind
	API       *services.Client
	Cache     *querycache.Cache
	Session   *auth.Session
	Shop      *shop.Shop
	Router    *router.Router
}

// New builds the app with the token store chosen by tokenstore.Open.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) *App {
	store, kind := tokenstore.Open(ctx, cfg, log)
	return NewWithStore(ctx, cfg, store, kind, log)
}

func NewWithStore(ctx context.Context, cfg *config.Config, store tokenstore.Store, kind tokenstore.Kind, log zerolog.Logger) *App {
	a := &App{
		Config:    cfg,
		Log:       log,
		Store:     store,
		StoreKind: kind,
	}

	a.API = services.NewClient(config.ResolveAPIBaseURL(cfg), cfg.HTTPTimeout, a.token, log)
	a.Cache = querycache.New(querycache.Options{
		Retries:    cfg.Query.Retries,
		RetryDelay: cfg.Query.RetryDelay,
		Retryable:  queries.Retryable,
		Logger:     log,
	})
	a.Session = auth.NewSession(ctx, store, a.API, a.Cache, log)
	a.Shop = shop.New(a.API, a.Cache, log)
	a.Router = router.New(router.LoaderContext{
		Cache:    a.Cache,
		API:      a.API,
		GetToken: a.token,
	}, log)

	log.Debug().
		Str("api", a.API.BaseURL()).
		Str("token_store", string(kind)).
		Msg("storefront client ready")
	return a
}

// token reads the session token; it is empty until the session exists.
func (a *App) token() string {
	if a.Session == nil {
		return ""
	}
	return a.Session.Token()
}

// Close releases the token store connection when it holds one.
func (a *App) Close() error {
	if c, ok := a.Store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
