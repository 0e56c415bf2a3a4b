// Package router matches storefront paths and runs their loaders so the
// query cache is populated before a view reads it.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var ErrRouteNotFound = errors.New("route not found")

type Params map[string]string

// Loader prepares the data a route renders. Loaders share the query cache
// with views, so anything they fetch is reused on mount.
type Loader func(ctx context.Context, lc LoaderContext, params Params) (any, error)

type Route struct {
	Name    string
	Pattern string
	Loader  Loader

	segments []string
}

type Match struct {
	Route  *Route
	Params Params
	Data   any
}

type Router struct {
	routes []*Route
	lc     LoaderContext
	log    zerolog.Logger
}

// New registers the storefront routes.
func New(lc LoaderContext, log zerolog.Logger) *Router {
	r := &Router{lc: lc, log: log.With().Str("component", "router").Logger()}

	r.Handle("home", "/", loadProducts)
	r.Handle("login", "/login", nil)
	r.Handle("register", "/register", nil)
	r.Handle("onboarding", "/onboarding", nil)
	r.Handle("products", "/products", loadProducts)
	r.Handle("product", "/products/{productId}", loadProduct)
	r.Handle("birthday-card", "/collections/birthday-card", loadBirthdayCard)
	r.Handle("cart", "/cart", loadCart)
	r.Handle("checkout", "/checkout", loadCart)
	r.Handle("orders", "/orders", loadOrders)
	r.Handle("order", "/orders/{orderId}", loadOrder)

	return r
}

// Handle adds a route. Static segments win over parameters regardless of order.
func (r *Router) Handle(name, pattern string, loader Loader) {
	r.routes = append(r.routes, &Route{
		Name:     name,
		Pattern:  pattern,
		Loader:   loader,
		segments: split(pattern),
	})
}

func (r *Router) Routes() []*Route {
	return r.routes
}

// Match resolves path to a route and its parameters.
func (r *Router) Match(path string) (*Route, Params, error) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := split(path)

	var (
		best       *Route
		bestParams Params
		bestStatic = -1
	)
	for _, route := range r.routes {
		params, static, ok := route.match(parts)
		if ok && static > bestStatic {
			best, bestParams, bestStatic = route, params, static
		}
	}
	if best == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
	}
	return best, bestParams, nil
}

// Load matches path and runs the route's loader. Routes without a loader yield nil data.
func (r *Router) Load(ctx context.Context, path string) (*Match, error) {
	route, params, err := r.Match(path)
	if err != nil {
		return nil, err
	}

	m := &Match{Route: route, Params: params}
	if route.Loader == nil {
		return m, nil
	}

	data, err := route.Loader(ctx, r.lc, params)
	if err != nil {
		r.log.Warn().Err(err).Str("route", route.Name).Str("path", path).Msg("loader failed")
		return nil, fmt.Errorf("load %s: %w", route.Name, err)
	}
	m.Data = data
	r.log.Debug().Str("route", route.Name).Str("path", path).Msg("route loaded")
	return m, nil
}

func (rt *Route) match(parts []string) (Params, int, bool) {
	if len(parts) != len(rt.segments) {
		return nil, 0, false
	}
	params := Params{}
	static := 0
	for i, seg := range rt.segments {
		if name, ok := paramName(seg); ok {
			if parts[i] == "" {
				return nil, 0, false
			}
			params[name] = parts[i]
			continue
		}
		if seg != parts[i] {
			return nil, 0, false
		}
		static++
	}
	return params, static, true
}

func paramName(seg string) (string, bool) {
	if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
