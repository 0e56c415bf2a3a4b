// Package queries maps cache keys to the REST reads that fill them.
package queries

import (
	"context"
	"time"

	"pulsecart/internal/models"
	"pulsecart/internal/querycache"
	"pulsecart/internal/services"
)

// ProductsStaleTime is the only non-zero freshness window; every other key is always stale.
const ProductsStaleTime = 30 * time.Second

var (
	ProductsKey = querycache.Key{"products"}
	MeKey       = querycache.Key{"me"}
	CartKey     = querycache.Key{"cart"}
	OrdersKey   = querycache.Key{"orders"}
)

func ProductKey(productID string) querycache.Key {
	return querycache.Key{"product", productID}
}

func OrderKey(orderID string) querycache.Key {
	return querycache.Key{"order", orderID}
}

// Retryable keeps client errors out of the read retry loop.
func Retryable(err error) bool {
	return !services.IsClientError(err)
}

func Products(api *services.Client) querycache.Query[[]models.Product] {
	return querycache.Query[[]models.Product]{
		Key:       ProductsKey,
		StaleTime: ProductsStaleTime,
		Fetch:     api.GetProducts,
	}
}

// Product resolves to nil when the product does not exist.
func Product(api *services.Client, productID string) querycache.Query[*models.Product] {
	return querycache.Query[*models.Product]{
		Key: ProductKey(productID),
		Fetch: func(ctx context.Context) (*models.Product, error) {
			product, err := api.GetProduct(ctx, productID)
			if services.IsNotFound(err) {
				return nil, nil
			}
			return product, err
		},
	}
}

// Me resolves to nil when the token is rejected.
func Me(api *services.Client) querycache.Query[*models.User] {
	return querycache.Query[*models.User]{
		Key: MeKey,
		Fetch: func(ctx context.Context) (*models.User, error) {
			user, err := api.GetMe(ctx)
			if services.IsUnauthorized(err) {
				return nil, nil
			}
			return user, err
		},
	}
}

func Cart(api *services.Client) querycache.Query[*models.Cart] {
	return querycache.Query[*models.Cart]{
		Key:   CartKey,
		Fetch: api.GetCart,
	}
}

func Orders(api *services.Client) querycache.Query[[]models.Order] {
	return querycache.Query[[]models.Order]{
		Key: OrdersKey,
		Fetch: func(ctx context.Context) ([]models.Order, error) {
			orders, err := api.GetOrders(ctx)
			if err != nil {
				return nil, err
			}
			if orders == nil {
				orders = []models.Order{}
			}
			return orders, nil
		},
	}
}

// Order resolves to nil when the order does not exist for the current user.
func Order(api *services.Client, orderID string) querycache.Query[*models.Order] {
	return querycache.Query[*models.Order]{
		Key: OrderKey(orderID),
		Fetch: func(ctx context.Context) (*models.Order, error) {
			order, err := api.GetOrder(ctx, orderID)
			if services.IsNotFound(err) {
				return nil, nil
			}
			return order, err
		},
	}
}
