// Package shop runs cart and order mutations and reconciles the query cache
// once the server has accepted them.
package shop

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"pulsecart/internal/models"
	"pulsecart/internal/queries"
	"pulsecart/internal/querycache"
	"pulsecart/internal/services"
)

type Shop struct {
	api   *services.Client
	cache *querycache.Cache
	log   zerolog.Logger
}

func New(api *services.Client, cache *querycache.Cache, log zerolog.Logger) *Shop {
	return &Shop{
		api:   api,
		cache: cache,
		log:   log.With().Str("component", "shop").Logger(),
	}
}

// AddToCart adds quantity units of a product. The cart entry is invalidated on success.
func (s *Shop) AddToCart(ctx context.Context, productID int64, quantity int) (*models.Cart, error) {
	cart, err := s.api.AddToCart(ctx, models.CartItemCreate{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(queries.CartKey)
	s.log.Debug().Int64("product_id", productID).Int("quantity", quantity).Msg("added to cart")
	return cart, nil
}

// UpdateCartItem sets an item's quantity and writes the returned cart into the cache.
func (s *Shop) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*models.Cart, error) {
	cart, err := s.api.UpdateCartItem(ctx, itemID, quantity)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		querycache.SetQueryData(s.cache, queries.Cart(s.api), cart)
	} else {
		s.cache.Invalidate(queries.CartKey)
	}
	s.log.Debug().Int64("item_id", itemID).Int("quantity", quantity).Msg("cart item updated")
	return cart, nil
}

// RemoveCartItem deletes an item; the result is nil when the API answers 204.
func (s *Shop) RemoveCartItem(ctx context.Context, itemID int64) (*models.Cart, error) {
	cart, err := s.api.RemoveCartItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(queries.CartKey)
	s.log.Debug().Int64("item_id", itemID).Msg("cart item removed")
	return cart, nil
}

// CreateOrder checks out the cart. The new order is cached under its own key.
func (s *Shop) CreateOrder(ctx context.Context) (*models.Order, error) {
	order, err := s.api.CreateOrder(ctx)
	if err != nil {
		return nil, err
	}
	s.afterOrder(order)
	return order, nil
}

// BuyNow adds a single unit and checks out immediately. When the add
// succeeds but checkout fails the cart is still invalidated.
func (s *Shop) BuyNow(ctx context.Context, productID int64) (*models.Order, error) {
	if _, err := s.AddToCart(ctx, productID, 1); err != nil {
		return nil, err
	}
	return s.CreateOrder(ctx)
}

func (s *Shop) afterOrder(order *models.Order) {
	s.cache.Invalidate(queries.CartKey)
	s.cache.Invalidate(queries.OrdersKey)
	if order == nil {
		return
	}
	id := strconv.FormatInt(order.ID, 10)
	querycache.SetQueryData(s.cache, queries.Order(s.api, id), order)
	s.log.Info().Int64("order_id", order.ID).Str("total", order.TotalPrice.String()).Msg("order placed")
}
