package router

import (
	"context"

	"pulsecart/internal/models"
	"pulsecart/internal/queries"
	"pulsecart/internal/querycache"
	"pulsecart/internal/services"
)

const birthdayCardName = "Birthday Bakery Blue Gold Card"

// LoaderContext is what every loader receives: the shared cache, the API
// the queries read from and the current token.
type LoaderContext struct {
	Cache    *querycache.Cache
	API      *services.Client
	GetToken func() string
}

func (lc LoaderContext) anonymous() bool {
	return lc.GetToken == nil || lc.GetToken() == ""
}

type ProductsData struct {
	Products []models.Product `json:"products" yaml:"products"`
}

type ProductData struct {
	Product *models.Product `json:"product" yaml:"product"`
}

type CartData struct {
	Cart *models.Cart `json:"cart" yaml:"cart"`
}

type OrdersData struct {
	Orders []models.Order `json:"orders" yaml:"orders"`
}

type OrderData struct {
	Order *models.Order `json:"order" yaml:"order"`
}

func loadProducts(ctx context.Context, lc LoaderContext, _ Params) (any, error) {
	products, err := querycache.Ensure(ctx, lc.Cache, queries.Products(lc.API))
	if err != nil {
		return nil, err
	}
	return ProductsData{Products: products}, nil
}

func loadProduct(ctx context.Context, lc LoaderContext, params Params) (any, error) {
	product, err := querycache.Ensure(ctx, lc.Cache, queries.Product(lc.API, params["productId"]))
	if err != nil {
		return nil, err
	}
	return ProductData{Product: product}, nil
}

// loadBirthdayCard picks the featured card, falling back to the first product.
func loadBirthdayCard(ctx context.Context, lc LoaderContext, _ Params) (any, error) {
	products, err := querycache.Ensure(ctx, lc.Cache, queries.Products(lc.API))
	if err != nil {
		return nil, err
	}
	return ProductData{Product: featured(products, birthdayCardName)}, nil
}

func featured(products []models.Product, name string) *models.Product {
	for i := range products {
		if products[i].Name == name {
			return &products[i]
		}
	}
	if len(products) > 0 {
		return &products[0]
	}
	return nil
}

func loadCart(ctx context.Context, lc LoaderContext, _ Params) (any, error) {
	if lc.anonymous() {
		return CartData{}, nil
	}
	cart, err := querycache.Ensure(ctx, lc.Cache, queries.Cart(lc.API))
	if err != nil {
		return nil, err
	}
	return CartData{Cart: cart}, nil
}

func loadOrders(ctx context.Context, lc LoaderContext, _ Params) (any, error) {
	if lc.anonymous() {
		return OrdersData{Orders: []models.Order{}}, nil
	}
	orders, err := querycache.Ensure(ctx, lc.Cache, queries.Orders(lc.API))
	if err != nil {
		return nil, err
	}
	return OrdersData{Orders: orders}, nil
}

func loadOrder(ctx context.Context, lc LoaderContext, params Params) (any, error) {
	if lc.anonymous() {
		return OrderData{}, nil
	}
	order, err := querycache.Ensure(ctx, lc.Cache, queries.Order(lc.API, params["orderId"]))
	if err != nil {
		return nil, err
	}
	return OrderData{Order: order}, nil
}
