package models

import (
	"github.com/shopspring/decimal"
)

type User struct {
	ID    int64  `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
}

type Product struct {
	ID          int64           `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	ImageURL    *string         `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Stock       *int            `json:"stock,omitempty" yaml:"stock,omitempty"`
}

// InStock reports false when the stock count is absent or zero.
func (p Product) InStock() bool {
	return p.Stock != nil && *p.Stock > 0
}

type CartItem struct {
	ID            int64            `json:"id" yaml:"id"`
	Quantity      int              `json:"quantity" yaml:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty" yaml:"unit_price,omitempty"`
	SubtotalPrice *decimal.Decimal `json:"subtotal_price,omitempty" yaml:"subtotal_price,omitempty"`
	Product       *Product         `json:"product" yaml:"product"`
}

// EffectiveUnitPrice falls back to the product price when the server omits the unit price.
func (i CartItem) EffectiveUnitPrice() decimal.Decimal {
	if i.UnitPrice != nil {
		return *i.UnitPrice
	}
	if i.Product != nil {
		return i.Product.Price
	}
	return decimal.Zero
}

type Cart struct {
	Items      []CartItem      `json:"items" yaml:"items"`
	TotalPrice decimal.Decimal `json:"total_price" yaml:"total_price"`
}

type OrderItem struct {
	ID            int64           `json:"id" yaml:"id"`
	Quantity      int             `json:"quantity" yaml:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	SubtotalPrice decimal.Decimal `json:"subtotal_price" yaml:"subtotal_price"`
	Product       *Product        `json:"product" yaml:"product"`
}

type Order struct {
	ID         int64           `json:"id" yaml:"id"`
	Status     string          `json:"status" yaml:"status"`
	TotalPrice decimal.Decimal `json:"total_price" yaml:"total_price"`
	Items      []OrderItem     `json:"items" yaml:"items"`
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterPayload = LoginPayload

type AuthResponse struct {
	AccessToken string `json:"access_token"`
}

type CartItemCreate struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type CartItemUpdate struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}
