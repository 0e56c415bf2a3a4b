package main

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"pulsecart/internal/auth"
	"pulsecart/internal/models"
	"pulsecart/internal/seo"
	"pulsecart/internal/tokenstore"
)

type productList []models.Product

func (l productList) Headers() []string { return []string{"ID", "NAME", "PRICE", "STOCK"} }

func (l productList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		rows = append(rows, []string{id(p.ID), p.Name, models.FormatUSD(p.Price), stock(p)})
	}
	return rows
}

type productView struct {
	Product models.Product  `json:"product" yaml:"product"`
	Page    seo.ProductPage `json:"page" yaml:"page"`
}

func (v productView) Headers() []string { return []string{"FIELD", "VALUE"} }

func (v productView) Rows() [][]string {
	return [][]string{
		{"ID", id(v.Product.ID)},
		{"Name", v.Product.Name},
		{"Price", models.FormatUSD(v.Product.Price)},
		{"Availability", v.Page.Availability},
		{"Description", v.Product.Description},
		{"Title", v.Page.Title},
		{"Canonical", v.Page.Canonical},
		{"Image", v.Page.Image},
	}
}

type cartView struct {
	*models.Cart
}

func (v cartView) Headers() []string {
	return []string{"ITEM", "PRODUCT", "QTY", "UNIT", "SUBTOTAL"}
}

func (v cartView) Rows() [][]string {
	if len(v.Items) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(v.Items)+1)
	for _, item := range v.Items {
		unit := item.EffectiveUnitPrice()
		subtotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if item.SubtotalPrice != nil {
			subtotal = *item.SubtotalPrice
		}
		rows = append(rows, []string{
			id(item.ID),
			productName(item.Product),
			strconv.Itoa(item.Quantity),
			models.FormatUSD(unit),
			models.FormatUSD(subtotal),
		})
	}
	return append(rows, []string{"", "TOTAL", "", "", models.FormatUSD(v.TotalPrice)})
}

type orderList []models.Order

// newestFirst orders by descending id without touching the cached slice.
func newestFirst(orders []models.Order) orderList {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b models.Order) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return sorted
}

func (l orderList) Headers() []string { return []string{"ID", "STATUS", "ITEMS", "TOTAL"} }

func (l orderList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, o := range l {
		rows = append(rows, []string{id(o.ID), o.Status, strconv.Itoa(len(o.Items)), models.FormatUSD(o.TotalPrice)})
	}
	return rows
}

type orderView struct {
	*models.Order
}

func (v orderView) Headers() []string {
	return []string{"ORDER", "PRODUCT", "QTY", "UNIT", "SUBTOTAL"}
}

func (v orderView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Items)+1)
	for _, item := range v.Items {
		rows = append(rows, []string{
			id(v.ID),
			productName(item.Product),
			strconv.Itoa(item.Quantity),
			models.FormatUSD(item.UnitPrice),
			models.FormatUSD(item.SubtotalPrice),
		})
	}
	return append(rows, []string{id(v.ID), "TOTAL (" + v.Status + ")", "", "", models.FormatUSD(v.TotalPrice)})
}

type sessionView struct {
	Authenticated bool            `json:"authenticated" yaml:"authenticated"`
	User          *models.User    `json:"user" yaml:"user"`
	TokenStore    tokenstore.Kind `json:"token_store" yaml:"token_store"`
}

func newSessionView(state auth.State, kind tokenstore.Kind) sessionView {
	return sessionView{Authenticated: state.IsAuthenticated, User: state.User, TokenStore: kind}
}

func (v sessionView) Headers() []string { return []string{"FIELD", "VALUE"} }

func (v sessionView) Rows() [][]string {
	email := "anonymous"
	if v.User != nil {
		email = v.User.Email
	}
	return [][]string{
		{"User", email},
		{"Authenticated", strconv.FormatBool(v.Authenticated)},
		{"Token store", string(v.TokenStore)},
	}
}

type routeList []routeRow

type routeRow struct {
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Loader  bool   `json:"loader" yaml:"loader"`
}

func (l routeList) Headers() []string { return []string{"NAME", "PATTERN", "LOADER"} }

func (l routeList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		rows = append(rows, []string{r.Name, r.Pattern, strconv.FormatBool(r.Loader)})
	}
	return rows
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func stock(p models.Product) string {
	switch {
	case p.Stock == nil:
		return "-"
	case *p.Stock <= 0:
		return "out of stock"
	default:
		return strconv.Itoa(*p.Stock)
	}
}

func productName(p *models.Product) string {
	if p == nil {
		return "-"
	}
	return p.Name
}
