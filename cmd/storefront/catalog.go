package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulsecart/internal/app"
	"pulsecart/internal/queries"
	"pulsecart/internal/querycache"
	"pulsecart/internal/router"
	"pulsecart/internal/seo"
)

// view mounts q with the loader result as seed and returns what the
// subscriber sees first. The seed is ignored when the cache already holds data.
func view[T any](a *app.App, q querycache.Query[T], seed T, disabled bool) (T, error) {
	snap, cancel := querycache.Subscribe(a.Cache, q, querycache.SubscribeOptions[T]{
		InitialData: &seed,
		Disabled:    disabled,
	}, func(querycache.Snapshot) {})
	defer cancel()

	if snap.Err != nil && !snap.HasData {
		var zero T
		return zero, snap.Err
	}
	if v, ok := querycache.Data[T](snap); ok {
		return v, nil
	}
	return seed, nil
}

func newProductsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.App(cmd.Context())
			m, err := a.Router.Load(cmd.Context(), "/products")
			if err != nil {
				return err
			}
			products, err := view(a, queries.Products(a.API), m.Data.(router.ProductsData).Products, false)
			if err != nil {
				return err
			}
			return c.print(productList(products))
		},
	}
}

func newProductCmd(c *cli) *cobra.Command {
	var featured bool
	cmd := &cobra.Command{
		Use:   "product [productId]",
		Short: "Show one product with its page metadata",
		Example: `  storefront product 4
  storefront product --featured`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := seo.CollectionPath
			if !featured {
				if len(args) != 1 {
					return fmt.Errorf("product id is required unless --featured is set")
				}
				path = "/products/" + args[0]
			}

			a := c.App(cmd.Context())
			m, err := a.Router.Load(cmd.Context(), path)
			if err != nil {
				return err
			}
			p := m.Data.(router.ProductData).Product
			if p == nil {
				return fmt.Errorf("product not found")
			}
			if !featured {
				if p, err = view(a, queries.Product(a.API, args[0]), p, false); err != nil {
					return err
				}
			}

			page, err := seo.Product(c.cfg.SiteURL, *p, featured)
			if err != nil {
				return err
			}
			return c.print(productView{Product: *p, Page: page})
		},
	}
	cmd.Flags().BoolVar(&featured, "featured", false, "Show the featured birthday card")
	return cmd
}

type openView struct {
	Route  string        `json:"route" yaml:"route"`
	Params router.Params `json:"params" yaml:"params"`
	Data   any           `json:"data" yaml:"data"`
}

func newOpenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "open <path>",
		Short:   "Run the loader of a storefront path and print its data",
		Example: "  storefront open /products/3 -o json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.App(cmd.Context()).Router.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(openView{Route: m.Route.Name, Params: m.Params, Data: m.Data})
		},
	}
}

func newRoutesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the storefront routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows routeList
			for _, r := range c.App(cmd.Context()).Router.Routes() {
				rows = append(rows, routeRow{Name: r.Name, Pattern: r.Pattern, Loader: r.Loader != nil})
			}
			return c.print(rows)
		},
	}
}
