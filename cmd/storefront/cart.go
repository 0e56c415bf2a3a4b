package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pulsecart/internal/models"
	"pulsecart/internal/queries"
	"pulsecart/internal/router"
)

func parseID(name, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func newCartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := c.loadCart(cmd, "/cart")
			if err != nil {
				return err
			}
			return c.print(cartView{cart})
		},
	}
	cmd.AddCommand(newCartAddCmd(c), newCartUpdateCmd(c), newCartRemoveCmd(c))
	return cmd
}

// loadCart runs the loader of a cart-scoped path and mounts the cart query on its result.
func (c *cli) loadCart(cmd *cobra.Command, path string) (*models.Cart, error) {
	a, err := c.requireSession(cmd.Context())
	if err != nil {
		return nil, err
	}
	m, err := a.Router.Load(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	cart, err := view(a, queries.Cart(a.API), m.Data.(router.CartData).Cart, false)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, errSignInRequired
	}
	return cart, nil
}

func newCartAddCmd(c *cli) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.Shop.AddToCart(cmd.Context(), productID, quantity); err != nil {
				return fmt.Errorf("add to cart: %w", err)
			}
			fmt.Fprintf(c.out, "Added %d x product %d to the cart\n", quantity, productID)
			return nil
		},
	}
	cmd.Flags().IntVarP(&quantity, "qty", "q", 1, "Quantity to add")
	return cmd
}

func newCartUpdateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "update <itemId> <quantity>",
		Short: "Change the quantity of a cart item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item id", args[0])
			if err != nil {
				return err
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil || quantity <= 0 {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			cart, err := a.Shop.UpdateCartItem(cmd.Context(), itemID, quantity)
			if err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
			if cart == nil {
				fmt.Fprintln(c.out, "Cart updated")
				return nil
			}
			return c.print(cartView{cart})
		},
	}
}

func newCartRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <itemId>",
		Aliases: []string{"rm"},
		Short:   "Remove an item from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID("item id", args[0])
			if err != nil {
				return err
			}
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.Shop.RemoveCartItem(cmd.Context(), itemID); err != nil {
				return fmt.Errorf("remove cart item: %w", err)
			}
			fmt.Fprintf(c.out, "Removed item %d\n", itemID)
			return nil
		},
	}
}

func newCheckoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := c.loadCart(cmd, "/checkout")
			if err != nil {
				return err
			}
			if len(cart.Items) == 0 {
				return errors.New("cart is empty")
			}
			order, err := c.app.Shop.CreateOrder(cmd.Context())
			if err != nil {
				return fmt.Errorf("checkout: %w", err)
			}
			return c.print(orderView{order})
		},
	}
}

func newBuyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <productId>",
		Short: "Buy one unit of a product right away",
		Long:  "Adds one unit to the cart and places an order for the whole cart.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID("product id", args[0])
			if err != nil {
				return err
			}
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			order, err := a.Shop.BuyNow(cmd.Context(), productID)
			if err != nil {
				return fmt.Errorf("buy now: %w", err)
			}
			return c.print(orderView{order})
		},
	}
}
