package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulsecart/internal/queries"
	"pulsecart/internal/router"
)

func newOrdersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			m, err := a.Router.Load(cmd.Context(), "/orders")
			if err != nil {
				return err
			}
			orders, err := view(a, queries.Orders(a.API), m.Data.(router.OrdersData).Orders, false)
			if err != nil {
				return err
			}
			return c.print(newestFirst(orders))
		},
	}
}

func newOrderCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "order <orderId>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			m, err := a.Router.Load(cmd.Context(), "/orders/"+args[0])
			if err != nil {
				return err
			}
			order, err := view(a, queries.Order(a.API, args[0]), m.Data.(router.OrderData).Order, false)
			if err != nil {
				return err
			}
			if order == nil {
				return fmt.Errorf("order %s not found", args[0])
			}
			return c.print(orderView{order})
		},
	}
}
