package main

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pulsecart/internal/app"
	"pulsecart/internal/config"
	"pulsecart/internal/logger"
	"pulsecart/internal/output"
)

var errSignInRequired = errors.New("not signed in, run `storefront login` first")

// cli is the state shared by every command of one invocation.
type cli struct {
	out    io.Writer
	format output.Format
	cfg    *config.Config
	log    zerolog.Logger
	app    *app.App
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	var format string

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "PulseCart storefront client",
		Long: `storefront talks to the PulseCart REST API: browse products, sign in,
manage the cart, place orders, and run the local dev server or mock API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			c.format = f

			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.log = logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&format, "output", "o", "table", "Output format (table, json, yaml)")

	rootCmd.AddCommand(
		newProductsCmd(c),
		newProductCmd(c),
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newCartCmd(c),
		newCheckoutCmd(c),
		newBuyCmd(c),
		newOrdersCmd(c),
		newOrderCmd(c),
		newOpenCmd(c),
		newRoutesCmd(c),
		newServeCmd(c),
		newMockAPICmd(c),
	)
	return rootCmd
}

// App builds the storefront client on first use; the server commands never need one.
func (c *cli) App(ctx context.Context) *app.App {
	if c.app == nil {
		c.app = app.New(ctx, c.cfg, c.log)
	}
	return c.app
}

func (c *cli) print(v any) error {
	return output.Write(c.out, c.format, v)
}

func (c *cli) requireSession(ctx context.Context) (*app.App, error) {
	a := c.App(ctx)
	if a.Session.Token() == "" {
		return nil, errSignInRequired
	}
	return a, nil
}
