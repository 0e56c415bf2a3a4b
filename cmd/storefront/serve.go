package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pulsecart/internal/api"
	"pulsecart/internal/fakeapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var addr, dist, apiURL string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built storefront and proxy /api and /docs to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr = orDefault(addr, c.cfg.DevAddr)
			dist = orDefault(dist, c.cfg.DistDir)
			apiURL = orDefault(apiURL, c.cfg.DevAPIURL)

			h, err := api.NewHandler(dist, apiURL, c.log)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           h.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			c.log.Info().Str("addr", addr).Str("dist", dist).Str("api", apiURL).Msg("dev server listening")
			return runUntilSignal(cmd.Context(), c.log, srv.ListenAndServe, srv.Shutdown)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from PULSECART_DEV_ADDR)")
	cmd.Flags().StringVar(&dist, "dist", "", "Built storefront directory (default from PULSECART_DIST_DIR)")
	cmd.Flags().StringVar(&apiURL, "api", "", "Backend URL for /api and /docs (default from PULSECART_DEV_API_URL)")
	return cmd
}

func newMockAPICmd(c *cli) *cobra.Command {
	var (
		addr, secret string
		latency      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Run an in-memory storefront API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := fakeapi.New(fakeapi.Options{Secret: secret, Logger: c.log})
			srv.SetLatency(latency)
			srv.OnRequest(func(method, path string) {
				c.log.Debug().Str("method", method).Str("path", path).Msg("mock api request")
			})
			c.log.Info().Str("addr", addr).Msg("mock api listening")
			return runUntilSignal(cmd.Context(), c.log, func() error { return srv.Start(addr) }, srv.Shutdown)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret for issued tokens")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay added to every response")
	return cmd
}

// runUntilSignal runs serve until it fails or the process is interrupted,
// then shuts down gracefully.
func runUntilSignal(ctx context.Context, log zerolog.Logger, serve func() error, shutdown func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
