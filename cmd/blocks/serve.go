package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-blocks/internal/config"
	"github.com/goliatone/go-blocks/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		addr   string
		origin string
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if cmd.Flags().Changed("origin") {
				a.cfg.Origin = origin
			}
			if cmd.Flags().Changed("dir") {
				a.cfg.Dir = dir
			}
			srv, err := newServer(a.cfg, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, a.cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&origin, "origin", "", "content origin (overrides config)")
	cmd.Flags().StringVar(&dir, "dir", "", "serve pages from this directory when no origin is set")
	return cmd
}

// newServer wires the preview server to the origin, or to cfg.Dir when no
// origin is configured.
func newServer(cfg config.Config, logger *zap.Logger) (*server.Server, error) {
	options := []server.Option{
		server.WithAllowedOrigins(cfg.AllowedOrigins...),
		server.WithLogger(logger),
	}
	switch {
	case cfg.Origin != "":
		originURL, err := url.Parse(cfg.Origin)
		if err != nil {
			return nil, fmt.Errorf("serve: origin: %w", err)
		}
		options = append(options, server.WithOrigin(originURL))
	case cfg.Dir != "":
		info, err := os.Stat(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("serve: dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("serve: dir %s is not a directory", cfg.Dir)
		}
	default:
		return nil, fmt.Errorf("serve: an origin or a dir is required (--origin, --dir, BLOCKS_ORIGIN or BLOCKS_DIR)")
	}

	harness, err := newHarness(cfg, logger)
	if err != nil {
		return nil, err
	}
	return server.New(harness, options...), nil
}
