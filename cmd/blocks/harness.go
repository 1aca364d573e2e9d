package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-blocks/internal/config"
	"github.com/goliatone/go-blocks/pkg/blocks/formblock"
	"github.com/goliatone/go-blocks/pkg/blocks/header"
	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/form"
	"github.com/goliatone/go-blocks/pkg/nav"
	"github.com/goliatone/go-blocks/pkg/page"
)

func newLoader(cfg config.Config, logger *zap.Logger) *content.Loader {
	options := []content.Option{
		content.WithTimeout(cfg.FetchTimeout),
		content.WithLogger(logger),
	}
	if cfg.Dir != "" {
		options = append(options, content.WithFileSystem(os.DirFS(cfg.Dir)))
	}
	return content.NewLoader(options...)
}

func navOptions(cfg config.Config) []nav.Option {
	options := []nav.Option{
		nav.WithBreakpoint(cfg.Nav.Breakpoint),
		nav.WithNavHeight(cfg.Nav.Height),
	}
	if cfg.Nav.ViewportWidth > 0 {
		options = append(options, nav.WithViewportWidth(cfg.Nav.ViewportWidth))
	}
	return options
}

func newHarness(cfg config.Config, logger *zap.Logger) (*page.Harness, error) {
	prefill, err := cfg.PrefillRegistry()
	if err != nil {
		return nil, err
	}
	return page.New(
		page.WithFetcher(newLoader(cfg, logger)),
		page.WithLogger(logger),
		page.WithHeaderOptions(
			header.WithBrand(cfg.Nav.BrandHref, cfg.CodeBasePath),
			header.WithDefaultNavPath(cfg.Nav.DefaultPath),
			header.WithNavOptions(navOptions(cfg)...),
		),
		page.WithFormOptions(formblock.WithFormOptions(form.WithPrefill(prefill))),
	), nil
}
