// Package blocks is the entry point for decorating content-driven pages.
// It re-exports the page harness and content loader so callers that just
// want decorated HTML need a single import.
package blocks

import (
	"context"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/page"
)

// Decorator aliases block.Decorator for callers registering custom blocks.
type Decorator = block.Decorator

// Report aliases page.Report.
type Report = page.Report

// Source aliases content.Source.
type Source = content.Source

// NewHarness exposes the page harness constructor from the top-level module.
func NewHarness(options ...page.Option) *page.Harness {
	return page.New(options...)
}

// NewLoader constructs the default content fetcher.
func NewLoader(options ...content.Option) content.Fetcher {
	return content.NewLoader(options...)
}

// RenderHTML loads the page at source, runs every block decorator and
// returns the serialized document. Block failures are reported, not
// returned; use Report.Err to treat them as fatal.
func RenderHTML(ctx context.Context, source Source, options ...page.Option) ([]byte, Report, error) {
	return page.New(options...).Render(ctx, source)
}

// RenderBlock decorates only the first block named name on the page at
// source.
func RenderBlock(ctx context.Context, source Source, name string, options ...page.Option) ([]byte, error) {
	out, _, err := page.New(options...).RenderBlock(ctx, source, name)
	return out, err
}

// WithBlocks registers extra decorators next to the built-in blocks.
func WithBlocks(decorators ...Decorator) page.Option {
	return page.WithDecorators(decorators...)
}
