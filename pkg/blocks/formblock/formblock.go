// Package formblock decorates the form block: it swaps the block's .json
// link for a live form built from the linked field definitions.
package formblock

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/form"
)

// Name is the block class this decorator handles.
const Name = "form"

// AnimationClass is the in-view animation hint added to every form block.
const AnimationClass = "fade-up"

// Option mutates decorator configuration.
type Option func(*Decorator)

// WithFetcher sets the content fetcher used to load field definitions.
func WithFetcher(fetcher content.Fetcher) Option {
	return func(d *Decorator) {
		if fetcher != nil {
			d.fetcher = fetcher
		}
	}
}

// WithFormOptions appends options passed to every built form.
func WithFormOptions(options ...form.Option) Option {
	return func(d *Decorator) {
		d.formOptions = append(d.formOptions, options...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decorator) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOnBuild registers a callback receiving each built form.
func WithOnBuild(fn func(*block.Block, *form.Form)) Option {
	return func(d *Decorator) {
		d.onBuild = fn
	}
}

// Decorator implements block.Decorator for forms.
type Decorator struct {
	fetcher     content.Fetcher
	formOptions []form.Option
	logger      *zap.Logger
	onBuild     func(*block.Block, *form.Form)
}

var _ block.Decorator = (*Decorator)(nil)

// New constructs the decorator.
func New(options ...Option) *Decorator {
	d := &Decorator{fetcher: content.NewLoader(), logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Name returns the block name.
func (d *Decorator) Name() string { return Name }

// Decorate builds the form and binds its lifetime to the block node.
func (d *Decorator) Decorate(ctx context.Context, b *block.Block) error {
	link := b.DataLink()
	dom.AddClass(b.Node, AnimationClass)
	if link == nil {
		return nil
	}

	href := dom.AttrOr(link, "href", "")
	src, err := content.Resolve(b.Page.URL, href)
	if err != nil {
		return fmt.Errorf("formblock: %w", err)
	}

	options := append([]form.Option{
		form.WithLogger(d.logger),
		form.WithPageURL(b.Page.URL),
	}, d.formOptions...)

	f, err := form.Load(ctx, d.fetcher, src, options...)
	if err != nil {
		d.logger.Warn("form fetch failed", zap.String("href", href), zap.Error(err))
		return fmt.Errorf("formblock: %w", err)
	}

	dom.ReplaceWith(link, f.Node())
	b.Page.Scope.Own(f.Node(), f)
	if d.onBuild != nil {
		d.onBuild(b, f)
	}
	return nil
}
