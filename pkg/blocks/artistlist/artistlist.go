// Package artistlist renders the artist-list block by regrouping authored
// rows into a card list. No content is fetched.
package artistlist

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/picture"
)

// Name is the block class this decorator handles.
const Name = "artist-list"

const (
	imageClass = "artist-card-image"
	bodyClass  = "artist-card-body"
)

// Option mutates decorator configuration.
type Option func(*Decorator)

// WithOptimizer overrides the picture optimizer.
func WithOptimizer(optimizer picture.Optimizer) Option {
	return func(d *Decorator) {
		if optimizer != nil {
			d.optimizer = optimizer
		}
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

// Decorator implements block.Decorator for artist lists.
type Decorator struct {
	optimizer picture.Optimizer
	logger    *zap.Logger
}

var _ block.Decorator = (*Decorator)(nil)

// New constructs the decorator.
func New(options ...Option) *Decorator {
	d := &Decorator{optimizer: picture.MediaBus{}, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Name returns the block name.
func (d *Decorator) Name() string { return Name }

// Decorate moves every row of the block into an <li>, classifies the row
// cells, optimizes pictures and tags titled links.
func (d *Decorator) Decorate(_ context.Context, b *block.Block) error {
	ul := dom.Element("ul", dom.Options{})
	for _, row := range dom.ElementChildren(b.Node) {
		li := dom.Element("li", dom.Options{})
		for child := dom.FirstElementChild(row); child != nil; child = dom.FirstElementChild(row) {
			dom.Append(li, child)
		}
		for _, cell := range dom.ElementChildren(li) {
			dom.SetClassName(cell, cellClass(cell))
		}
		dom.Append(ul, li)
	}

	list := goquery.NewDocumentFromNode(ul)
	list.Find("picture > img").Each(func(_ int, img *goquery.Selection) {
		pic := img.Parent().Get(0)
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		dom.ReplaceWith(pic, d.optimizer.Picture(src, alt, false, picture.CardBreakpoints))
	})
	list.Find("p > a").Each(func(_ int, a *goquery.Selection) {
		if title, ok := a.Attr("title"); ok && title != "" {
			dom.AddClass(a.Get(0), dom.Slug(title)+"-link")
		}
	})

	dom.Empty(b.Node)
	dom.Append(b.Node, ul)
	d.logger.Debug("artist-list decorated", zap.Int("cards", len(dom.ElementChildren(ul))))
	return nil
}

func cellClass(cell *html.Node) string {
	if len(dom.ElementChildren(cell)) == 1 && dom.Find(cell, func(n *html.Node) bool { return dom.Is(n, "picture") }) != nil {
		return imageClass
	}
	return bodyClass
}
