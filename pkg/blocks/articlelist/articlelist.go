// Package articlelist renders the article-list block: a card list built from
// the rows of a JSON sheet linked inside the block.
package articlelist

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/picture"
)

// Name is the block class this decorator handles.
const Name = "article-list"

// MagazineVariant restricts the list to rows using the Magazine template.
const MagazineVariant = "magazine"

// Filter decides whether a row is rendered.
type Filter func(content.Row) bool

// Magazine keeps rows whose template is "Magazine".
func Magazine(row content.Row) bool {
	return row.Template == "Magazine"
}

// Option mutates decorator configuration.
type Option func(*Decorator)

// WithFetcher sets the content fetcher used to load the sheet.
func WithFetcher(fetcher content.Fetcher) Option {
	return func(d *Decorator) {
		if fetcher != nil {
			d.fetcher = fetcher
		}
	}
}

// WithOptimizer overrides the picture optimizer.
func WithOptimizer(optimizer picture.Optimizer) Option {
	return func(d *Decorator) {
		if optimizer != nil {
			d.optimizer = optimizer
		}
	}
}

// WithFilter applies filter to every list regardless of block variant.
func WithFilter(filter Filter) Option {
	return func(d *Decorator) {
		d.filter = filter
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

// Decorator implements block.Decorator for article lists.
type Decorator struct {
	fetcher   content.Fetcher
	optimizer picture.Optimizer
	filter    Filter
	logger    *zap.Logger
}

var _ block.Decorator = (*Decorator)(nil)

// New constructs the decorator with a default content loader and the
// media-bus picture optimizer.
func New(options ...Option) *Decorator {
	d := &Decorator{
		fetcher:   content.NewLoader(),
		optimizer: picture.MediaBus{},
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Name returns the block name.
func (d *Decorator) Name() string { return Name }

// Decorate replaces the block's .json link with the rendered card list. A
// block without such a link is left untouched.
func (d *Decorator) Decorate(ctx context.Context, b *block.Block) error {
	link := b.DataLink()
	if link == nil {
		d.logger.Debug("article-list without data link", zap.String("block", b.Name))
		return nil
	}

	href := dom.AttrOr(link, "href", "")
	src, err := content.Resolve(b.Page.URL, href)
	if err != nil {
		return fmt.Errorf("articlelist: %w", err)
	}

	sheet, err := content.LoadSheet[content.Row](ctx, d.fetcher, src)
	if err != nil {
		d.logger.Warn("article-list fetch failed", zap.String("href", href), zap.Error(err))
		return fmt.Errorf("articlelist: load %s: %w", href, err)
	}

	rows := sheet.Data
	if filter := d.filterFor(b); filter != nil {
		rows = filterRows(rows, filter)
	}

	wrapper := dom.Element("div", dom.Options{
		ClassList: []string{"articlelist-block"},
		Children:  []*html.Node{d.List(rows)},
	})
	dom.ReplaceWith(link, wrapper)
	return nil
}

func (d *Decorator) filterFor(b *block.Block) Filter {
	if d.filter != nil {
		return d.filter
	}
	if b.HasVariant(MagazineVariant) {
		return Magazine
	}
	return nil
}

// List renders rows as a <ul> of cards, preserving row order.
func (d *Decorator) List(rows []content.Row) *html.Node {
	ul := dom.Element("ul", dom.Options{})
	for _, row := range rows {
		dom.Append(ul, d.card(row))
	}
	return ul
}

func (d *Decorator) card(row content.Row) *html.Node {
	link := row.Link()
	image := dom.Element("div", dom.Options{
		ClassList: []string{"cards-card-image"},
		Children: []*html.Node{
			dom.Element("a", dom.Options{
				Attributes: map[string]string{"href": link, "title": row.Title},
				Children: []*html.Node{
					d.optimizer.Picture(row.Image, row.Title, false, picture.CardBreakpoints),
				},
			}),
		},
	})

	body := dom.Element("div", dom.Options{
		ClassList: []string{"cards-card-body"},
		Children: []*html.Node{
			dom.Element("a", dom.Options{
				Attributes: map[string]string{"href": link, "title": row.Title},
				ClassList:  []string{"button"},
				Text:       row.Title,
			}),
			dom.Element("p", dom.Options{
				ClassList: []string{"card-paragraph"},
				Text:      row.Description,
			}),
		},
	})

	return dom.Element("li", dom.Options{Children: []*html.Node{image, body}})
}

func filterRows(rows []content.Row, keep Filter) []content.Row {
	out := make([]content.Row, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
