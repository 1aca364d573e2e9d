package block

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
)

// Decorator transforms an authored block region into its final DOM subtree.
// Decorate mutates b.Node in place; an error leaves the region as authored.
type Decorator interface {
	Name() string
	Decorate(ctx context.Context, b *Block) error
}

// DecoratorFunc adapts a function into a named Decorator.
func DecoratorFunc(name string, fn func(ctx context.Context, b *Block) error) Decorator {
	return funcDecorator{name: name, fn: fn}
}

type funcDecorator struct {
	name string
	fn   func(ctx context.Context, b *Block) error
}

func (d funcDecorator) Name() string { return d.name }

func (d funcDecorator) Decorate(ctx context.Context, b *Block) error {
	return d.fn(ctx, b)
}

// FragmentLoader sources reusable markup partials by path.
type FragmentLoader interface {
	LoadFragment(ctx context.Context, page *Page, path string) (*html.Node, error)
}

// Block is one decorated region of a page.
type Block struct {
	// Name is the block identifier (first class token, e.g. "article-list").
	Name string
	// Node is the block element being decorated.
	Node *html.Node
	// Page carries page-level context; never nil when built by New.
	Page *Page
}

// New wraps node as a block of the given page. The name defaults to the first
// class token on node.
func New(node *html.Node, page *Page) *Block {
	if page == nil {
		page = NewPage(nil, nil)
	}
	name := ""
	if classes := dom.Classes(node); len(classes) > 0 {
		name = classes[0]
	}
	return &Block{Name: name, Node: node, Page: page}
}

// Variants returns the class tokens after the block name, skipping the
// harness-owned "block" marker.
func (b *Block) Variants() []string {
	var out []string
	for _, class := range dom.Classes(b.Node) {
		if class == b.Name || class == "block" {
			continue
		}
		out = append(out, class)
	}
	return out
}

// HasVariant reports whether the block carries the variant class.
func (b *Block) HasVariant(variant string) bool {
	variant = strings.ToLower(strings.TrimSpace(variant))
	for _, v := range b.Variants() {
		if v == variant {
			return true
		}
	}
	return false
}

// Find runs a CSS selector against the block subtree.
func (b *Block) Find(selector string) *goquery.Selection {
	return goquery.NewDocumentFromNode(b.Node).Find(selector)
}

// DataLink returns the first anchor pointing at a .json resource, or nil.
func (b *Block) DataLink() *html.Node {
	links := b.Find(`a[href$=".json"]`)
	if links.Length() == 0 {
		return nil
	}
	return links.Get(0)
}
