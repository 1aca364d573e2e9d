package block

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
)

// Page is the document-level context shared by the blocks of one page.
type Page struct {
	// URL is the page location; relative content references resolve against
	// it. May be nil for detached fragments.
	URL *url.URL
	// Document is the parsed root node. May be nil for detached fragments.
	Document *html.Node
	// Scope owns listener lifetimes bound to DOM subtrees of this page.
	Scope *Scope
}

// NewPage builds a page context with a fresh Scope.
func NewPage(location *url.URL, document *html.Node) *Page {
	return &Page{URL: location, Document: document, Scope: NewScope()}
}

// Head returns the <head> element or nil.
func (p *Page) Head() *html.Node {
	return p.element("head")
}

// Body returns the <body> element or nil.
func (p *Page) Body() *html.Node {
	return p.element("body")
}

func (p *Page) element(tag string) *html.Node {
	if p == nil || p.Document == nil {
		return nil
	}
	if dom.Is(p.Document, tag) {
		return p.Document
	}
	return dom.Find(p.Document, func(n *html.Node) bool { return dom.Is(n, tag) })
}

// Query returns the page query parameters.
func (p *Page) Query() url.Values {
	if p == nil || p.URL == nil {
		return url.Values{}
	}
	return p.URL.Query()
}

// Metadata returns the joined content of <meta> tags named name. Names with a
// colon match the property attribute instead (Open Graph style). The boolean
// is false when no tag matched.
func (p *Page) Metadata(name string) (string, bool) {
	head := p.Head()
	if head == nil {
		return "", false
	}
	attr := "name"
	if strings.Contains(name, ":") {
		attr = "property"
	}
	metas := dom.FindAll(head, func(n *html.Node) bool {
		return dom.Is(n, "meta") && dom.AttrOr(n, attr, "") == name
	})
	if len(metas) == 0 {
		return "", false
	}
	values := make([]string, 0, len(metas))
	for _, meta := range metas {
		values = append(values, dom.AttrOr(meta, "content", ""))
	}
	return strings.Join(values, ", "), true
}

// Close releases everything the page scope owns.
func (p *Page) Close() error {
	if p == nil || p.Scope == nil {
		return nil
	}
	return p.Scope.Close()
}
