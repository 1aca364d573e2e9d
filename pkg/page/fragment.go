package page

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
)

// PlainSuffix is appended to fragment paths to request the undecorated
// document body.
const PlainSuffix = ".plain.html"

// LoadFragment fetches <path>.plain.html relative to the page, rebases its
// media references on the fragment path and decorates it as a <main>.
func (h *Harness) LoadFragment(ctx context.Context, p *block.Page, path string) (*html.Node, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("page: fragment path %q must be absolute", path)
	}
	path = strings.TrimSuffix(strings.TrimSuffix(path, ".html"), ".plain")

	var pageURL *url.URL
	if p != nil {
		pageURL = p.URL
	}
	src, err := content.Resolve(pageURL, path+PlainSuffix)
	if err != nil {
		return nil, fmt.Errorf("page: fragment %s: %w", path, err)
	}
	data, err := h.fetcher.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("page: fragment %s: %w", path, err)
	}

	main := &html.Node{Type: html.ElementNode, Data: "main", DataAtom: atom.Main}
	nodes, err := dom.ParseFragment(string(data), main)
	if err != nil {
		return nil, fmt.Errorf("page: fragment %s: %w", path, err)
	}
	dom.Append(main, nodes...)

	RebaseMedia(main, fragmentBase(pageURL, path))

	if p == nil {
		p = block.NewPage(pageURL, nil)
	}
	h.DecorateMain(ctx, p, main)
	return main, nil
}

func fragmentBase(pageURL *url.URL, path string) *url.URL {
	base := &url.URL{Path: path}
	if pageURL != nil {
		return pageURL.ResolveReference(base)
	}
	return base
}

// RebaseMedia rewrites ./media_ image and source references to resolve
// against base.
func RebaseMedia(root *html.Node, base *url.URL) {
	rebase := func(n *html.Node, attr string) {
		value := dom.AttrOr(n, attr, "")
		if !strings.HasPrefix(value, "./media_") {
			return
		}
		ref, err := url.Parse(value)
		if err != nil {
			return
		}
		dom.SetAttr(n, attr, base.ResolveReference(ref).String())
	}
	for _, n := range dom.FindAll(root, func(n *html.Node) bool { return dom.Is(n, "img") || dom.Is(n, "source") }) {
		if dom.Is(n, "img") {
			rebase(n, "src")
		} else {
			rebase(n, "srcset")
		}
	}
}
