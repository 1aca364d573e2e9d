package dom

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options configures a node built by Element.
type Options struct {
	// Attributes are applied in key order so output stays deterministic.
	Attributes map[string]string
	// ClassList is appended to the class attribute, skipping duplicates.
	ClassList []string
	// Styles are merged into the inline style attribute. camelCase keys are
	// accepted and written as kebab-case properties.
	Styles map[string]string
	// Text sets the text content. It wins over HTML when both are set.
	Text string
	// HTML is sanitized before being parsed into child nodes. Use
	// TrustedHTML for fixed literals that must bypass the policy.
	HTML string
	// TrustedHTML is parsed as-is. Only pass compile-time literals.
	TrustedHTML string
	// Children are appended in order after any text or markup.
	Children []*html.Node
}

// Element creates a new element node configured by opts. Markup that cannot
// be parsed is kept as escaped text; use NewElement to observe the error.
func Element(tag string, opts Options) *html.Node {
	node, _ := NewElement(tag, opts)
	return node
}

// NewElement is Element reporting markup parse failures. The node is
// returned in both cases.
func NewElement(tag string, opts Options) (*html.Node, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	node := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	if len(opts.Attributes) > 0 {
		keys := make([]string, 0, len(opts.Attributes))
		for key := range opts.Attributes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			SetAttr(node, key, opts.Attributes[key])
		}
	}

	if len(opts.Styles) > 0 {
		SetStyles(node, opts.Styles)
	}

	AddClass(node, opts.ClassList...)

	var err error
	switch {
	case opts.Text != "":
		SetText(node, opts.Text)
	case opts.HTML != "":
		err = appendMarkup(node, SanitizeHTML(opts.HTML))
	case opts.TrustedHTML != "":
		err = appendMarkup(node, opts.TrustedHTML)
	}

	Append(node, opts.Children...)
	return node, err
}

// Text returns a detached text node.
func Text(value string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: value}
}

func appendMarkup(parent *html.Node, markup string) error {
	nodes, err := ParseFragment(markup, parent)
	if err != nil {
		Append(parent, Text(markup))
		return err
	}
	Append(parent, nodes...)
	return nil
}
