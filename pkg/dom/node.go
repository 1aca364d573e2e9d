package dom

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the attribute value and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or fallback when absent.
func AttrOr(n *html.Node, key, fallback string) string {
	if value, ok := Attr(n, key); ok {
		return value
	}
	return fallback
}

// HasAttr reports whether the attribute is present.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, value string) {
	if n == nil || key == "" {
		return
	}
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// RemoveAttr drops an attribute if present.
func RemoveAttr(n *html.Node, key string) {
	if n == nil {
		return
	}
	out := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			continue
		}
		out = append(out, attr)
	}
	n.Attr = out
}

// Classes returns the class tokens of n in document order.
func Classes(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class", ""))
}

// HasClass reports whether n carries the class token.
func HasClass(n *html.Node, class string) bool {
	for _, token := range Classes(n) {
		if token == class {
			return true
		}
	}
	return false
}

// AddClass appends class tokens that are not already present.
func AddClass(n *html.Node, classes ...string) {
	if n == nil || len(classes) == 0 {
		return
	}
	current := Classes(n)
	changed := false
	for _, class := range classes {
		for _, token := range strings.Fields(class) {
			if containsToken(current, token) {
				continue
			}
			current = append(current, token)
			changed = true
		}
	}
	if changed {
		SetAttr(n, "class", strings.Join(current, " "))
	}
}

// RemoveClass drops class tokens. The class attribute is kept, possibly empty,
// mirroring classList.remove.
func RemoveClass(n *html.Node, classes ...string) {
	if n == nil || !HasAttr(n, "class") {
		return
	}
	current := Classes(n)
	keep := current[:0]
	for _, token := range current {
		if containsToken(classes, token) {
			continue
		}
		keep = append(keep, token)
	}
	SetAttr(n, "class", strings.Join(keep, " "))
}

// ToggleClass adds the class when on is true and removes it otherwise.
func ToggleClass(n *html.Node, class string, on bool) {
	if on {
		AddClass(n, class)
		return
	}
	RemoveClass(n, class)
}

// SetClassName replaces the whole class attribute.
func SetClassName(n *html.Node, className string) {
	SetAttr(n, "class", strings.Join(strings.Fields(className), " "))
}

func containsToken(tokens []string, token string) bool {
	for _, candidate := range tokens {
		if candidate == token {
			return true
		}
	}
	return false
}

// Styles parses the inline style attribute into a property map.
func Styles(n *html.Node) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(AttrOr(n, "style", ""), ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}

// SetStyles merges properties into the inline style. An empty value removes
// the property, like assigning "" through element.style.
func SetStyles(n *html.Node, styles map[string]string) {
	if n == nil || len(styles) == 0 {
		return
	}
	current := Styles(n)
	for name, value := range styles {
		prop := cssProperty(name)
		if strings.TrimSpace(value) == "" {
			delete(current, prop)
			continue
		}
		current[prop] = strings.TrimSpace(value)
	}
	if len(current) == 0 {
		RemoveAttr(n, "style")
		return
	}
	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)
	decls := make([]string, 0, len(names))
	for _, name := range names {
		decls = append(decls, fmt.Sprintf("%s: %s;", name, current[name]))
	}
	SetAttr(n, "style", strings.Join(decls, " "))
}

var upperRun = regexp.MustCompile(`[A-Z]`)

func cssProperty(name string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "-") {
		return strings.ToLower(name)
	}
	return upperRun.ReplaceAllStringFunc(name, func(s string) string {
		return "-" + strings.ToLower(s)
	})
}

// TextContent concatenates all descendant text.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(TextContent(c))
	}
	return b.String()
}

// SetText replaces every child with a single text node.
func SetText(n *html.Node, value string) {
	Empty(n)
	if value == "" {
		return
	}
	n.AppendChild(Text(value))
}

// Empty removes every child of n.
func Empty(n *html.Node) {
	if n == nil {
		return
	}
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Detach removes n from its parent if it has one.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Append moves children to the end of parent in order.
func Append(parent *html.Node, children ...*html.Node) {
	if parent == nil {
		return
	}
	for _, child := range children {
		if child == nil {
			continue
		}
		Detach(child)
		parent.AppendChild(child)
	}
}

// Prepend moves children to the start of parent, keeping their order.
func Prepend(parent *html.Node, children ...*html.Node) {
	if parent == nil {
		return
	}
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		if child == nil {
			continue
		}
		Detach(child)
		if parent.FirstChild == nil {
			parent.AppendChild(child)
			continue
		}
		parent.InsertBefore(child, parent.FirstChild)
	}
}

// ReplaceWith swaps old for replacement in old's parent.
func ReplaceWith(old, replacement *html.Node) {
	if old == nil || old.Parent == nil || replacement == nil {
		return
	}
	Detach(replacement)
	old.Parent.InsertBefore(replacement, old)
	old.Parent.RemoveChild(old)
}

// ElementChildren returns the element children of n.
func ElementChildren(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstElementChild returns the first element child or nil.
func FirstElementChild(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// Is reports whether n is an element with the given tag.
func Is(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// Contains reports whether descendant is n or lies below it.
func Contains(n, descendant *html.Node) bool {
	for cur := descendant; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Closest walks up from n (inclusive) and returns the first match.
func Closest(n *html.Node, match func(*html.Node) bool) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && match(cur) {
			return cur
		}
	}
	return nil
}

// FindAll returns the element descendants of n (exclusive) that match, in
// document order.
func FindAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// Find returns the first matching element descendant or nil.
func Find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if found := FindAll(n, match); len(found) > 0 {
		return found[0]
	}
	return nil
}

// ByID returns the element with the given id attribute below n.
func ByID(n *html.Node, id string) *html.Node {
	return Find(n, func(c *html.Node) bool {
		return AttrOr(c, "id", "") == id
	})
}

// ParseFragment parses markup as children of context (a div when nil).
func ParseFragment(markup string, context *html.Node) ([]*html.Node, error) {
	if context == nil || context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// Render serializes n and its subtree.
func Render(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("dom: render: %w", err)
	}
	return buf.String(), nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("dom: render: %w", err)
		}
	}
	return buf.String(), nil
}

// Slug lower-cases value and collapses whitespace runs into single hyphens.
func Slug(value string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(value) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
