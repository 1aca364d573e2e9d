package page

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
)

// DecorateButtons turns links that sit alone in a paragraph into buttons.
// A link wrapped in <strong> becomes a primary button, <em> a secondary one.
func DecorateButtons(root *html.Node) {
	links := dom.FindAll(root, func(n *html.Node) bool { return dom.Is(n, "a") })
	for _, a := range links {
		href := dom.AttrOr(a, "href", "")
		text := dom.TextContent(a)
		if !dom.HasAttr(a, "title") && text != "" {
			dom.SetAttr(a, "title", text)
		}
		if href == "" || href == text {
			continue
		}
		if dom.Find(a, func(n *html.Node) bool { return dom.Is(n, "img") }) != nil {
			continue
		}

		up := a.Parent
		if up == nil || !onlyChild(up, a) {
			continue
		}
		switch {
		case dom.Is(up, "p") || dom.Is(up, "div"):
			dom.SetClassName(a, "button")
			dom.AddClass(up, "button-container")
		case (dom.Is(up, "strong") || dom.Is(up, "em")) && up.Parent != nil && dom.Is(up.Parent, "p") && onlyChild(up.Parent, up):
			variant := "primary"
			if dom.Is(up, "em") {
				variant = "secondary"
			}
			dom.SetClassName(a, "button "+variant)
			dom.AddClass(up.Parent, "button-container")
		}
	}
}

func onlyChild(parent, child *html.Node) bool {
	return parent.FirstChild == child && parent.LastChild == child
}

// DecorateSections groups the children of every top-level <div> of main into
// block wrappers and default-content wrappers, marks the div as a section
// and applies its section-metadata.
func DecorateSections(main *html.Node) {
	for _, section := range dom.ElementChildren(main) {
		if !dom.Is(section, "div") || dom.HasAttr(section, "data-section-status") {
			continue
		}

		var wrappers []*html.Node
		defaultContent := false
		for _, child := range dom.ElementChildren(section) {
			isBlock := dom.Is(child, "div") && dom.AttrOr(child, "class", "") != ""
			if isBlock || !defaultContent {
				wrapper := dom.Element("div", dom.Options{})
				defaultContent = !isBlock
				if defaultContent {
					dom.AddClass(wrapper, "default-content-wrapper")
				}
				wrappers = append(wrappers, wrapper)
			}
			dom.Append(wrappers[len(wrappers)-1], child)
		}
		dom.Empty(section)
		dom.Append(section, wrappers...)
		dom.AddClass(section, "section")
		dom.SetAttr(section, "data-section-status", StatusInitialized)

		meta := dom.Find(section, func(n *html.Node) bool {
			return dom.Is(n, "div") && dom.HasClass(n, "section-metadata")
		})
		if meta == nil {
			continue
		}
		for key, value := range ReadBlockConfig(meta) {
			if key == "style" {
				for _, style := range strings.Split(value, ",") {
					if class := ClassName(style); class != "" {
						dom.AddClass(section, class)
					}
				}
				continue
			}
			dom.SetAttr(section, "data-"+key, value)
		}
		if meta.Parent != nil {
			dom.Detach(meta.Parent)
		}
	}
}

// DecorateBlocks marks every classed div directly inside a section wrapper
// as a block and returns the new blocks in document order.
func DecorateBlocks(main *html.Node) []*html.Node {
	var blocks []*html.Node
	for _, section := range dom.ElementChildren(main) {
		if !dom.HasClass(section, "section") {
			continue
		}
		for _, wrapper := range dom.ElementChildren(section) {
			if !dom.Is(wrapper, "div") {
				continue
			}
			for _, candidate := range dom.ElementChildren(wrapper) {
				if !dom.Is(candidate, "div") || dom.HasAttr(candidate, "data-block-status") {
					continue
				}
				if len(dom.Classes(candidate)) == 0 {
					continue
				}
				initBlock(candidate)
				blocks = append(blocks, candidate)
			}
		}
	}
	return blocks
}

func initBlock(node *html.Node) {
	classes := dom.Classes(node)
	if len(classes) == 0 {
		return
	}
	name := classes[0]
	dom.AddClass(node, "block")
	dom.SetAttr(node, "data-block-name", name)
	dom.SetAttr(node, "data-block-status", StatusInitialized)
	if wrapper := node.Parent; wrapper != nil && wrapper.Type == html.ElementNode {
		dom.AddClass(wrapper, name+"-wrapper")
	}
	section := dom.Closest(node, func(n *html.Node) bool { return dom.HasClass(n, "section") })
	if section != nil {
		dom.AddClass(section, name+"-container")
	}
}

// ReadBlockConfig reads a two-column key/value block into a map. Keys are
// normalised with ClassName.
func ReadBlockConfig(blockNode *html.Node) map[string]string {
	config := make(map[string]string)
	for _, row := range dom.ElementChildren(blockNode) {
		cols := dom.ElementChildren(row)
		if len(cols) < 2 {
			continue
		}
		key := ClassName(dom.TextContent(cols[0]))
		if key == "" {
			continue
		}
		config[key] = strings.TrimSpace(dom.TextContent(cols[1]))
	}
	return config
}

// ClassName converts free text into a CSS class token: lower case, runs of
// non-alphanumerics collapsed into single hyphens, trimmed of hyphens.
func ClassName(value string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
