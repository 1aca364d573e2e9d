package picture

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
)

// Breakpoint selects a rendition width, optionally scoped by a media query.
type Breakpoint struct {
	Media string
	Width string
}

// DefaultBreakpoints match the stock rendition set used for hero images.
var DefaultBreakpoints = []Breakpoint{
	{Media: "(min-width: 600px)", Width: "2000"},
	{Width: "750"},
}

// CardBreakpoints is the single rendition list and card blocks request.
var CardBreakpoints = []Breakpoint{{Width: "750"}}

// Optimizer produces a responsive <picture> element for an image source.
type Optimizer interface {
	Picture(src, alt string, eager bool, breakpoints []Breakpoint) *html.Node
}

// OptimizerFunc adapts a function into an Optimizer.
type OptimizerFunc func(src, alt string, eager bool, breakpoints []Breakpoint) *html.Node

// Picture delegates to the underlying function.
func (fn OptimizerFunc) Picture(src, alt string, eager bool, breakpoints []Breakpoint) *html.Node {
	return fn(src, alt, eager, breakpoints)
}

// MediaBus emits media-bus rendition URLs (width/format/optimize query
// parameters) for images served by the content origin.
type MediaBus struct{}

var _ Optimizer = MediaBus{}

// Picture builds webp sources for every breakpoint, original-format fallbacks
// for all but the last, and a final <img>.
func (MediaBus) Picture(src, alt string, eager bool, breakpoints []Breakpoint) *html.Node {
	if len(breakpoints) == 0 {
		breakpoints = DefaultBreakpoints
	}

	pathname := src
	if parsed, err := url.Parse(src); err == nil {
		pathname = parsed.EscapedPath()
	}
	ext := pathname[strings.LastIndex(pathname, ".")+1:]

	picture := dom.Element("picture", dom.Options{})
	for _, br := range breakpoints {
		attrs := map[string]string{
			"type":   "image/webp",
			"srcset": rendition(pathname, br.Width, "webply"),
		}
		if br.Media != "" {
			attrs["media"] = br.Media
		}
		dom.Append(picture, dom.Element("source", dom.Options{Attributes: attrs}))
	}

	for i, br := range breakpoints {
		if i < len(breakpoints)-1 {
			attrs := map[string]string{"srcset": rendition(pathname, br.Width, ext)}
			if br.Media != "" {
				attrs["media"] = br.Media
			}
			dom.Append(picture, dom.Element("source", dom.Options{Attributes: attrs}))
			continue
		}

		loading := "lazy"
		if eager {
			loading = "eager"
		}
		img := dom.Element("img", dom.Options{})
		dom.SetAttr(img, "loading", loading)
		dom.SetAttr(img, "alt", alt)
		dom.SetAttr(img, "src", rendition(pathname, br.Width, ext))
		dom.Append(picture, img)
	}
	return picture
}

func rendition(pathname, width, format string) string {
	return pathname + "?width=" + width + "&format=" + format + "&optimize=medium"
}
