// Package header decorates the page header: it loads the nav fragment,
// arranges it into the responsive nav structure and attaches a
// nav.Controller scoped to the header block.
package header

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/nav"
)

// Name is the block class this decorator handles.
const Name = "header"

// Defaults for the brand link and the nav fragment location.
const (
	DefaultNavPath   = "/nav"
	DefaultBrandHref = "/us/en"
	DefaultLogoPath  = "/img/wknd-logo.svg"
)

var sectionClasses = []string{"nav-top", "nav-brand", "nav-sections", "nav-tools"}

// ErrNoFragmentLoader is returned when no fragment loader is configured.
var ErrNoFragmentLoader = errors.New("header: fragment loader is required")

// Option mutates decorator configuration.
type Option func(*Decorator)

// WithFragmentLoader sets the loader used to fetch the nav fragment.
func WithFragmentLoader(loader block.FragmentLoader) Option {
	return func(d *Decorator) {
		d.fragments = loader
	}
}

// WithBrand sets the brand link target and the code base path prefixed to
// the logo image.
func WithBrand(href, codeBasePath string) Option {
	return func(d *Decorator) {
		if href != "" {
			d.brandHref = href
		}
		d.codeBasePath = codeBasePath
	}
}

// WithDefaultNavPath sets the nav path used when the page has no nav
// metadata.
func WithDefaultNavPath(path string) Option {
	return func(d *Decorator) {
		if path != "" {
			d.defaultPath = path
		}
	}
}

// WithNavOptions passes options to every nav.Controller.
func WithNavOptions(options ...nav.Option) Option {
	return func(d *Decorator) {
		d.navOptions = append(d.navOptions, options...)
	}
}

// WithOnBuild registers a callback receiving each controller.
func WithOnBuild(fn func(*block.Block, *nav.Controller)) Option {
	return func(d *Decorator) {
		d.onBuild = fn
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

// Decorator implements block.Decorator for the header.
type Decorator struct {
	fragments    block.FragmentLoader
	brandHref    string
	codeBasePath string
	defaultPath  string
	navOptions   []nav.Option
	onBuild      func(*block.Block, *nav.Controller)
	logger       *zap.Logger
}

var _ block.Decorator = (*Decorator)(nil)

// New constructs the decorator.
func New(options ...Option) *Decorator {
	d := &Decorator{
		brandHref:   DefaultBrandHref,
		defaultPath: DefaultNavPath,
		logger:      zap.NewNop(),
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

// NavPath resolves the nav fragment path from page metadata.
func (d *Decorator) NavPath(page *block.Page) string {
	meta, ok := page.Metadata("nav")
	if !ok || meta == "" {
		return d.defaultPath
	}
	ref, err := url.Parse(meta)
	if err != nil {
		return d.defaultPath
	}
	if page.URL != nil {
		ref = page.URL.ResolveReference(ref)
	}
	if ref.Path == "" {
		return d.defaultPath
	}
	return ref.Path
}

// Decorate replaces the header content with the decorated nav.
func (d *Decorator) Decorate(ctx context.Context, b *block.Block) error {
	if d.fragments == nil {
		return ErrNoFragmentLoader
	}
	navPath := d.NavPath(b.Page)
	fragment, err := d.fragments.LoadFragment(ctx, b.Page, navPath)
	if err != nil {
		d.logger.Warn("nav fragment failed", zap.String("path", navPath), zap.Error(err))
		return fmt.Errorf("header: load %s: %w", navPath, err)
	}

	dom.Empty(b.Node)
	navNode := dom.Element("nav", dom.Options{Attributes: map[string]string{"id": "nav"}})
	for child := dom.FirstElementChild(fragment); child != nil; child = dom.FirstElementChild(fragment) {
		dom.Append(navNode, child)
	}

	children := dom.ElementChildren(navNode)
	for i, class := range sectionClasses {
		if i < len(children) {
			dom.AddClass(children[i], class)
		}
	}

	doc := goquery.NewDocumentFromNode(navNode)
	if brand := doc.Find(".nav-brand"); brand.Length() > 0 {
		dom.Prepend(brand.Get(0), d.brandLogo())
	}
	doc.Find(".nav-sections .default-content-wrapper > ul > li").Each(func(_ int, s *goquery.Selection) {
		if s.Find("ul").Length() > 0 {
			dom.AddClass(s.Get(0), "nav-drop")
		}
	})

	dom.Prepend(navNode, hamburger())
	dom.SetAttr(navNode, "aria-expanded", "false")

	if doc.Find(".nav-sections").Length() > 0 {
		options := append([]nav.Option{
			nav.WithBody(b.Page.Body()),
			nav.WithLogger(d.logger),
		}, d.navOptions...)
		controller, err := nav.NewController(navNode, options...)
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		b.Page.Scope.Own(b.Node, controller)
		if d.onBuild != nil {
			d.onBuild(b, controller)
		}
	}

	navTop := doc.Find(".nav-top")
	wrapper := dom.Element("div", dom.Options{
		ClassList: []string{"nav-wrapper"},
		Children: []*html.Node{
			dom.Element("div", dom.Options{ClassList: []string{"nav-container"}, Children: []*html.Node{navNode}}),
		},
	})
	dom.Append(b.Node, wrapper)
	if navTop.Length() > 0 {
		dom.Prepend(b.Node, navTop.Get(0))
	}
	return nil
}

func (d *Decorator) brandLogo() *html.Node {
	return dom.Element("a", dom.Options{
		Attributes: map[string]string{"href": d.brandHref},
		Children: []*html.Node{
			dom.Element("img", dom.Options{Attributes: map[string]string{
				"src": d.codeBasePath + DefaultLogoPath,
				"alt": "Brand Logo",
			}}),
		},
	})
}

func hamburger() *html.Node {
	return dom.Element("div", dom.Options{
		ClassList: []string{"nav-hamburger"},
		Children: []*html.Node{
			dom.Element("button", dom.Options{
				Attributes: map[string]string{
					"type":          "button",
					"aria-controls": "nav",
					"aria-label":    nav.LabelOpen,
				},
				Children: []*html.Node{
					dom.Element("span", dom.Options{ClassList: []string{"nav-hamburger-icon"}}),
				},
			}),
		},
	})
}
