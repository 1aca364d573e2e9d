package nav

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
)

// Defaults for the desktop breakpoint (min-width) and the rendered nav
// height used by the scroll listener.
const (
	DefaultBreakpoint = 900
	DefaultNavHeight  = 64
)

// Hamburger labels.
const (
	LabelOpen  = "Open navigation"
	LabelClose = "Close navigation"
)

// SectionSelector matches the top-level sections the menu toggles.
const SectionSelector = ".nav-sections .default-content-wrapper > ul > li"

// ErrNoSections is returned when the nav has no .nav-sections container.
var ErrNoSections = errors.New("nav: missing .nav-sections")

// Listener identifies one event subscription held by a Controller.
type Listener string

const (
	ListenHamburger    Listener = "hamburger:click"
	ListenSectionClick Listener = "section:click"
	ListenBreakpoint   Listener = "viewport:breakpoint"
	ListenEscape       Listener = "window:keydown"
	ListenFocusOut     Listener = "nav:focusout"
	ListenDropFocus    Listener = "drop:focus"
	ListenDropKeydown  Listener = "drop:keydown"
	ListenScroll       Listener = "window:scroll"
)

// Option configures a Controller.
type Option func(*Controller)

// WithBreakpoint sets the desktop min-width in pixels.
func WithBreakpoint(px int) Option {
	return func(c *Controller) {
		if px > 0 {
			c.breakpoint = px
		}
	}
}

// WithViewportWidth sets the initial viewport width. Defaults to the
// breakpoint (desktop).
func WithViewportWidth(px int) Option {
	return func(c *Controller) {
		c.width = px
	}
}

// WithNavHeight sets the scroll threshold.
func WithNavHeight(px int) Option {
	return func(c *Controller) {
		if px >= 0 {
			c.navHeight = px
		}
	}
}

// WithBody sets the page body that receives scroll and overflow state.
func WithBody(body *html.Node) Option {
	return func(c *Controller) {
		c.body = body
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type section struct {
	id   string
	node *html.Node
	drop bool
}

// Controller drives one nav element. Its methods are the DOM events the
// listeners would receive; each is ignored unless the matching listener is
// currently wired.
type Controller struct {
	mu         sync.Mutex
	nav        *html.Node
	button     *html.Node
	body       *html.Node
	sections   []section
	breakpoint int
	navHeight  int
	width      int
	state      State
	focus      Focus
	focused    string
	listeners  map[Listener]bool
	closed     bool
	logger     *zap.Logger
}

// NewController wires a controller to nav, which must already contain the
// .nav-sections container and the hamburger button.
func NewController(nav *html.Node, options ...Option) (*Controller, error) {
	if nav == nil {
		return nil, fmt.Errorf("nav: element is required")
	}
	c := &Controller{
		nav:        nav,
		breakpoint: DefaultBreakpoint,
		navHeight:  DefaultNavHeight,
		width:      -1,
		listeners:  make(map[Listener]bool),
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.width < 0 {
		c.width = c.breakpoint
	}

	doc := goquery.NewDocumentFromNode(nav)
	if doc.Find(".nav-sections").Length() == 0 {
		return nil, ErrNoSections
	}
	if buttons := doc.Find(".nav-hamburger button"); buttons.Length() > 0 {
		c.button = buttons.Get(0)
	}

	seen := make(map[string]bool)
	doc.Find(SectionSelector).Each(func(i int, s *goquery.Selection) {
		id := sectionID(s, i, seen)
		seen[id] = true
		c.sections = append(c.sections, section{
			id:   id,
			node: s.Get(0),
			drop: s.HasClass("nav-drop"),
		})
	})

	for _, l := range []Listener{ListenHamburger, ListenSectionClick, ListenBreakpoint, ListenScroll} {
		c.listeners[l] = true
	}
	c.apply(Outcome{State: Initial(c.desktop(c.width))})
	return c, nil
}

func sectionID(s *goquery.Selection, index int, seen map[string]bool) string {
	clone := s.Clone()
	clone.Children().Filter("ul").Remove()
	if id := dom.Slug(strings.TrimSpace(clone.Text())); id != "" && !seen[id] {
		return id
	}
	return "section-" + strconv.Itoa(index+1)
}

func (c *Controller) desktop(width int) bool {
	return width >= c.breakpoint
}

// State returns the current menu state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Focus returns the focus side effect of the last transition.
func (c *Controller) Focus() Focus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// Sections returns the section ids in document order.
func (c *Controller) Sections() []string {
	out := make([]string, 0, len(c.sections))
	for _, s := range c.sections {
		out = append(out, s.id)
	}
	return out
}

// SectionNode returns the element for section id.
func (c *Controller) SectionNode(id string) *html.Node {
	for _, s := range c.sections {
		if s.id == id {
			return s.node
		}
	}
	return nil
}

// Listening reports whether listener l is wired.
func (c *Controller) Listening(l Listener) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listeners[l]
}

// Listeners returns the wired listeners, sorted.
func (c *Controller) Listeners() []Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Listener, 0, len(c.listeners))
	for l, on := range c.listeners {
		if on {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClickHamburger toggles the mobile menu.
func (c *Controller) ClickHamburger() {
	c.dispatch(ListenHamburger, HamburgerClicked{})
}

// ClickSection toggles section id on desktop. Unknown ids are ignored.
func (c *Controller) ClickSection(id string) {
	if c.SectionNode(id) == nil {
		return
	}
	c.dispatch(ListenSectionClick, SectionClicked{ID: id})
}

// FocusSection records keyboard focus on a dropdown section. Only desktop
// dropdowns are focusable.
func (c *Controller) FocusSection(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.listeners[ListenDropFocus] {
		return
	}
	for _, s := range c.sections {
		if s.id == id && s.drop {
			c.focused = id
			c.listeners[ListenDropKeydown] = true
			return
		}
	}
}

// KeyDown delivers a window key press. Enter and Space toggle the focused
// dropdown; Escape closes the open section or the mobile menu.
func (c *Controller) KeyDown(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.listeners[ListenDropKeydown] && c.focused != "" {
		c.transition(DropKeyPressed{ID: c.focused, Key: key})
	}
	if key == KeyEscape && c.listeners[ListenEscape] {
		c.transition(EscapePressed{})
	}
}

// FocusOut reports focus leaving an element of the nav. inside is true when
// the element receiving focus is still within the nav.
func (c *Controller) FocusOut(inside bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || inside || !c.listeners[ListenFocusOut] {
		return
	}
	c.focused = ""
	c.transition(FocusLost{})
}

// Resize reports a new viewport width. Only crossing the breakpoint
// changes state.
func (c *Controller) Resize(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.listeners[ListenBreakpoint] {
		return
	}
	crossed := c.desktop(width) != c.desktop(c.width)
	c.width = width
	if crossed {
		c.transition(BreakpointChanged{Desktop: c.desktop(width)})
	}
}

// Scroll toggles the body "scroll" class once offset reaches the nav
// height. It does not touch the menu state.
func (c *Controller) Scroll(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.listeners[ListenScroll] || c.body == nil {
		return
	}
	dom.ToggleClass(c.body, "scroll", offset >= c.navHeight)
}

// Close removes every listener. Later events are ignored.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.focused = ""
	c.listeners = make(map[Listener]bool)
	c.logger.Debug("nav controller closed")
	return nil
}

func (c *Controller) dispatch(l Listener, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.listeners[l] {
		return
	}
	c.transition(e)
}

func (c *Controller) transition(e Event) {
	out := Transition(c.state, e)
	c.logger.Debug("nav transition",
		zap.String("event", fmt.Sprintf("%T", e)),
		zap.Bool("desktop", out.State.Desktop),
		zap.Bool("expanded", out.State.NavExpanded),
		zap.String("active", out.State.ActiveSection),
	)
	c.apply(out)
}

func (c *Controller) apply(out Outcome) {
	s := out.State
	c.state = s
	c.focus = out.Focus

	dom.SetAttr(c.nav, "aria-expanded", strconv.FormatBool(s.NavExpanded))
	for _, sec := range c.sections {
		dom.SetAttr(sec.node, "aria-expanded", strconv.FormatBool(s.SectionExpanded(sec.id)))
		if !sec.drop {
			continue
		}
		if s.Desktop {
			if !dom.HasAttr(sec.node, "tabindex") {
				dom.SetAttr(sec.node, "tabindex", "0")
			}
		} else {
			dom.RemoveAttr(sec.node, "tabindex")
		}
	}
	if c.button != nil {
		label := LabelOpen
		if s.NavExpanded {
			label = LabelClose
		}
		dom.SetAttr(c.button, "aria-label", label)
	}
	if c.body != nil {
		overflow := ""
		if !s.Desktop && s.NavExpanded {
			overflow = "hidden"
		}
		dom.SetStyles(c.body, map[string]string{"overflowY": overflow})
	}

	dismiss := s.NavExpanded || s.Desktop
	c.listeners[ListenEscape] = dismiss
	c.listeners[ListenFocusOut] = dismiss
	c.listeners[ListenDropFocus] = s.Desktop
	if !s.Desktop {
		c.listeners[ListenDropKeydown] = false
		c.focused = ""
	}
}
