package nav

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
)

const navMarkup = `<nav id="nav">` +
	`<div class="nav-hamburger"><button type="button" aria-controls="nav" aria-label="Open navigation"><span class="nav-hamburger-icon"></span></button></div>` +
	`<div class="nav-brand"><p>WKND</p></div>` +
	`<div class="nav-sections"><div class="default-content-wrapper"><ul>` +
	`<li class="nav-drop">Adventures<ul><li>Surfing</li><li>Climbing</li></ul></li>` +
	`<li class="nav-drop">Magazine<ul><li>Latest</li></ul></li>` +
	`<li>About Us</li>` +
	`</ul></div></div>` +
	`</nav>`

func newController(t *testing.T, width int) (*Controller, *html.Node) {
	t.Helper()
	nodes, err := dom.ParseFragment(navMarkup, nil)
	if err != nil {
		t.Fatalf("parse nav: %v", err)
	}
	body := dom.Element("body", dom.Options{})
	dom.Append(body, nodes[0])
	c, err := NewController(nodes[0], WithViewportWidth(width), WithBody(body))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c, body
}

func expandedSections(c *Controller) []string {
	var out []string
	for _, id := range c.Sections() {
		if dom.AttrOr(c.SectionNode(id), "aria-expanded", "") == "true" {
			out = append(out, id)
		}
	}
	return out
}

func TestControllerSectionIDs(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 1200)
	if diff := cmp.Diff([]string{"adventures", "magazine", "about-us"}, c.Sections()); diff != "" {
		t.Fatalf("section ids mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerRequiresSections(t *testing.T) {
	t.Parallel()

	if _, err := NewController(dom.Element("nav", dom.Options{})); err != ErrNoSections {
		t.Fatalf("expected ErrNoSections, got %v", err)
	}
}

func TestControllerInitialDesktop(t *testing.T) {
	t.Parallel()

	c, body := newController(t, 1200)
	if dom.AttrOr(c.nav, "aria-expanded", "") != "true" {
		t.Fatalf("desktop nav starts expanded")
	}
	if dom.AttrOr(c.button, "aria-label", "") != LabelClose {
		t.Fatalf("unexpected hamburger label %q", dom.AttrOr(c.button, "aria-label", ""))
	}
	if dom.AttrOr(c.SectionNode("adventures"), "tabindex", "") != "0" {
		t.Fatalf("desktop drops are focusable")
	}
	if dom.HasAttr(c.SectionNode("about-us"), "tabindex") {
		t.Fatalf("plain sections are not focusable")
	}
	if dom.HasAttr(body, "style") {
		t.Fatalf("desktop must not lock body scroll")
	}
	if len(expandedSections(c)) != 0 {
		t.Fatalf("sections start closed")
	}
}

func TestControllerAtMostOneSectionOpen(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 1200)
	ids := append(c.Sections(), "unknown")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		c.ClickSection(ids[rng.Intn(len(ids))])
		if open := expandedSections(c); len(open) > 1 {
			t.Fatalf("step %d: more than one section open: %v", i, open)
		}
	}
}

func TestControllerBreakpointCrossing(t *testing.T) {
	t.Parallel()

	c, body := newController(t, 400)
	if dom.AttrOr(c.nav, "aria-expanded", "") != "false" {
		t.Fatalf("mobile nav starts collapsed")
	}
	if dom.HasAttr(c.SectionNode("adventures"), "tabindex") {
		t.Fatalf("mobile drops are not focusable")
	}

	c.ClickHamburger()
	if dom.AttrOr(c.nav, "aria-expanded", "") != "true" {
		t.Fatalf("hamburger opens mobile nav")
	}
	if diff := cmp.Diff([]string{"adventures", "magazine", "about-us"}, expandedSections(c)); diff != "" {
		t.Fatalf("open mobile menu expands all sections (-want +got):\n%s", diff)
	}
	if got := dom.AttrOr(body, "style", ""); got != "overflow-y: hidden;" {
		t.Fatalf("expected body scroll lock, got %q", got)
	}

	c.Resize(1200)
	want := Initial(true)
	if diff := cmp.Diff(want, c.State()); diff != "" {
		t.Fatalf("state mismatch after crossing (-want +got):\n%s", diff)
	}
	if dom.AttrOr(c.nav, "aria-expanded", "") != "true" || len(expandedSections(c)) != 0 {
		t.Fatalf("desktop snaps to expanded nav with closed sections")
	}
	if dom.HasAttr(body, "style") {
		t.Fatalf("expected body scroll lock removed")
	}
	if dom.AttrOr(c.SectionNode("magazine"), "tabindex", "") != "0" {
		t.Fatalf("desktop drops become focusable")
	}

	c.ClickSection("magazine")
	c.Resize(1400)
	if c.State().ActiveSection != "magazine" {
		t.Fatalf("resize within desktop must not reset state")
	}

	c.Resize(899)
	if diff := cmp.Diff(Initial(false), c.State()); diff != "" {
		t.Fatalf("state mismatch after crossing back (-want +got):\n%s", diff)
	}
	if dom.HasAttr(c.SectionNode("magazine"), "tabindex") {
		t.Fatalf("mobile drops lose tabindex")
	}
}

func TestControllerEscape(t *testing.T) {
	t.Parallel()

	desk, _ := newController(t, 1200)
	desk.ClickSection("adventures")
	desk.KeyDown(KeyEscape)
	if len(expandedSections(desk)) != 0 {
		t.Fatalf("escape closes the open section")
	}
	if diff := cmp.Diff(Focus{Target: FocusSection, Section: "adventures"}, desk.Focus()); diff != "" {
		t.Fatalf("focus mismatch (-want +got):\n%s", diff)
	}

	mobile, _ := newController(t, 400)
	if mobile.Listening(ListenEscape) || mobile.Listening(ListenFocusOut) {
		t.Fatalf("collapsed mobile nav has no dismiss listeners")
	}
	mobile.ClickHamburger()
	if !mobile.Listening(ListenEscape) {
		t.Fatalf("open mobile nav listens for escape")
	}
	mobile.KeyDown(KeyEscape)
	if mobile.State().NavExpanded {
		t.Fatalf("escape collapses mobile nav")
	}
	if mobile.Focus().Target != FocusHamburger {
		t.Fatalf("focus returns to hamburger")
	}
}

func TestControllerFocusOut(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 1200)
	c.ClickSection("magazine")
	c.FocusOut(true)
	if c.State().ActiveSection != "magazine" {
		t.Fatalf("focus moving within nav keeps section open")
	}
	c.FocusOut(false)
	if c.State().ActiveSection != "" {
		t.Fatalf("focus leaving nav closes section")
	}

	m, _ := newController(t, 400)
	m.ClickHamburger()
	m.FocusOut(false)
	if m.State().NavExpanded {
		t.Fatalf("focus leaving mobile nav collapses it")
	}
}

func TestControllerDropKeyboard(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 1200)
	c.KeyDown(KeyEnter)
	if c.State().ActiveSection != "" {
		t.Fatalf("enter without focused drop is ignored")
	}
	c.FocusSection("about-us")
	if c.Listening(ListenDropKeydown) {
		t.Fatalf("plain sections do not wire keydown")
	}

	c.FocusSection("adventures")
	c.KeyDown(KeyEnter)
	if c.State().ActiveSection != "adventures" {
		t.Fatalf("enter opens focused drop")
	}
	c.KeyDown(KeySpace)
	if c.State().ActiveSection != "" {
		t.Fatalf("space closes focused drop")
	}

	m, _ := newController(t, 400)
	m.FocusSection("adventures")
	m.KeyDown(KeyEnter)
	if m.Listening(ListenDropKeydown) || m.State().ActiveSection != "" {
		t.Fatalf("mobile drops ignore keyboard")
	}
}

func TestControllerHamburgerNoopOnDesktop(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 1200)
	before := c.State()
	c.ClickHamburger()
	if diff := cmp.Diff(before, c.State()); diff != "" {
		t.Fatalf("hamburger changed desktop state (-before +after):\n%s", diff)
	}
}

func TestControllerScroll(t *testing.T) {
	t.Parallel()

	c, body := newController(t, 1200)
	c.Scroll(10)
	if dom.HasClass(body, "scroll") {
		t.Fatalf("scroll below nav height")
	}
	c.Scroll(DefaultNavHeight)
	if !dom.HasClass(body, "scroll") {
		t.Fatalf("expected scroll class at nav height")
	}
	before := c.State()
	c.Scroll(0)
	if dom.HasClass(body, "scroll") {
		t.Fatalf("expected scroll class removed")
	}
	if diff := cmp.Diff(before, c.State()); diff != "" {
		t.Fatalf("scroll changed menu state (-before +after):\n%s", diff)
	}
}

func TestControllerClose(t *testing.T) {
	t.Parallel()

	c, body := newController(t, 400)
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := c.Listeners(); len(got) != 0 {
		t.Fatalf("expected no listeners after close, got %v", got)
	}

	before := c.State()
	c.ClickHamburger()
	c.ClickSection("adventures")
	c.KeyDown(KeyEscape)
	c.FocusOut(false)
	c.Resize(1200)
	c.Scroll(500)
	if diff := cmp.Diff(before, c.State()); diff != "" {
		t.Fatalf("closed controller changed state (-before +after):\n%s", diff)
	}
	if dom.HasClass(body, "scroll") {
		t.Fatalf("closed controller handled scroll")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
