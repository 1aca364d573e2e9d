// Package nav models the responsive header menu: a pure state machine plus
// a Controller that projects the state onto the nav DOM and owns the
// listeners driving it.
package nav

// Key codes recognized by the menu, as reported by KeyboardEvent.code.
const (
	KeyEnter  = "Enter"
	KeySpace  = "Space"
	KeyEscape = "Escape"
)

// State is the complete menu state for one nav instance.
type State struct {
	// Desktop is true at or above the breakpoint.
	Desktop bool
	// NavExpanded is the whole-nav flag. Always true on desktop.
	NavExpanded bool
	// SectionsOpen marks every section expanded; only used by the open
	// mobile menu.
	SectionsOpen bool
	// ActiveSection is the single open desktop dropdown, or "".
	ActiveSection string
}

// SectionExpanded reports whether section id is rendered expanded.
func (s State) SectionExpanded(id string) bool {
	if s.SectionsOpen {
		return true
	}
	return id != "" && s.ActiveSection == id
}

// Initial returns the state for a freshly decorated nav.
func Initial(desktop bool) State {
	return State{Desktop: desktop, NavExpanded: desktop}
}

// Event is an input to Transition.
type Event interface {
	event()
}

// BreakpointChanged reports the viewport crossing the desktop breakpoint.
type BreakpointChanged struct{ Desktop bool }

// HamburgerClicked reports a click on the mobile menu button.
type HamburgerClicked struct{}

// SectionClicked reports a click on a top-level section.
type SectionClicked struct{ ID string }

// DropKeyPressed reports a key pressed while a dropdown section has focus.
type DropKeyPressed struct {
	ID  string
	Key string
}

// EscapePressed reports the Escape key anywhere in the window.
type EscapePressed struct{}

// FocusLost reports focus moving outside the nav container.
type FocusLost struct{}

func (BreakpointChanged) event() {}
func (HamburgerClicked) event() {}
func (SectionClicked) event() {}
func (DropKeyPressed) event() {}
func (EscapePressed) event() {}
func (FocusLost) event() {}

// FocusTarget names where focus moves after a transition.
type FocusTarget int

const (
	FocusUnchanged FocusTarget = iota
	FocusSection
	FocusHamburger
)

// Focus is the focus side effect of a transition.
type Focus struct {
	Target  FocusTarget
	Section string
}

// Outcome is the next state plus its focus side effect.
type Outcome struct {
	State State
	Focus Focus
}

// Transition computes the next state for event. It never mutates s.
func Transition(s State, e Event) Outcome {
	switch ev := e.(type) {
	case BreakpointChanged:
		return Outcome{State: Initial(ev.Desktop)}
	case HamburgerClicked:
		if s.Desktop {
			return Outcome{State: s}
		}
		open := !s.NavExpanded
		return Outcome{State: State{NavExpanded: open, SectionsOpen: open}}
	case SectionClicked:
		return Outcome{State: toggleSection(s, ev.ID)}
	case DropKeyPressed:
		if ev.Key != KeyEnter && ev.Key != KeySpace {
			return Outcome{State: s}
		}
		return Outcome{State: toggleSection(s, ev.ID)}
	case EscapePressed:
		if s.Desktop {
			if s.ActiveSection == "" {
				return Outcome{State: s}
			}
			next := s
			next.ActiveSection = ""
			return Outcome{State: next, Focus: Focus{Target: FocusSection, Section: s.ActiveSection}}
		}
		if !s.NavExpanded {
			return Outcome{State: s}
		}
		return Outcome{State: Initial(false), Focus: Focus{Target: FocusHamburger}}
	case FocusLost:
		if s.Desktop {
			next := s
			next.ActiveSection = ""
			return Outcome{State: next}
		}
		if !s.NavExpanded {
			return Outcome{State: s}
		}
		return Outcome{State: Initial(false)}
	default:
		return Outcome{State: s}
	}
}

func toggleSection(s State, id string) State {
	if !s.Desktop || id == "" {
		return s
	}
	next := s
	if s.ActiveSection == id {
		next.ActiveSection = ""
	} else {
		next.ActiveSection = id
	}
	return next
}
