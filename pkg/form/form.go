package form

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/visibility"
)

const hiddenClass = "hidden"

type field struct {
	spec    FieldSpec
	kind    Kind
	wrapper *html.Node
	// control is nil for headings and legal text.
	control *html.Node
}

type boundRule struct {
	visibility.FieldRule
	wrapper *html.Node
}

// Form is a built form plus the state its listeners act on. Change and
// Toggle mirror the browser change event; Submit mirrors the submit click.
type Form struct {
	mu     sync.Mutex
	node   *html.Node
	fields []*field
	rules  []boundRule
	cfg    config
	closed bool
}

// Control describes one value-carrying control for callers that drive a
// form without a browser.
type Control struct {
	ID          string
	Label       string
	Kind        Kind
	InputType   string
	Placeholder string
	Options     []string
	Required    bool
	Hidden      bool
	Value       string
	Checked     bool
}

// Node returns the <form> element.
func (f *Form) Node() *html.Node {
	return f.node
}

// Action returns the current submission path.
func (f *Form) Action() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return dom.AttrOr(f.node, "data-action", "")
}

// Rules returns the parsed visibility rules in field order.
func (f *Form) Rules() []visibility.FieldRule {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]visibility.FieldRule, 0, len(f.rules))
	for _, rule := range f.rules {
		out = append(out, rule.FieldRule)
	}
	return out
}

// Controls lists the value-carrying controls in document order.
func (f *Form) Controls() []Control {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Control
	for _, fld := range f.fields {
		if !fld.kind.HasControl() {
			continue
		}
		ctrl := Control{
			ID:          fld.spec.Field,
			Label:       fld.spec.Label,
			Kind:        fld.kind,
			Placeholder: fld.spec.Placeholder,
			Required:    fld.spec.Required(),
			Hidden:      dom.HasClass(fld.wrapper, hiddenClass),
			Value:       controlValue(fld),
		}
		switch fld.kind {
		case KindInput:
			ctrl.InputType = fld.spec.TypeName()
		case KindCheckbox:
			ctrl.InputType = "checkbox"
			ctrl.Checked = dom.HasAttr(fld.control, "checked")
		case KindSelect:
			ctrl.Options = fld.spec.OptionValues()
		case KindTextArea, KindHeading, KindLegal, KindSubmit:
		}
		out = append(out, ctrl)
	}
	return out
}

// Change sets the value of the control with id and re-evaluates the rules.
// For checkboxes any value other than "" or "false" checks the box.
func (f *Form) Change(id, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	fld, err := f.lookup(id)
	if err != nil {
		return err
	}
	if err := setValue(fld, value); err != nil {
		return err
	}
	f.applyRules()
	return nil
}

// Toggle checks or unchecks a checkbox and re-evaluates the rules.
func (f *Form) Toggle(id string, checked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	fld, err := f.lookup(id)
	if err != nil {
		return err
	}
	if fld.kind != KindCheckbox {
		return fmt.Errorf("%w: %q is not a checkbox", ErrUnknownField, id)
	}
	setChecked(fld.control, checked)
	f.applyRules()
	return nil
}

// ApplyRules re-evaluates every visibility rule against a fresh snapshot.
func (f *Form) ApplyRules() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyRules()
}

func (f *Form) applyRules() {
	if len(f.rules) == 0 {
		return
	}
	ctx := visibility.Context{Values: f.snapshot()}
	for _, rule := range f.rules {
		visible, err := f.cfg.evaluator.Eval(rule.Rule, ctx)
		if err != nil {
			if !errors.Is(err, visibility.ErrUnsupported) {
				f.cfg.logger.Warn("form rule evaluation failed", zap.String("field", rule.FieldID), zap.Error(err))
			}
			continue
		}
		dom.ToggleClass(rule.wrapper, hiddenClass, !visible)
	}
}

// Snapshot returns the current field id to value mapping. Checked
// checkboxes contribute their value; other controls with an id contribute
// theirs.
func (f *Form) Snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Form) snapshot() map[string]string {
	values := make(map[string]string, len(f.fields))
	for _, fld := range f.fields {
		if !fld.kind.HasControl() || fld.spec.Field == "" {
			continue
		}
		if fld.kind == KindCheckbox && !dom.HasAttr(fld.control, "checked") {
			continue
		}
		values[fld.spec.Field] = controlValue(fld)
	}
	return values
}

// Close detaches the form's listeners. Further interactions return
// ErrClosed.
func (f *Form) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Form) lookup(id string) (*field, error) {
	for _, fld := range f.fields {
		if fld.spec.Field == id && fld.control != nil {
			return fld, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, id)
}

func (f *Form) submitField() *field {
	for _, fld := range f.fields {
		if fld.kind == KindSubmit {
			return fld
		}
	}
	return nil
}

func controlValue(fld *field) string {
	switch fld.kind {
	case KindCheckbox:
		return dom.AttrOr(fld.control, "value", "on")
	case KindSelect:
		if opt := selectedOption(fld.control); opt != nil {
			return optionValue(opt)
		}
		return ""
	case KindTextArea:
		return dom.TextContent(fld.control)
	case KindInput:
		return dom.AttrOr(fld.control, "value", "")
	case KindHeading, KindLegal, KindSubmit:
		return ""
	default:
		return ""
	}
}

func setValue(fld *field, value string) error {
	switch fld.kind {
	case KindCheckbox:
		setChecked(fld.control, value != "" && value != "false")
	case KindSelect:
		return selectOption(fld.control, value)
	case KindTextArea:
		dom.SetText(fld.control, value)
	case KindInput:
		dom.SetAttr(fld.control, "value", value)
	case KindHeading, KindLegal, KindSubmit:
		return fmt.Errorf("%w: %q has no value", ErrUnknownField, fld.spec.Field)
	}
	return nil
}

func setChecked(control *html.Node, checked bool) {
	if checked {
		dom.SetAttr(control, "checked", "")
		return
	}
	dom.RemoveAttr(control, "checked")
}

func options(sel *html.Node) []*html.Node {
	return dom.FindAll(sel, func(n *html.Node) bool { return dom.Is(n, "option") })
}

func selectedOption(sel *html.Node) *html.Node {
	opts := options(sel)
	for _, opt := range opts {
		if dom.HasAttr(opt, "selected") {
			return opt
		}
	}
	if len(opts) > 0 {
		return opts[0]
	}
	return nil
}

func optionValue(opt *html.Node) string {
	if value, ok := dom.Attr(opt, "value"); ok {
		return value
	}
	return dom.TextContent(opt)
}

func selectOption(sel *html.Node, value string) error {
	var match *html.Node
	for _, opt := range options(sel) {
		if optionValue(opt) == value && !dom.HasAttr(opt, "disabled") {
			match = opt
			break
		}
	}
	if match == nil {
		return fmt.Errorf("form: select %q has no option %q", dom.AttrOr(sel, "id", ""), value)
	}
	for _, opt := range options(sel) {
		dom.RemoveAttr(opt, "selected")
	}
	dom.SetAttr(match, "selected", "")
	return nil
}
