// Package form builds live forms from field definition sheets: the DOM, the
// conditional visibility rules, validity checks, pre-fill and submission.
package form

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/visibility"
)

// Option mutates form configuration.
type Option func(*config)

type config struct {
	logger    *zap.Logger
	evaluator visibility.Evaluator
	prefill   *PrefillRegistry
	pageURL   *url.URL
	submitter Submitter
	navigator Navigator
	now       func() time.Time
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEvaluator overrides the visibility rule evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(c *config) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithPrefill sets the pre-fill policies. Pass nil to disable pre-fill.
func WithPrefill(registry *PrefillRegistry) Option {
	return func(c *config) {
		c.prefill = registry
	}
}

// WithPageURL sets the page the form lives on. Its query feeds pre-fill and
// relative actions resolve against it.
func WithPageURL(pageURL *url.URL) Option {
	return func(c *config) {
		c.pageURL = pageURL
	}
}

// WithSubmitter overrides the transport used by Submit.
func WithSubmitter(submitter Submitter) Option {
	return func(c *config) {
		if submitter != nil {
			c.submitter = submitter
		}
	}
}

// WithNavigator receives the redirect target after a successful submit.
func WithNavigator(navigator Navigator) Option {
	return func(c *config) {
		c.navigator = navigator
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func newConfig(options []Option) config {
	cfg := config{
		logger:    zap.NewNop(),
		evaluator: visibility.Default,
		prefill:   DefaultPrefill(),
		now:       time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.submitter == nil {
		cfg.submitter = NewHTTPSubmitter(nil, content.DefaultTimeout, cfg.logger)
	}
	return cfg
}

// Load fetches a field definition sheet and builds its form. The action is
// the sheet path with the .json suffix removed.
func Load(ctx context.Context, fetcher content.Fetcher, src content.Source, options ...Option) (*Form, error) {
	sheet, err := content.LoadSheet[FieldSpec](ctx, fetcher, src)
	if err != nil {
		return nil, fmt.Errorf("form: load %s: %w", src.Location(), err)
	}
	return Build(ActionFor(src.Location()), sheet.Data, options...), nil
}

// ActionFor derives a form action from a sheet location.
func ActionFor(location string) string {
	path := location
	if parsed, err := url.Parse(location); err == nil && parsed.Path != "" {
		path = parsed.Path
	}
	path, _, _ = strings.Cut(path, ".json")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Build renders specs into a <form data-action=action>, applies pre-fill,
// and evaluates visibility rules once.
func Build(action string, specs []FieldSpec, options ...Option) *Form {
	cfg := newConfig(options)
	f := &Form{
		node: dom.Element("form", dom.Options{
			Attributes: map[string]string{"data-action": action},
		}),
		cfg: cfg,
	}

	for _, spec := range specs {
		fld := renderField(spec)
		dom.Append(f.node, fld.wrapper)
		f.fields = append(f.fields, fld)

		if strings.TrimSpace(spec.Rules) == "" {
			continue
		}
		rule, err := visibility.Parse(spec.Rules)
		if err != nil {
			cfg.logger.Warn("invalid form rule",
				zap.String("field", spec.Field),
				zap.String("rules", spec.Rules),
				zap.Error(err),
			)
			continue
		}
		f.rules = append(f.rules, boundRule{
			FieldRule: visibility.FieldRule{FieldID: spec.Field, Rule: rule},
			wrapper:   fld.wrapper,
		})
	}

	if cfg.prefill != nil {
		if policy, ok := cfg.prefill.Lookup(action); ok {
			policy.Apply(f, queryOf(cfg.pageURL))
		}
	}
	f.applyRules()
	return f
}

func queryOf(pageURL *url.URL) url.Values {
	if pageURL == nil {
		return url.Values{}
	}
	return pageURL.Query()
}

func renderField(spec FieldSpec) *field {
	typeName := spec.TypeName()
	classes := []string{fmt.Sprintf("form-%s-wrapper", typeName)}
	if style := strings.TrimSpace(spec.Style); style != "" {
		classes = append(classes, "form-"+style)
	}
	classes = append(classes, "field-wrapper")

	fld := &field{
		spec:    spec,
		kind:    spec.Kind(),
		wrapper: dom.Element("div", dom.Options{ClassList: classes}),
	}

	switch fld.kind {
	case KindSelect:
		fld.control = selectControl(spec)
		dom.Append(fld.wrapper, label(spec), fld.control)
	case KindHeading:
		dom.Append(fld.wrapper, dom.Element("h3", dom.Options{Text: spec.Label}))
	case KindLegal:
		dom.Append(fld.wrapper, dom.Element("p", dom.Options{Text: spec.Label}))
	case KindCheckbox:
		fld.control = inputControl(spec, "checkbox")
		dom.Append(fld.wrapper, fld.control, label(spec))
	case KindTextArea:
		fld.control = textAreaControl(spec)
		dom.Append(fld.wrapper, label(spec), fld.control)
	case KindSubmit:
		fld.control = dom.Element("button", dom.Options{ClassList: []string{"button"}, Text: spec.Label})
		dom.Append(fld.wrapper, fld.control)
	case KindInput:
		fld.control = inputControl(spec, typeName)
		dom.Append(fld.wrapper, label(spec), fld.control)
	}
	return fld
}

func label(spec FieldSpec) *html.Node {
	var classes []string
	if spec.Required() {
		classes = append(classes, "required")
	}
	return dom.Element("label", dom.Options{
		Attributes: map[string]string{"for": spec.Field},
		ClassList:  classes,
		Text:       spec.Label,
	})
}

func controlAttributes(spec FieldSpec) map[string]string {
	attrs := map[string]string{"id": spec.Field}
	if spec.Placeholder != "" {
		attrs["placeholder"] = spec.Placeholder
	}
	if spec.Required() {
		attrs["required"] = "required"
	}
	return attrs
}

func inputControl(spec FieldSpec, inputType string) *html.Node {
	attrs := controlAttributes(spec)
	attrs["type"] = inputType
	return dom.Element("input", dom.Options{Attributes: attrs})
}

func textAreaControl(spec FieldSpec) *html.Node {
	return dom.Element("textarea", dom.Options{Attributes: controlAttributes(spec)})
}

func selectControl(spec FieldSpec) *html.Node {
	attrs := map[string]string{"id": spec.Field}
	if spec.Required() {
		attrs["required"] = "required"
	}
	sel := dom.Element("select", dom.Options{Attributes: attrs})
	if spec.Placeholder != "" {
		dom.Append(sel, dom.Element("option", dom.Options{
			Attributes: map[string]string{"disabled": "", "selected": "", "value": ""},
			Text:       spec.Placeholder,
		}))
	}
	for _, value := range spec.OptionValues() {
		dom.Append(sel, dom.Element("option", dom.Options{
			Attributes: map[string]string{"value": value},
			Text:       value,
		}))
	}
	return sel
}
