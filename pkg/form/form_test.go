package form

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
)

func countrySpecs() []FieldSpec {
	return []FieldSpec{
		{Field: "country", Type: "select", Label: "Country", Options: "US, CA"},
		{
			Field: "state", Label: "State",
			Rules: `{"type":"visible","condition":{"key":"country","operator":"eq","value":"US"}}`,
		},
	}
}

func wrapperOf(t *testing.T, f *Form, id string) *html.Node {
	t.Helper()
	control := dom.ByID(f.Node(), id)
	if control == nil {
		t.Fatalf("control %q not found", id)
	}
	wrapper := dom.Closest(control, func(n *html.Node) bool { return dom.HasClass(n, "field-wrapper") })
	if wrapper == nil {
		t.Fatalf("wrapper for %q not found", id)
	}
	return wrapper
}

func TestBuildMarkup(t *testing.T) {
	t.Parallel()

	f := Build("/forms/contact", []FieldSpec{
		{Field: "email", Type: "email", Label: "Email", Placeholder: "you@example.com", Mandatory: "x", Style: "half"},
		{Field: "topic", Type: "select", Label: "Topic", Placeholder: "Choose", Options: "Sales, Support,"},
		{Type: "heading", Label: "About you"},
		{Type: "legal", Label: "We never share data."},
		{Field: "terms", Type: "checkbox", Label: "I agree", Mandatory: "x"},
		{Field: "message", Type: "text-area", Label: "Message"},
		{Type: "submit", Label: "Send"},
	}, WithPrefill(nil))

	got, err := dom.Render(f.Node())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<form data-action="/forms/contact">` +
		`<div class="form-email-wrapper form-half field-wrapper"><label for="email" class="required">Email</label><input id="email" placeholder="you@example.com" required="required" type="email"/></div>` +
		`<div class="form-select-wrapper field-wrapper"><label for="topic">Topic</label><select id="topic"><option disabled="" selected="" value="">Choose</option><option value="Sales">Sales</option><option value="Support">Support</option></select></div>` +
		`<div class="form-heading-wrapper field-wrapper"><h3>About you</h3></div>` +
		`<div class="form-legal-wrapper field-wrapper"><p>We never share data.</p></div>` +
		`<div class="form-checkbox-wrapper field-wrapper"><input id="terms" required="required" type="checkbox"/><label for="terms" class="required">I agree</label></div>` +
		`<div class="form-text-area-wrapper field-wrapper"><label for="message">Message</label><textarea id="message"></textarea></div>` +
		`<div class="form-submit-wrapper field-wrapper"><button class="button">Send</button></div>` +
		`</form>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("form markup mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeNamesAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	f := Build("/forms/mixed", []FieldSpec{
		{Field: "topic", Type: " Select ", Label: "Topic", Options: "Sales"},
		{Field: "mail", Type: "EMAIL", Label: "Mail"},
	})
	got, err := dom.Render(f.Node())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`<div class="form-select-wrapper field-wrapper"><label for="topic">Topic</label><select id="topic">`,
		`<div class="form-email-wrapper field-wrapper"><label for="mail">Mail</label><input id="mail" type="email"/>`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in markup:\n%s", want, got)
		}
	}
}

func TestMandatoryFieldsAreRequired(t *testing.T) {
	t.Parallel()

	specs := []FieldSpec{
		{Field: "name", Label: "Name", Mandatory: "x"},
		{Field: "bio", Type: "text-area", Label: "Bio", Mandatory: "x"},
		{Field: "size", Type: "select", Label: "Size", Options: "S,M", Mandatory: "x"},
		{Field: "ok", Type: "checkbox", Label: "OK", Mandatory: "x"},
		{Field: "nick", Label: "Nick"},
	}
	f := Build("/forms/profile", specs)

	for _, spec := range specs {
		control := dom.ByID(f.Node(), spec.Field)
		lbl := dom.Find(f.Node(), func(n *html.Node) bool {
			return dom.Is(n, "label") && dom.AttrOr(n, "for", "") == spec.Field
		})
		if got := dom.AttrOr(control, "required", ""); (got == "required") != spec.Required() {
			t.Fatalf("%s: required attribute = %q, mandatory %v", spec.Field, got, spec.Required())
		}
		if dom.HasClass(lbl, "required") != spec.Required() {
			t.Fatalf("%s: label required class mismatch", spec.Field)
		}
	}
}

func TestVisibilityRuleTracksChanges(t *testing.T) {
	t.Parallel()

	f := Build("/forms/address", countrySpecs())
	state := wrapperOf(t, f, "state")

	if diff := cmp.Diff(map[string]string{"country": "US", "state": ""}, f.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if dom.HasClass(state, "hidden") {
		t.Fatalf("expected state wrapper visible for US")
	}

	if err := f.Change("country", "CA"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if !dom.HasClass(state, "hidden") {
		t.Fatalf("expected state wrapper hidden for CA")
	}

	if err := f.Change("country", "US"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if dom.HasClass(state, "hidden") {
		t.Fatalf("expected state wrapper visible again")
	}

	if err := f.Change("country", "MX"); err == nil {
		t.Fatalf("expected unknown option error")
	}
	if err := f.Change("missing", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestMalformedRuleDoesNotBlockRendering(t *testing.T) {
	t.Parallel()

	f := Build("/forms/broken", []FieldSpec{
		{Field: "first", Label: "First"},
		{Field: "second", Label: "Second", Rules: "{bad json"},
		{Field: "third", Label: "Third"},
	})

	wrappers := dom.FindAll(f.Node(), func(n *html.Node) bool { return dom.HasClass(n, "field-wrapper") })
	if len(wrappers) != 3 {
		t.Fatalf("expected 3 wrappers, got %d", len(wrappers))
	}
	for _, id := range []string{"first", "second", "third"} {
		if dom.ByID(f.Node(), id) == nil {
			t.Fatalf("expected control %q", id)
		}
	}
	if len(f.Rules()) != 0 {
		t.Fatalf("expected malformed rule to be dropped")
	}
}

func TestCheckboxSnapshot(t *testing.T) {
	t.Parallel()

	f := Build("/forms/news", []FieldSpec{
		{Field: "subscribe", Type: "checkbox", Label: "Subscribe"},
	})
	if _, ok := f.Snapshot()["subscribe"]; ok {
		t.Fatalf("unchecked checkbox should not contribute")
	}
	if err := f.Toggle("subscribe", true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := f.Snapshot()["subscribe"]; got != "on" {
		t.Fatalf("expected default checkbox value on, got %q", got)
	}
	if err := f.Change("subscribe", "false"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, ok := f.Snapshot()["subscribe"]; ok {
		t.Fatalf("expected checkbox cleared")
	}
}

func TestControls(t *testing.T) {
	t.Parallel()

	f := Build("/forms/address", append(countrySpecs(), FieldSpec{Type: "submit", Label: "Go"}))
	if err := f.Change("country", "CA"); err != nil {
		t.Fatalf("change: %v", err)
	}

	want := []Control{
		{ID: "country", Label: "Country", Kind: KindSelect, Options: []string{"US", "CA"}, Value: "CA"},
		{ID: "state", Label: "State", Kind: KindInput, InputType: "text", Hidden: true},
	}
	if diff := cmp.Diff(want, f.Controls()); diff != "" {
		t.Fatalf("controls mismatch (-want +got):\n%s", diff)
	}
}

func TestPrefillPolicy(t *testing.T) {
	t.Parallel()

	specs := []FieldSpec{
		{Field: "owner", Label: "Owner"},
		{Field: "installationId", Label: "Installation"},
	}
	page, _ := url.Parse("https://example.com/tools/bot/register?owner=octocat&id=42")

	f := Build(RegisterFormRoute, specs, WithPageURL(page))
	if diff := cmp.Diff(map[string]string{"owner": "octocat", "installationId": "42"}, f.Snapshot()); diff != "" {
		t.Fatalf("prefill mismatch (-want +got):\n%s", diff)
	}

	other := Build("/forms/other", specs, WithPageURL(page))
	if diff := cmp.Diff(map[string]string{"owner": "", "installationId": ""}, other.Snapshot()); diff != "" {
		t.Fatalf("unexpected prefill on other route (-want +got):\n%s", diff)
	}

	registry, err := NewPrefillRegistry(PrefillPolicy{Route: "/forms/other", Params: map[string]string{"who": "owner"}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	custom := Build("/forms/other", specs, WithPageURL(page), WithPrefill(registry))
	if got := custom.Snapshot()["owner"]; got != "" {
		t.Fatalf("expected missing param to fill empty string, got %q", got)
	}
	if _, err := NewPrefillRegistry(PrefillPolicy{Route: "/x"}); err == nil {
		t.Fatalf("expected error for policy without params")
	}
}

func TestCloseRejectsInteractions(t *testing.T) {
	t.Parallel()

	f := Build("/forms/address", countrySpecs())
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.Change("country", "CA"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from submit, got %v", err)
	}
}

func TestLoadDerivesAction(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"forms/contact.json": {Data: []byte(`{"data":[{"Field":"name","Label":"Name"},{"Type":"submit","Label":"Send"}]}`)},
	}
	loader := content.NewLoader(content.WithFileSystem(files))

	f, err := Load(context.Background(), loader, content.SourceFromFS("forms/contact.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := f.Action(); got != "/forms/contact" {
		t.Fatalf("expected action /forms/contact, got %q", got)
	}

	if _, err := Load(context.Background(), loader, content.SourceFromFS("forms/missing.json")); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestActionFor(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://example.com/tools/bot/register-form.json":     "/tools/bot/register-form",
		"https://example.com/forms/contact.json?sheet=default": "/forms/contact",
		"forms/contact.json":                                   "/forms/contact",
		"/srv/site/forms/contact.json":                         "/srv/site/forms/contact",
	}
	for location, want := range tests {
		if got := ActionFor(location); got != want {
			t.Fatalf("ActionFor(%q) = %q, want %q", location, got, want)
		}
	}
}
