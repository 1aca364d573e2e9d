package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-blocks/internal/config"
	"github.com/goliatone/go-blocks/pkg/content"
)

const artistPage = `<html><head></head><body><main><div>` +
	`<div class="artist-list"><div><div><p><a href="/artists/ana" title="Ana Ray">Ana Ray</a></p></div></div></div>` +
	`</div></main></body></html>`

const articlePage = `<html><head><meta name="nav" content="/nav"></head><body><header></header><main><div>` +
	`<div class="article-list"><div><div><a href="/articles.json">/articles.json</a></div></div></div>` +
	`</div></main></body></html>`

const articlesJSON = `{"data":[{"path":"/magazine/surf","title":"Surf","description":"Waves"}]}`

const navPlain = `<div><p>top</p></div><div><p><a href="/">WKND</a></p></div>` +
	`<div><ul><li>Adventures</li></ul></div><div><p>Search</p></div>`

func writePage(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write page: %v", err)
	}
	return path
}

// writeSite lays out files under a fresh directory and returns it.
func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	path := writePage(t, artistPage)
	out, err := runRoot(t, "render", path)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`data-block-status="loaded"`,
		`class="artist-card-body"`,
		`ana-ray-link"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderCommandResolvesSiblingContent(t *testing.T) {
	t.Parallel()

	dir := writeSite(t, map[string]string{
		"index.html":     articlePage,
		"articles.json":  articlesJSON,
		"nav.plain.html": navPlain,
	})
	out, err := runRoot(t, "render", "--strict", filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		`class="cards-card-body"`,
		`href="/magazine/surf"`,
		`nav-brand`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderCommandSiteRoot(t *testing.T) {
	t.Parallel()

	dir := writeSite(t, map[string]string{
		"magazine/index.html": articlePage,
		"articles.json":       articlesJSON,
		"nav.plain.html":      navPlain,
	})
	page := filepath.Join(dir, "magazine", "index.html")

	if _, err := runRoot(t, "render", "--strict", page); err == nil {
		t.Fatalf("expected /articles.json to be missing next to the page")
	}
	out, err := runRoot(t, "render", "--strict", "--dir", dir, page)
	if err != nil {
		t.Fatalf("render with dir: %v", err)
	}
	if !strings.Contains(out, `class="cards-card-body"`) {
		t.Fatalf("expected article cards in output:\n%s", out)
	}

	if _, err := runRoot(t, "render", "--dir", filepath.Join(dir, "magazine"), filepath.Join(dir, "articles.json")); err == nil {
		t.Fatalf("expected error for a page outside the root")
	}
}

func TestRenderCommandBlockToFile(t *testing.T) {
	t.Parallel()

	path := writePage(t, artistPage)
	target := filepath.Join(t.TempDir(), "block.html")
	if _, err := runRoot(t, "render", "--block", "artist-list", "-o", target, path); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), `<div class="artist-list block"`) {
		t.Fatalf("expected block markup only, got %s", data)
	}
}

func TestRenderCommandMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := runRoot(t, "render", filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestServeRequiresOriginOrDir(t *testing.T) {
	t.Parallel()

	_, err := runRoot(t, "serve", "--origin", "", "--dir", "")
	if err == nil || !strings.Contains(err.Error(), "an origin or a dir is required") {
		t.Fatalf("expected origin error, got %v", err)
	}
}

func TestNewServerFromDir(t *testing.T) {
	t.Parallel()

	dir := writeSite(t, map[string]string{
		"index.html":     articlePage,
		"articles.json":  articlesJSON,
		"nav.plain.html": navPlain,
	})
	cfg := config.Default()
	cfg.Dir = dir
	srv, err := newServer(cfg, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `class="cards-card-body"`) {
		t.Fatalf("expected article cards in body:\n%s", rec.Body.String())
	}

	cfg.Dir = filepath.Join(dir, "index.html")
	if _, err := newServer(cfg, nil); err == nil {
		t.Fatalf("expected error for a file dir")
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	src, root, err := parseSource("https://example.com/forms/contact.json", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if src.Kind() != content.SourceKindURL || root != "" {
		t.Fatalf("expected url source, got %q root %q", src.Kind(), root)
	}

	base := t.TempDir()
	src, root, err = parseSource(" "+filepath.Join(base, "pages", "index.html")+" ", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if src.Kind() != content.SourceKindFS || src.Location() != "index.html" {
		t.Fatalf("unexpected file source %q %q", src.Kind(), src.Location())
	}
	if root != filepath.Join(base, "pages") {
		t.Fatalf("expected page directory as root, got %q", root)
	}

	src, root, err = parseSource(filepath.Join(base, "pages", "index.html"), base)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if src.Location() != "pages/index.html" || root != base {
		t.Fatalf("unexpected rooted source %q root %q", src.Location(), root)
	}

	if _, _, err := parseSource(filepath.Join(base, "index.html"), filepath.Join(base, "pages")); err == nil {
		t.Fatalf("expected error for source outside root")
	}
}

func TestFormPageURL(t *testing.T) {
	t.Parallel()

	remote := content.MustSourceFromURL("https://example.com/forms/contact.json")
	local := content.SourceFromFile("contact.json")

	got, err := formPageURL("https://site.example/contact", "https://origin.example", remote)
	if err != nil || got.String() != "https://site.example/contact" {
		t.Fatalf("explicit page must win, got %v %v", got, err)
	}
	got, err = formPageURL("", "https://origin.example", local)
	if err != nil || got.String() != "https://origin.example" {
		t.Fatalf("origin must be used, got %v %v", got, err)
	}
	got, err = formPageURL("", "", remote)
	if err != nil || got.String() != "https://example.com/forms/contact.json" {
		t.Fatalf("form url must be used, got %v %v", got, err)
	}
	if _, err := formPageURL("", "", local); err == nil {
		t.Fatalf("expected error for local form without page")
	}
}

func TestNewHarnessWiresConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	harness, err := newHarness(cfg, nil)
	if err != nil {
		t.Fatalf("new harness: %v", err)
	}
	for _, name := range []string{"article-list", "artist-list", "form", "header"} {
		if !harness.Registry().Has(name) {
			t.Fatalf("expected %q registered", name)
		}
	}
}
