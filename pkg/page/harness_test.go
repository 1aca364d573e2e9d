package page

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/blocks/header"
	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/nav"
)

const indexHTML = `<!DOCTYPE html><html><head><title>Home</title><meta name="nav" content="/nav"></head><body>
<header></header>
<main>
<div><h1>Adventures</h1><p><a href="/adventures">All adventures</a></p>
<div class="article-list magazine"><div><div><a href="/articles.json">/articles.json</a></div></div></div>
</div>
<div><div class="form"><div><div><a href="/forms/contact.json">/forms/contact.json</a></div></div></div></div>
<div><div class="teaser"><div><div>Soon</div></div></div>
<div class="article-list"><div><div><a href="/missing.json">/missing.json</a></div></div></div></div>
</main>
</body></html>`

const navPlain = `<div><p>top</p></div>` +
	`<div><p><a href="/">WKND</a></p></div>` +
	`<div><ul><li>Adventures<ul><li>Surf</li></ul></li><li>Magazine</li></ul></div>` +
	`<div><p>Search</p></div>`

func siteFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":         {Data: []byte(indexHTML)},
		"nav.plain.html":     {Data: []byte(navPlain)},
		"articles.json":      {Data: []byte(`{"data":[{"path":"/a","title":"A","template":"Magazine"},{"path":"/b","title":"B"}]}`)},
		"forms/contact.json": {Data: []byte(`{"data":[{"Field":"name","Label":"Name"},{"Type":"submit","Label":"Send"}]}`)},
	}
}

func newHarness(files fstest.MapFS, options ...Option) *Harness {
	base := []Option{WithFetcher(content.NewLoader(content.WithFileSystem(files)))}
	return New(append(base, options...)...)
}

func TestHarnessDecoratesPage(t *testing.T) {
	t.Parallel()

	var controller *nav.Controller
	h := newHarness(siteFS(), WithHeaderOptions(
		header.WithOnBuild(func(_ *block.Block, c *nav.Controller) { controller = c }),
	))

	p, err := h.Load(context.Background(), content.SourceFromFS("index.html"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	report, err := h.Decorate(context.Background(), p)
	if err != nil {
		t.Fatalf("decorate: %v", err)
	}

	var got []BlockResult
	for _, result := range report.Blocks {
		got = append(got, BlockResult{Name: result.Name, Status: result.Status})
	}
	want := []BlockResult{
		{Name: "header", Status: StatusLoaded},
		{Name: "article-list", Status: StatusLoaded},
		{Name: "form", Status: StatusLoaded},
		{Name: "teaser", Status: StatusUnknown},
		{Name: "article-list", Status: StatusError},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if failed := report.Failed(); len(failed) != 1 || failed[0].Err == nil {
		t.Fatalf("expected one failed block with error, got %+v", failed)
	}
	if report.Err() == nil {
		t.Fatalf("expected joined report error")
	}

	doc := goqueryDoc(p.Document)
	if n := doc.Find(".articlelist-block li").Length(); n != 1 {
		t.Fatalf("expected 1 magazine card, got %d", n)
	}
	if n := doc.Find(`a[href="/missing.json"]`).Length(); n != 1 {
		t.Fatalf("failed block must keep its link")
	}
	if n := doc.Find(`form[data-action="/forms/contact"]`).Length(); n != 1 {
		t.Fatalf("expected built form")
	}
	if n := doc.Find("header > div.header.block nav#nav .nav-sections li.nav-drop").Length(); n != 1 {
		t.Fatalf("expected decorated header with one dropdown, got %d", n)
	}
	if n := doc.Find("main > div.section.article-list-container").Length(); n != 2 {
		t.Fatalf("expected 2 article-list container sections, got %d", n)
	}
	if n := doc.Find("p.button-container > a.button").Length(); n == 0 {
		t.Fatalf("expected decorated button")
	}

	if controller == nil {
		t.Fatalf("expected nav controller")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(controller.Listeners()) != 0 {
		t.Fatalf("page close must tear down nav listeners")
	}
}

func TestHarnessRender(t *testing.T) {
	t.Parallel()

	h := newHarness(siteFS())
	out, report, err := h.Render(context.Background(), content.SourceFromFS("index.html"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(report.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(report.Blocks))
	}
	doc := goqueryDoc(mustParse(t, string(out)))
	if doc.Find(`[data-block-status="error"]`).Length() != 1 {
		t.Fatalf("expected one errored block in output")
	}
}

func TestLoadFragmentRebasesMedia(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"fragments/promo.plain.html": {Data: []byte(`<div><p><img src="./media_abc.png" alt="x"></p><picture><source srcset="./media_abc.png?width=750"></picture></div>`)},
	}
	h := newHarness(files)
	page := block.NewPage(PageURL(content.SourceFromFS("index.html")), nil)

	main, err := h.LoadFragment(context.Background(), page, "/fragments/promo.html")
	if err != nil {
		t.Fatalf("load fragment: %v", err)
	}
	img := dom.Find(main, func(n *html.Node) bool { return dom.Is(n, "img") })
	if got := dom.AttrOr(img, "src", ""); got != "fs:///fragments/media_abc.png" {
		t.Fatalf("unexpected img src %q", got)
	}
	source := dom.Find(main, func(n *html.Node) bool { return dom.Is(n, "source") })
	if got := dom.AttrOr(source, "srcset", ""); got != "fs:///fragments/media_abc.png?width=750" {
		t.Fatalf("unexpected srcset %q", got)
	}
	if !dom.HasClass(dom.FirstElementChild(main), "section") {
		t.Fatalf("fragment sections must be decorated")
	}

	if _, err := h.LoadFragment(context.Background(), page, "fragments/promo"); err == nil {
		t.Fatalf("expected relative path error")
	}
}

func TestPageURL(t *testing.T) {
	t.Parallel()

	if got := PageURL(content.SourceFromFS("us/en/index.html")).String(); got != "fs:///us/en/index.html" {
		t.Fatalf("unexpected fs page url %q", got)
	}
	if got := PageURL(content.MustSourceFromURL("https://example.com/us/en")).String(); got != "https://example.com/us/en" {
		t.Fatalf("unexpected url page url %q", got)
	}
	if got := PageURL(content.SourceFromFile("/srv/site/index.html")).String(); got != "file:///srv/site/index.html" {
		t.Fatalf("unexpected file page url %q", got)
	}
}

func TestRenderBlock(t *testing.T) {
	t.Parallel()

	h := newHarness(siteFS())
	out, result, err := h.RenderBlock(context.Background(), content.SourceFromFS("index.html"), "form")
	if err != nil {
		t.Fatalf("render block: %v", err)
	}
	if result.Status != StatusLoaded {
		t.Fatalf("expected loaded status, got %q", result.Status)
	}
	doc := goqueryDoc(mustParse(t, string(out)))
	if doc.Find(`div.form.block[data-block-status="loaded"] form`).Length() != 1 {
		t.Fatalf("unexpected block markup %s", out)
	}

	if _, _, err := h.RenderBlock(context.Background(), content.SourceFromFS("index.html"), "carousel"); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", err)
	}
}
