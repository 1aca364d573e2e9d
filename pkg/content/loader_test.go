package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadSheetFromHTTP(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":2,"data":[{"url":"/a","title":"A"},{"path":"/b","title":"B"}]}`))
	}))
	defer server.Close()

	loader := NewLoader(WithHTTPClient(server.Client()))
	sheet, err := LoadSheet[Row](context.Background(), loader, MustSourceFromURL(server.URL+"/index.json"))
	if err != nil {
		t.Fatalf("load sheet: %v", err)
	}

	got := []string{sheet.Data[0].Link(), sheet.Data[1].Link()}
	if diff := cmp.Diff([]string{"/a", "/b"}, got); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
	if sheet.Total != 2 {
		t.Fatalf("expected total 2, got %d", sheet.Total)
	}
}

func TestLoadTimeoutIsTyped(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	loader := NewLoader(WithHTTPClient(server.Client()), WithTimeout(20*time.Millisecond))
	_, err := loader.Load(context.Background(), MustSourceFromURL(server.URL+"/slow.json"))
	if !IsTimeout(err) {
		t.Fatalf("expected timeout fetch error, got %v", err)
	}
}

func TestLoadStatusAndParseFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	loader := NewLoader(WithHTTPClient(server.Client()))

	_, err := loader.Load(context.Background(), MustSourceFromURL(server.URL+"/missing.json"))
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != KindStatus || fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status fetch error, got %v", err)
	}

	_, err = LoadSheet[Row](context.Background(), loader, MustSourceFromURL(server.URL+"/broken.json"))
	if !errors.As(err, &fetchErr) || fetchErr.Kind != KindParse {
		t.Fatalf("expected parse fetch error, got %v", err)
	}
}

func TestLoadFromFS(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"forms/contact.json": {Data: []byte(`{"data":[{"title":"x"}]}`)},
	}
	loader := NewLoader(WithFileSystem(files))

	src, err := Resolve(nil, "/forms/contact.json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.Kind() != SourceKindFS {
		t.Fatalf("expected fs source, got %s", src.Kind())
	}
	sheet, err := LoadSheet[Row](context.Background(), loader, src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sheet.Data) != 1 || sheet.Data[0].Title != "x" {
		t.Fatalf("unexpected sheet %+v", sheet)
	}
}

func TestResolveAgainstPage(t *testing.T) {
	t.Parallel()

	page, _ := url.Parse("https://example.com/us/en/magazine")
	src, err := Resolve(page, "/query-index.json")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.Kind() != SourceKindURL || src.Location() != "https://example.com/query-index.json" {
		t.Fatalf("unexpected source %s %s", src.Kind(), src.Location())
	}

	if _, err := Resolve(page, "mailto:someone@example.com"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}
