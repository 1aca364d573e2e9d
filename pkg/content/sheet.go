package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Sheet is the JSON envelope served for spreadsheet-backed content.
type Sheet[T any] struct {
	Total  int `json:"total,omitempty"`
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
	Data   []T `json:"data"`
}

// Row is one entry of a content listing.
type Row struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Template    string `json:"template,omitempty"`
}

// Link returns the row URL, falling back to its path.
func (r Row) Link() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Path
}

// LoadSheet fetches src and decodes it into a Sheet.
func LoadSheet[T any](ctx context.Context, fetcher Fetcher, src Source) (Sheet[T], error) {
	var sheet Sheet[T]
	data, err := fetcher.Load(ctx, src)
	if err != nil {
		return sheet, err
	}
	if err := json.Unmarshal(data, &sheet); err != nil {
		return sheet, &FetchError{Kind: KindParse, Location: src.Location(), Err: err}
	}
	return sheet, nil
}

// Resolve turns a reference found in page markup into a Source relative to
// the page URL. http(s) pages yield URL sources, file pages yield file
// sources, and pages without a scheme (or with the fs scheme) resolve into
// the loader's fs.FS.
func Resolve(page *url.URL, ref string) (Source, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("content: parse reference %q: %w", ref, err)
	}
	if page != nil {
		parsed = page.ResolveReference(parsed)
	}
	switch parsed.Scheme {
	case "http", "https":
		return SourceFromURL(parsed.String())
	case "file":
		return SourceFromFile(parsed.Path), nil
	case "", "fs":
		name := strings.TrimPrefix(parsed.Path, "/")
		if name == "" {
			return nil, fmt.Errorf("content: empty reference %q", ref)
		}
		return SourceFromFS(name), nil
	default:
		return nil, fmt.Errorf("content: unsupported scheme %q in %q", parsed.Scheme, ref)
	}
}
