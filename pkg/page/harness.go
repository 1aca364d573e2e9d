package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/block"
	"github.com/goliatone/go-blocks/pkg/blocks/articlelist"
	"github.com/goliatone/go-blocks/pkg/blocks/artistlist"
	"github.com/goliatone/go-blocks/pkg/blocks/formblock"
	"github.com/goliatone/go-blocks/pkg/blocks/header"
	"github.com/goliatone/go-blocks/pkg/content"
	"github.com/goliatone/go-blocks/pkg/dom"
	"github.com/goliatone/go-blocks/pkg/picture"
)

// ErrBlockNotFound is returned by RenderBlock when the page has no block
// with the requested name.
var ErrBlockNotFound = errors.New("page: block not found")

// Status values written to data-block-status.
const (
	StatusInitialized = "initialized"
	StatusLoaded      = "loaded"
	StatusError       = "error"
	StatusUnknown     = "unknown"
)

// Option customises the harness configuration.
type Option func(*Harness)

// WithFetcher injects the content fetcher used for pages, fragments and the
// built-in blocks.
func WithFetcher(fetcher content.Fetcher) Option {
	return func(h *Harness) {
		h.fetcher = fetcher
	}
}

// WithRegistry injects a decorator registry. The built-in blocks are not
// registered on an injected registry; WithDecorators still are.
func WithRegistry(registry *block.Registry) Option {
	return func(h *Harness) {
		h.registry = registry
	}
}

// WithDecorators registers extra block decorators. A decorator named like a
// built-in block replaces it.
func WithDecorators(decorators ...block.Decorator) Option {
	return func(h *Harness) {
		h.extra = append(h.extra, decorators...)
	}
}

// WithOptimizer overrides the picture optimizer for the built-in list blocks.
func WithOptimizer(optimizer picture.Optimizer) Option {
	return func(h *Harness) {
		h.optimizer = optimizer
	}
}

// WithHeaderOptions configures the built-in header block.
func WithHeaderOptions(options ...header.Option) Option {
	return func(h *Harness) {
		h.headerOptions = append(h.headerOptions, options...)
	}
}

// WithFormOptions configures the built-in form block.
func WithFormOptions(options ...formblock.Option) Option {
	return func(h *Harness) {
		h.formOptions = append(h.formOptions, options...)
	}
}

// WithLogger attaches a logger shared with the built-in blocks.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Harness coordinates page decoration.
type Harness struct {
	fetcher       content.Fetcher
	registry      *block.Registry
	extra         []block.Decorator
	optimizer     picture.Optimizer
	headerOptions []header.Option
	formOptions   []formblock.Option
	logger        *zap.Logger
}

var _ block.FragmentLoader = (*Harness)(nil)

// New constructs a Harness. Missing dependencies fall back to a default
// content loader and a registry holding the built-in blocks.
func New(options ...Option) *Harness {
	h := &Harness{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	h.applyDefaults()
	return h
}

func (h *Harness) applyDefaults() {
	if h.fetcher == nil {
		h.fetcher = content.NewLoader(content.WithLogger(h.logger))
	}
	if h.optimizer == nil {
		h.optimizer = picture.MediaBus{}
	}
	if h.registry != nil {
		for _, decorator := range h.extra {
			h.registry.MustRegister(decorator)
		}
		return
	}
	h.registry = block.NewRegistry()
	for _, decorator := range h.extra {
		h.registry.MustRegister(decorator)
	}
	builtins := []block.Decorator{
		articlelist.New(
			articlelist.WithFetcher(h.fetcher),
			articlelist.WithOptimizer(h.optimizer),
			articlelist.WithLogger(h.logger),
		),
		artistlist.New(
			artistlist.WithOptimizer(h.optimizer),
			artistlist.WithLogger(h.logger),
		),
		formblock.New(append([]formblock.Option{
			formblock.WithFetcher(h.fetcher),
			formblock.WithLogger(h.logger),
		}, h.formOptions...)...),
		header.New(append([]header.Option{
			header.WithFragmentLoader(h),
			header.WithLogger(h.logger),
		}, h.headerOptions...)...),
	}
	for _, decorator := range builtins {
		if !h.registry.Has(decorator.Name()) {
			h.registry.MustRegister(decorator)
		}
	}
}

// Registry exposes the decorator registry.
func (h *Harness) Registry() *block.Registry {
	return h.registry
}

// Fetcher exposes the content fetcher.
func (h *Harness) Fetcher() content.Fetcher {
	return h.fetcher
}

// BlockResult records the outcome of one block decoration.
type BlockResult struct {
	Name   string
	Status string
	Err    error
}

// Report lists block outcomes in document order.
type Report struct {
	Blocks []BlockResult
}

// Failed returns the results whose decorator returned an error.
func (r Report) Failed() []BlockResult {
	var out []BlockResult
	for _, result := range r.Blocks {
		if result.Status == StatusError {
			out = append(out, result)
		}
	}
	return out
}

// Err joins the errors of failed blocks.
func (r Report) Err() error {
	var errs []error
	for _, result := range r.Failed() {
		errs = append(errs, fmt.Errorf("page: block %q: %w", result.Name, result.Err))
	}
	return errors.Join(errs...)
}

// Load fetches and parses the document at src.
func (h *Harness) Load(ctx context.Context, src content.Source) (*block.Page, error) {
	data, err := h.fetcher.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("page: load %s: %w", src.Location(), err)
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("page: parse %s: %w", src.Location(), err)
	}
	return block.NewPage(PageURL(src), doc), nil
}

// PageURL derives the page location used to resolve relative references.
func PageURL(src content.Source) *url.URL {
	switch src.Kind() {
	case content.SourceKindURL:
		if parsed, err := url.Parse(src.Location()); err == nil {
			return parsed
		}
	case content.SourceKindFile:
		path := src.Location()
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		return &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	case content.SourceKindFS:
		return &url.URL{Scheme: "fs", Path: "/" + src.Location()}
	}
	return nil
}

// Decorate runs the full pipeline over the page document: the header block,
// then sections, buttons and blocks of <main>. A failing block is logged,
// marked with data-block-status="error" and left as authored.
func (h *Harness) Decorate(ctx context.Context, p *block.Page) (Report, error) {
	if p == nil || p.Document == nil {
		return Report{}, errors.New("page: document is required")
	}
	var report Report

	if headerBlock := h.headerBlock(p); headerBlock != nil {
		report.Blocks = append(report.Blocks, h.decorateBlock(ctx, p, headerBlock))
	}

	if main := mainOf(p); main != nil {
		sub := h.DecorateMain(ctx, p, main)
		report.Blocks = append(report.Blocks, sub.Blocks...)
	}
	return report, nil
}

func (h *Harness) headerBlock(p *block.Page) *html.Node {
	hdr := dom.Find(p.Document, func(n *html.Node) bool { return dom.Is(n, "header") })
	if hdr == nil {
		return nil
	}
	headerBlock := dom.Element("div", dom.Options{ClassList: []string{header.Name}})
	dom.Empty(hdr)
	dom.Append(hdr, headerBlock)
	initBlock(headerBlock)
	return headerBlock
}

func mainOf(p *block.Page) *html.Node {
	return dom.Find(p.Document, func(n *html.Node) bool { return dom.Is(n, "main") })
}

// DecorateMain decorates buttons, sections and blocks below main and runs
// the block decorators.
func (h *Harness) DecorateMain(ctx context.Context, p *block.Page, main *html.Node) Report {
	DecorateButtons(main)
	DecorateSections(main)
	var report Report
	for _, node := range DecorateBlocks(main) {
		report.Blocks = append(report.Blocks, h.decorateBlock(ctx, p, node))
	}
	return report
}

// DecorateBlock wraps node as a block of p and runs its decorator.
func (h *Harness) DecorateBlock(ctx context.Context, p *block.Page, node *html.Node) BlockResult {
	initBlock(node)
	return h.decorateBlock(ctx, p, node)
}

func (h *Harness) decorateBlock(ctx context.Context, p *block.Page, node *html.Node) BlockResult {
	b := block.New(node, p)
	result := BlockResult{Name: b.Name}

	decorator, err := h.registry.Get(b.Name)
	if err != nil {
		h.logger.Debug("no decorator for block", zap.String("block", b.Name))
		result.Status = StatusUnknown
		dom.SetAttr(node, "data-block-status", result.Status)
		return result
	}

	if err := decorator.Decorate(ctx, b); err != nil {
		h.logger.Warn("block decoration failed", zap.String("block", b.Name), zap.Error(err))
		result.Status = StatusError
		result.Err = err
	} else {
		result.Status = StatusLoaded
	}
	dom.SetAttr(node, "data-block-status", result.Status)
	return result
}

// Render loads src, decorates it, serializes the document and releases the
// page scope.
func (h *Harness) Render(ctx context.Context, src content.Source) ([]byte, Report, error) {
	p, err := h.Load(ctx, src)
	if err != nil {
		return nil, Report{}, err
	}
	defer func() {
		_ = p.Close()
	}()

	report, err := h.Decorate(ctx, p)
	if err != nil {
		return nil, report, err
	}
	out, err := dom.Render(p.Document)
	if err != nil {
		return nil, report, err
	}
	return []byte(out), report, nil
}

// RenderBlock loads src and decorates only the first block named name,
// returning its serialized markup. Sections and buttons of <main> are
// decorated so the block sees the same surroundings as in a full pass.
func (h *Harness) RenderBlock(ctx context.Context, src content.Source, name string) ([]byte, BlockResult, error) {
	p, err := h.Load(ctx, src)
	if err != nil {
		return nil, BlockResult{}, err
	}
	defer func() {
		_ = p.Close()
	}()

	var node *html.Node
	if name == header.Name {
		node = h.headerBlock(p)
	} else if main := mainOf(p); main != nil {
		DecorateButtons(main)
		DecorateSections(main)
		for _, candidate := range DecorateBlocks(main) {
			if dom.AttrOr(candidate, "data-block-name", "") == name {
				node = candidate
				break
			}
		}
	}
	if node == nil {
		return nil, BlockResult{Name: name}, fmt.Errorf("%w: %q in %s", ErrBlockNotFound, name, src.Location())
	}

	result := h.decorateBlock(ctx, p, node)
	out, err := dom.Render(node)
	if err != nil {
		return nil, result, err
	}
	return []byte(out), result, nil
}
