package block

import (
	"errors"
	"io"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-blocks/pkg/dom"
)

// Scope ties closers (nav controllers, live forms) to the DOM node they
// decorate. Removing a subtree closes every closer bound inside it.
type Scope struct {
	mu      sync.Mutex
	entries []scopeEntry
}

type scopeEntry struct {
	node   *html.Node
	closer io.Closer
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Own binds closer to node.
func (s *Scope) Own(node *html.Node, closer io.Closer) {
	if s == nil || closer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, scopeEntry{node: node, closer: closer})
}

// Owned returns the closers bound to node or its descendants.
func (s *Scope) Owned(root *html.Node) []io.Closer {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []io.Closer
	for _, entry := range s.entries {
		if dom.Contains(root, entry.node) {
			out = append(out, entry.closer)
		}
	}
	return out
}

// Remove detaches root from the tree and closes everything bound inside it.
func (s *Scope) Remove(root *html.Node) error {
	if s == nil || root == nil {
		return nil
	}
	s.mu.Lock()
	var (
		closing []io.Closer
		keep    []scopeEntry
	)
	for _, entry := range s.entries {
		if dom.Contains(root, entry.node) {
			closing = append(closing, entry.closer)
			continue
		}
		keep = append(keep, entry)
	}
	s.entries = keep
	s.mu.Unlock()

	dom.Detach(root)
	return closeAll(closing)
}

// Close closes every owned closer.
func (s *Scope) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	closing := make([]io.Closer, 0, len(s.entries))
	for _, entry := range s.entries {
		closing = append(closing, entry.closer)
	}
	s.entries = nil
	s.mu.Unlock()
	return closeAll(closing)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, closer := range closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
