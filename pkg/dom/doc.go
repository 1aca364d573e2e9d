// Package dom builds and mutates golang.org/x/net/html node trees for block
// decorators. Element is the declarative constructor every block uses; the
// remaining helpers cover the small surface the blocks need (classes,
// attributes, inline styles, text, tree moves, and serialization) so decorators
// never hand-assemble markup strings.
package dom
