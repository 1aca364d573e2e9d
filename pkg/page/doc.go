// Package page hosts the decoration pipeline for whole documents: it loads a
// page, decorates its sections and buttons, turns authored block regions into
// blocks, and runs the registered block decorators in document order.
//
// The Harness also serves as the fragment loader handed to blocks that embed
// other documents (the header loads its nav this way).
package page
