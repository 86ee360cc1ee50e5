// Package pipeline runs the checker registry over documents.
//
// A Runner checks one document: the markup is parsed once and every
// registered checker runs on it in registry order. A BatchProcessor runs
// many documents from a Provider concurrently with errgroup, keeping the
// results in provider order. A failing checker or document is logged and
// isolated; it never stops the rest of the batch.
package pipeline
