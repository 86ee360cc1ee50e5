// Package dom adapts a parsed HTML document for the accessibility checkers.
//
// A Document wraps a goquery document built on golang.org/x/net/html. Parsing
// never fails: malformed or truncated markup degrades to whatever structure
// the HTML5 parser recovers. Documents are read-only once parsed and are safe
// for concurrent use by multiple checkers.
//
// Query helpers return single-node selections in document order so that
// checkers produce deterministic incidence lists.
package dom
