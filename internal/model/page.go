package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// MaxPageSize caps the markup kept for one document (10MB).
const MaxPageSize = 10 * 1024 * 1024

// Page is one document handed to the test runner: a source identifier
// and its raw HTML. Pages come from a folder scan, explicit files or a crawl.
type Page struct {
	// Source is the URL or file path used as the incidence source identifier.
	Source string `json:"source"`

	// Markup is the raw HTML.
	Markup string `json:"-"`

	// StatusCode is the HTTP status for crawled pages, 0 for local files.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the response content type for crawled pages.
	ContentType string `json:"content_type,omitempty"`

	// Hash is the hex SHA3-256 digest of Markup.
	Hash string `json:"hash,omitempty"`
}

// NewPage creates a page with its content hash computed.
func NewPage(source, markup string) *Page {
	p := &Page{Source: source, Markup: markup}
	p.TruncateMarkup()
	p.ComputeHash()
	return p
}

// ComputeHash sets Hash from the current markup.
func (p *Page) ComputeHash() {
	if p.Markup == "" {
		p.Hash = ""
		return
	}
	sum := sha3.Sum256([]byte(p.Markup))
	p.Hash = hex.EncodeToString(sum[:])
}

// TruncateMarkup enforces MaxPageSize.
func (p *Page) TruncateMarkup() {
	if len(p.Markup) > MaxPageSize {
		p.Markup = p.Markup[:MaxPageSize]
	}
}

// IsHTML reports whether the page should be audited. Local files without a
// content type are assumed to be HTML.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	ct := strings.ToLower(p.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
