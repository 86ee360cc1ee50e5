package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoTarget is returned when no folder, file or URL is given.
	ErrNoTarget = errors.New("no target specified: provide a folder, HTML files or a URL")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive
	// or the document timeout is negative.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDepth is returned when the crawl depth is negative.
	ErrInvalidCrawlDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidFormat is returned for an unknown summary format.
	ErrInvalidFormat = errors.New("invalid report format: use text, markdown or json")

	// ErrConflictingCheckerFilters is returned when both --only and --skip are used.
	ErrConflictingCheckerFilters = errors.New("conflicting checker filters: --only and --skip cannot be used together")

	// ErrInvalidReportMode is returned for an unknown family or mode.
	ErrInvalidReportMode = errors.New("invalid report mode")
)
