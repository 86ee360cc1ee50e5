package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
)

// Default crawl limits.
const (
	DefaultMaxDepth    = 3
	DefaultMaxPages    = 50
	DefaultDelay       = 500 * time.Millisecond
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "a11yscan/1.0 (+https://github.com/nao1215/a11yscan)"
	DefaultMaxBodySize = model.MaxPageSize
)

// ErrUnsupportedScheme is returned for start URLs that are not http(s).
var ErrUnsupportedScheme = errors.New("start URL must use http or https")

// Spider crawls the pages of one site.
// It manages a queue of URLs to visit and respects depth and rate limits.
type Spider struct {
	client *http.Client

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// maxPages limits the total number of pages returned.
	maxPages int

	// delay is the time to wait between requests.
	delay time.Duration

	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// headers are added to every request.
	headers map[string]string

	// cookies are sent with every request.
	cookies []*http.Cookie

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only URLs matching these patterns are crawled.
	followPatterns []string

	logger *slog.Logger

	// visited tracks URLs already visited to avoid duplicates.
	visited map[string]bool

	// mutex protects visited and pageCount.
	mutex sync.Mutex

	pageCount int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to crawl.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithSpiderUserAgent sets a custom User-Agent header.
func WithSpiderUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithSpiderMaxBodySize sets the maximum response body size.
func WithSpiderMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithHeaders adds request headers, e.g. Authorization for staging sites.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithCookies sends the given cookies with every request.
func WithCookies(cookies []*http.Cookie) SpiderOption {
	return func(s *Spider) {
		s.cookies = cookies
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are crawled. The start
// URL is always fetched.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithSpiderLogger sets the logger. If not set, slog.Default() is used.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider. A nil client is replaced by one with
// DefaultTimeout.
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	s := &Spider{
		client:      client,
		maxDepth:    DefaultMaxDepth,
		maxPages:    DefaultMaxPages,
		delay:       DefaultDelay,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		visited:     make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// queueItem represents an item in the crawl queue.
type queueItem struct {
	url   string
	depth int
}

// scope is the part of a site a crawl may visit.
type scope struct {
	host   string
	prefix string
}

func newScope(start *url.URL) scope {
	p := start.Path
	switch {
	case p == "" || p == "/":
		p = "/"
	case strings.HasSuffix(p, "/"):
	case path.Ext(p) != "":
		p = path.Dir(p) + "/"
	default:
		p += "/"
	}
	if p == "//" {
		p = "/"
	}
	return scope{host: start.Host, prefix: p}
}

// contains reports whether u is on the scope host at or below its prefix.
func (sc scope) contains(u *url.URL) bool {
	if !strings.EqualFold(u.Host, sc.host) {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	return strings.HasPrefix(p, sc.prefix) || p == strings.TrimSuffix(sc.prefix, "/")
}

// Crawl fetches pages breadth first from startURL and returns the HTML
// pages in visit order.
//
// Pages that fail to load, answer with an error status, or are not HTML
// are logged and skipped. Crawl fails only for an invalid start URL, an
// unreachable start page, or a done ctx; in the last case the pages
// fetched so far are returned with the error.
func (s *Spider) Crawl(ctx context.Context, startURL string) ([]*model.Page, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if start.Scheme != "http" && start.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, startURL)
	}
	start.Fragment = ""
	sc := newScope(start)

	s.reset()

	pages := make([]*model.Page, 0)
	queue := []queueItem{{url: start.String(), depth: 0}}

	for len(queue) > 0 && len(pages) < s.maxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		item := queue[0]
		queue = queue[1:]

		if s.isVisited(item.url) {
			continue
		}
		s.markVisited(item.url)

		page, result, err := s.fetchPage(ctx, item.url, sc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return pages, ctxErr
			}
			if item.depth == 0 {
				return nil, fmt.Errorf("fetching start URL: %w", err)
			}
			s.logger.Warn("skipping page", "url", item.url, "error", err)
		} else {
			pages = append(pages, page)
			s.mutex.Lock()
			s.pageCount++
			s.mutex.Unlock()
			s.logger.Debug("page fetched", "url", page.Source, "status", page.StatusCode, "depth", item.depth)

			if item.depth < s.maxDepth && !result.NoFollow {
				for _, link := range result.InternalLinks {
					if s.isVisited(link) || !s.inScope(sc, link) || !s.shouldCrawl(link) {
						continue
					}
					queue = append(queue, queueItem{url: link, depth: item.depth + 1})
				}
			}
		}

		if s.delay > 0 && len(queue) > 0 {
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	return pages, nil
}

// Provider returns a pipeline.Provider that crawls startURL each time its
// pages are requested.
func (s *Spider) Provider(startURL string) pipeline.Provider {
	return pipeline.ProviderFunc(func(ctx context.Context) ([]*model.Page, error) {
		return s.Crawl(ctx, startURL)
	})
}

// fetchPage fetches one page and extracts its links.
func (s *Spider) fetchPage(ctx context.Context, pageURL string, sc scope) (*model.Page, *ParseResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	// Redirects are followed by the client; the final URL must stay in scope.
	final := resp.Request.URL
	if !sc.contains(final) {
		return nil, nil, fmt.Errorf("redirected out of scope to %s", final)
	}
	if final.String() != pageURL {
		s.markVisited(final.String())
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, nil, err
	}

	page := model.NewPage(final.String(), string(body))
	page.StatusCode = resp.StatusCode
	page.ContentType = resp.Header.Get("Content-Type")
	if !page.IsHTML() {
		return nil, nil, fmt.Errorf("not HTML: %s", page.ContentType)
	}

	parser, err := NewParser(final.String())
	if err != nil {
		return nil, nil, err
	}
	result, err := parser.Parse(strings.NewReader(page.Markup))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", final, err)
	}
	return page, result, nil
}

func (s *Spider) inScope(sc scope, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return sc.contains(u)
}

func (s *Spider) reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited = make(map[string]bool)
	s.pageCount = 0
}

// isVisited checks if a URL has been visited.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[normalizeURL(pageURL)]
}

// markVisited marks a URL as visited.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[normalizeURL(pageURL)] = true
}

// normalizeURL normalizes a URL for deduplication: no fragment, lowercase
// scheme and host, and "/" for an empty path.
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// Stats returns statistics of the last crawl.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesVisited: s.pageCount,
		URLsSeen:     len(s.visited),
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of pages returned.
	PagesVisited int

	// URLsSeen is the number of unique URLs requested.
	URLsSeen int
}

// shouldCrawl checks a URL against the ignore and follow patterns.
// Ignore patterns win; when follow patterns are set, one must match.
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(s.followPatterns) == 0 {
		return true
	}
	for _, pattern := range s.followPatterns {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard" and "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1"
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(p, prefix+"/") || p == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, p); err == nil && matched {
		return true
	}

	// Patterns without a slash also match the last path segment.
	if !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, path.Base(p))
		if err == nil && matched {
			return true
		}
	}

	return false
}
