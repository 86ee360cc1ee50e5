package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/a11yscan/internal/checker"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "a11yscan"

	// DefaultConcurrency is the number of documents checked in parallel.
	DefaultConcurrency = 10

	// DefaultDocumentTimeout bounds all checkers of one document.
	// Capability-backed checkers dominate the cost on large pages.
	DefaultDocumentTimeout = 2 * time.Minute

	// DefaultTimeout is the HTTP timeout for each crawl request.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDepth limits how many links away from the start URL the
	// crawler goes. Depth 0 checks only the start page.
	DefaultCrawlDepth = 3

	// DefaultMaxPages caps the number of pages fetched per crawl.
	DefaultMaxPages = 50

	// DefaultCrawlDelay is the politeness delay between crawl requests.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies a11yscan in HTTP requests.
	DefaultUserAgent = "a11yscan/1.0 (+https://github.com/nao1215/a11yscan)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultStoreFile is the incidence store in the working directory.
	DefaultStoreFile = "incidences.json"

	// DefaultTableFile is the spreadsheet export in the working directory.
	DefaultTableFile = "issue_report.xlsx"

	// DefaultFormat is the summary format written to stdout.
	DefaultFormat = "text"
)

// Config holds all options of a scan. It is populated from CLI flags and
// the configuration file and passed down explicitly.
type Config struct {
	// Targets are folders, HTML files or http(s) start URLs.
	Targets []string

	// Concurrency is the number of documents checked in parallel.
	Concurrency int

	// DocumentTimeout bounds the checkers of a single document.
	DocumentTimeout time.Duration

	// Timeout is the HTTP timeout for crawl requests.
	Timeout time.Duration

	// CrawlDepth is the maximum link depth followed from a start URL.
	CrawlDepth int

	// MaxPages is the maximum number of pages fetched per start URL.
	MaxPages int

	// CrawlDelay is the delay between crawl requests.
	CrawlDelay time.Duration

	// UserAgent is sent with every crawl request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// Verbose enables debug logging.
	Verbose bool

	// Format is the summary format: text, markdown or json.
	Format string

	// ReportFile receives the summary instead of stdout when set.
	ReportFile string

	// StorePath is the JSON incidence store. Empty disables the store.
	StorePath string

	// TablePath is the spreadsheet export. Empty disables the export.
	TablePath string

	// DBDir holds the run history database.
	// Defaults to the XDG data directory (~/.local/share/a11yscan on Linux).
	DBDir string

	// SaveToDB records the run in the history database.
	SaveToDB bool

	// ImagesDir holds downloaded images matched by file name.
	ImagesDir string

	// SiteName overrides the site name expected in page titles.
	SiteName string

	// ReportModes maps checker families to "per-element" or "aggregate".
	ReportModes map[string]string

	// Only restricts the scan to these checker names.
	Only []string

	// Skip removes these checker names from the scan.
	Skip []string

	// ConfigFilePath is the configuration file path. If empty, the tool
	// searches for .a11yscan in the current directory and then in the
	// user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site settings from the configuration file.
	SiteConfigs *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency:     DefaultConcurrency,
		DocumentTimeout: DefaultDocumentTimeout,
		Timeout:         DefaultTimeout,
		CrawlDepth:      DefaultCrawlDepth,
		MaxPages:        DefaultMaxPages,
		CrawlDelay:      DefaultCrawlDelay,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		Format:          DefaultFormat,
		StorePath:       DefaultStoreFile,
		TablePath:       DefaultTableFile,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
		ImagesDir:       checker.DefaultImagesDir,
		ReportModes:     make(map[string]string),
	}
}

// XDGDataDir returns the XDG data directory for a11yscan.
// On Linux: ~/.local/share/a11yscan
// On macOS: ~/Library/Application Support/a11yscan
// On Windows: %LOCALAPPDATA%\a11yscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for a11yscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for a11yscan.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// reportFormats lists the accepted summary formats.
var reportFormats = []string{"", "text", "markdown", "md", "json"}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 || c.DocumentTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if !slices.Contains(reportFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	if len(c.Only) > 0 && len(c.Skip) > 0 {
		return ErrConflictingCheckerFilters
	}
	for family, mode := range c.ReportModes {
		if !slices.Contains(checker.Families(), checker.Family(family)) {
			return fmt.Errorf("%w: unknown family %q", ErrInvalidReportMode, family)
		}
		if _, ok := checker.ParseReportMode(mode); !ok {
			return fmt.Errorf("%w: %s=%q", ErrInvalidReportMode, family, mode)
		}
	}
	return nil
}

// ApplyFile merges the checker settings of a configuration file into c.
// Values already present in c win over the file.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f
	if c.ReportModes == nil {
		c.ReportModes = make(map[string]string)
	}
	for family, mode := range f.ReportModes {
		if _, ok := c.ReportModes[family]; !ok {
			c.ReportModes[family] = mode
		}
	}
	if len(c.Only) == 0 {
		for _, name := range f.Skip {
			if !slices.Contains(c.Skip, name) {
				c.Skip = append(c.Skip, name)
			}
		}
	}
	if c.ImagesDir == "" || c.ImagesDir == checker.DefaultImagesDir {
		if f.ImagesDir != "" {
			c.ImagesDir = f.ImagesDir
		}
	}
}

// CheckerOptions converts the checker settings into registry options.
// Call Validate first; unknown modes are ignored here.
func (c *Config) CheckerOptions() []func(*checker.Options) {
	opts := []func(*checker.Options){checker.WithImagesDir(c.ImagesDir)}
	if c.SiteName != "" {
		opts = append(opts, checker.WithSiteName(c.SiteName))
	}
	families := make([]string, 0, len(c.ReportModes))
	for family := range c.ReportModes {
		families = append(families, family)
	}
	slices.Sort(families)
	for _, family := range families {
		if mode, ok := checker.ParseReportMode(c.ReportModes[family]); ok {
			opts = append(opts, checker.WithReportMode(checker.Family(family), mode))
		}
	}
	return opts
}

// SiteFor returns the crawl settings for host, merged over the defaults of
// the configuration file. Without a file the global crawl settings apply.
func (c *Config) SiteFor(host string) SiteConfig {
	site := SiteConfig{Depth: c.CrawlDepth, MaxPages: c.MaxPages}
	if c.SiteConfigs == nil {
		return site
	}
	merged := c.SiteConfigs.GetSiteConfig(host)
	if merged.Depth == 0 {
		merged.Depth = site.Depth
	}
	if merged.MaxPages == 0 {
		merged.MaxPages = site.MaxPages
	}
	return merged
}
