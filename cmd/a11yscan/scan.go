package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/checker"
	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/crawler"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
	"github.com/nao1215/a11yscan/internal/report"
)

// ErrIncidencesFound is returned when --fail-on is set and a run found
// incidences at or above that severity.
var ErrIncidencesFound = errors.New("incidences found")

// ErrUnknownChecker is returned when --only or --skip names no checker.
var ErrUnknownChecker = errors.New("unknown checker")

// scanOptions carries the settings that are not part of config.Config.
type scanOptions struct {
	cfg *config.Config

	// failOn is the lowest severity that makes the scan fail, if set.
	failOn *model.Severity

	// depthSet and pagesSet record explicit crawl flags, which win over
	// the configuration file.
	depthSet bool
	pagesSet bool

	verbose bool
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <folder|file.html|url>...",
		Short: "Check HTML documents for accessibility issues",
		Long: `Scan runs every accessibility checker over the given documents.

Each target is one of:
- a folder: every *.html file directly inside it is checked
- an HTML file
- an http(s) URL: the site is crawled from that page, staying on the
  same host and under the same path

For each target the summary is printed, incidences are appended to the
JSON store and the spreadsheet, and the run is saved to the history.

Examples:
  # Check saved pages
  a11yscan scan ./downloaded_pages

  # Crawl a site, two levels deep
  a11yscan scan -d 2 https://www.example.com/docs/

  # Only two contrast checks, Markdown summary to a file
  a11yscan scan --only placeholder-contrast,dropdown-contrast -f markdown -o report.md ./pages

  # Fail a CI job on high severity incidences
  a11yscan scan --fail-on high ./public`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yscan in current or home directory)")

	// Report flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Summary format: text, markdown or json")
	cmd.Flags().StringP("output", "o", "",
		"Write the summary to this file instead of stdout")
	cmd.Flags().String("store", config.DefaultStoreFile,
		"JSON incidence store to append to")
	cmd.Flags().Bool("no-store", false, "Do not append to the incidence store")
	cmd.Flags().String("table", config.DefaultTableFile,
		"Spreadsheet to append incidences to")
	cmd.Flags().Bool("no-table", false, "Do not append to the spreadsheet")
	cmd.Flags().Bool("no-history", false, "Do not save the run to the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().String("fail-on", "",
		"Exit with an error when incidences of this severity or higher are found (low, medium, high)")

	// Checker flags
	cmd.Flags().StringSlice("only", nil, "Run only these checkers")
	cmd.Flags().StringSlice("skip", nil, "Do not run these checkers")
	cmd.Flags().StringToString("mode", nil,
		"Report mode per family, e.g. contrast=aggregate")
	cmd.Flags().String("images-dir", checker.DefaultImagesDir,
		"Folder with downloaded images matched by file name")
	cmd.Flags().String("site-name", "", "Site name expected in page titles")

	// Processing flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of documents checked in parallel")
	cmd.Flags().Duration("document-timeout", config.DefaultDocumentTimeout,
		"Time limit for checking one document (0 = none)")

	// Crawl flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each crawl request")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum crawl depth from the start URL")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per start URL")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between crawl requests")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent sent with crawl requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	opts, err := buildScanOptions(cmd, args)
	if err != nil {
		return err
	}
	if err := opts.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	return runScan(commandContext(cmd), opts, logger, cmd.OutOrStdout())
}

// buildScanOptions creates the scan settings from flags and the
// configuration file.
func buildScanOptions(cmd *cobra.Command, args []string) (*scanOptions, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.StorePath, err = flags.GetString("store"); err != nil {
		return nil, err
	}
	if noStore, _ := flags.GetBool("no-store"); noStore {
		cfg.StorePath = ""
	}
	if cfg.TablePath, err = flags.GetString("table"); err != nil {
		return nil, err
	}
	if noTable, _ := flags.GetBool("no-table"); noTable {
		cfg.TablePath = ""
	}
	if noHistory, _ := flags.GetBool("no-history"); noHistory {
		cfg.SaveToDB = false
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	if cfg.Only, err = flags.GetStringSlice("only"); err != nil {
		return nil, err
	}
	if cfg.Skip, err = flags.GetStringSlice("skip"); err != nil {
		return nil, err
	}
	modes, err := flags.GetStringToString("mode")
	if err != nil {
		return nil, err
	}
	for family, mode := range modes {
		cfg.ReportModes[family] = mode
	}
	if cfg.ImagesDir, err = flags.GetString("images-dir"); err != nil {
		return nil, err
	}
	if cfg.SiteName, err = flags.GetString("site-name"); err != nil {
		return nil, err
	}

	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.DocumentTimeout, err = flags.GetDuration("document-timeout"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	// An explicit config path must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	opts := &scanOptions{
		cfg:      cfg,
		depthSet: flags.Changed("depth"),
		pagesSet: flags.Changed("max-pages"),
		verbose:  cfg.Verbose,
	}

	failOn, err := flags.GetString("fail-on")
	if err != nil {
		return nil, err
	}
	if failOn != "" {
		sev, err := model.ParseSeverity(failOn)
		if err != nil {
			return nil, fmt.Errorf("invalid --fail-on: %w", err)
		}
		opts.failOn = &sev
	}
	return opts, nil
}

// scanSession holds the outputs shared by every target of one scan.
type scanSession struct {
	opts   *scanOptions
	logger *slog.Logger
	writer report.Writer
	store  *report.Store
	db     *database.HistoryDB
	client *http.Client

	// registry is used for every target without its own site name.
	registry *checker.Registry
}

// runScan checks every target in turn and records the results.
func runScan(ctx context.Context, opts *scanOptions, logger *slog.Logger, stdout io.Writer) error {
	cfg := opts.cfg
	if len(cfg.Targets) == 0 {
		return config.ErrNoTarget
	}

	out := stdout
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	writer, err := newSummaryWriter(cfg.Format, out, opts.verbose)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg, "", logger)
	if err != nil {
		return err
	}

	session := &scanSession{
		opts:     opts,
		logger:   logger,
		writer:   writer,
		client:   &http.Client{Timeout: cfg.Timeout},
		registry: registry,
	}

	if cfg.StorePath != "" {
		session.store, err = report.NewStore(cfg.StorePath, report.WithStoreLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to open incidence store: %w", err)
		}
	}

	if cfg.SaveToDB {
		session.db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer session.db.Close()
		logger.Debug("database opened", "path", session.db.Path())
	}

	logger.Info("starting scan",
		"targets", cfg.Targets,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	var found []model.Incidence
	var failed []string
	for _, target := range cfg.Targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		run, err := session.scanTarget(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("scan failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
			failed = append(failed, target)
			continue
		}
		found = append(found, run.Incidences...)
	}

	if len(failed) == len(cfg.Targets) {
		return fmt.Errorf("all targets failed: %s", strings.Join(failed, ", "))
	}
	return checkFailOn(opts.failOn, found)
}

// scanTarget checks one target, writes its summary and records the run.
func (s *scanSession) scanTarget(ctx context.Context, target string) (*database.Run, error) {
	provider, siteName, err := s.providerFor(target)
	if err != nil {
		return nil, err
	}

	registry := s.registry
	if siteName != "" && s.opts.cfg.SiteName == "" {
		if registry, err = buildRegistry(s.opts.cfg, siteName, s.logger); err != nil {
			return nil, err
		}
	}
	runner := pipeline.NewRunner(registry, pipeline.WithLogger(s.logger))
	bp := pipeline.NewBatchProcessor(runner,
		pipeline.WithConcurrency(s.opts.cfg.Concurrency),
		pipeline.WithDocumentTimeout(s.opts.cfg.DocumentTimeout),
		pipeline.WithBatchLogger(s.logger),
	)

	result, err := bp.RunBatchWithCallback(ctx, provider, func(doc pipeline.DocumentResult, index int) {
		s.logger.Debug("document checked",
			"index", index+1,
			"source", doc.Page.Source,
			"incidences", len(doc.Incidences),
			"elapsed", doc.Elapsed.Round(time.Millisecond),
		)
	})
	if err != nil {
		return nil, err
	}

	run := database.NewRun(target, runner.CheckerNames(), result)
	if _, err := s.writer.Write(run.Summary()); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	s.record(ctx, run)
	return run, nil
}

// record appends the run to the store, the spreadsheet and the history.
// Failures are logged so that one broken output does not hide the others.
func (s *scanSession) record(ctx context.Context, run *database.Run) {
	cfg := s.opts.cfg
	if s.store != nil {
		if n, err := s.store.Append(ctx, run.Incidences); err != nil {
			s.logger.Error("failed to append to incidence store", "path", s.store.Path(), "error", err)
		} else {
			s.logger.Debug("incidence store updated", "path", s.store.Path(), "total", n)
		}
	}
	if cfg.TablePath != "" && len(run.Incidences) > 0 {
		if err := report.ExportTabular(ctx, run.Incidences, cfg.TablePath); err != nil {
			s.logger.Error("failed to export spreadsheet", "path", cfg.TablePath, "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.SaveRun(ctx, run); err != nil {
			s.logger.Error("failed to save run", "target", run.Target, "error", err)
		} else {
			s.logger.Info("run saved to database", "id", run.ID, "target", run.Target)
		}
	}
}

// providerFor picks the document source for target and returns the site
// name configured for it.
func (s *scanSession) providerFor(target string) (pipeline.Provider, string, error) {
	cfg := s.opts.cfg
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, "", fmt.Errorf("invalid URL %q: %w", target, err)
		}
		site := cfg.SiteFor(u.Hostname())
		return s.newSpider(site).Provider(target), site.SiteName, nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, "", fmt.Errorf("target %s: %w", target, err)
	}
	if info.IsDir() {
		return pipeline.FolderProvider{Dir: target, Logger: s.logger}, "", nil
	}
	return pipeline.FileProvider{Paths: []string{target}}, "", nil
}

// newSpider builds a crawler for one site.
func (s *scanSession) newSpider(site config.SiteConfig) *crawler.Spider {
	cfg := s.opts.cfg
	depth, pages := site.Depth, site.MaxPages
	if s.opts.depthSet {
		depth = cfg.CrawlDepth
	}
	if s.opts.pagesSet || pages == 0 {
		pages = cfg.MaxPages
	}
	if pages == 0 {
		pages = config.DefaultMaxPages
	}
	bodySize := cfg.MaxBodySize
	if bodySize == 0 {
		bodySize = config.DefaultMaxBodySize
	}

	opts := []crawler.SpiderOption{
		crawler.WithMaxDepth(depth),
		crawler.WithMaxPages(pages),
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithSpiderUserAgent(cfg.UserAgent),
		crawler.WithSpiderMaxBodySize(bodySize),
		crawler.WithSpiderLogger(s.logger),
	}
	if len(site.Headers) > 0 {
		opts = append(opts, crawler.WithHeaders(site.Headers))
	}
	if site.Cookie != "" {
		cookies, err := http.ParseCookie(site.Cookie)
		if err != nil {
			s.logger.Warn("ignoring invalid cookie configuration", "error", err)
		} else {
			opts = append(opts, crawler.WithCookies(cookies))
		}
	}
	if len(site.IgnorePatterns) > 0 {
		opts = append(opts, crawler.WithIgnorePatterns(site.IgnorePatterns))
	}
	if len(site.FollowPatterns) > 0 {
		opts = append(opts, crawler.WithFollowPatterns(site.FollowPatterns))
	}
	return crawler.NewSpider(s.client, opts...)
}

// buildRegistry creates the checker registry for a scan. siteName, when
// set, overrides the configured site name.
func buildRegistry(cfg *config.Config, siteName string, logger *slog.Logger) (*checker.Registry, error) {
	opts := cfg.CheckerOptions()
	if siteName != "" && cfg.SiteName == "" {
		opts = append(opts, checker.WithSiteName(siteName))
	}
	opts = append(opts, checker.WithLogger(logger))
	registry := checker.NewRegistry(opts...)

	for _, name := range append(append([]string{}, cfg.Only...), cfg.Skip...) {
		if _, ok := registry.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %s (see 'a11yscan checkers')", ErrUnknownChecker, name)
		}
	}
	if len(cfg.Only) > 0 {
		registry = registry.Only(cfg.Only...)
	}
	if len(cfg.Skip) > 0 {
		registry = registry.Without(cfg.Skip...)
	}
	if registry.Len() == 0 {
		return nil, errors.New("no checkers selected")
	}
	return registry, nil
}

// newSummaryWriter returns the writer for format. Text output lists
// descriptions and remediations when verbose is set.
func newSummaryWriter(format string, out io.Writer, verbose bool) (report.Writer, error) {
	if strings.EqualFold(format, string(report.FormatText)) || format == "" {
		return report.NewTextWriter(out, report.WithVerbose(verbose)), nil
	}
	return report.NewWriter(format, out)
}

// createReportFile creates path and its parent directories. Reports may
// name internal URLs, so the file is readable by the owner only.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// checkFailOn returns ErrIncidencesFound when an incidence reaches the
// threshold.
func checkFailOn(threshold *model.Severity, incidences []model.Incidence) error {
	if threshold == nil {
		return nil
	}
	count := 0
	for _, inc := range incidences {
		if inc.Severity >= *threshold {
			count++
		}
	}
	if count > 0 {
		return fmt.Errorf("%w: %d at or above %s", ErrIncidencesFound, count, *threshold)
	}
	return nil
}
