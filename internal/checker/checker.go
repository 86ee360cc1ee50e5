package checker

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/imagetext"
	"github.com/nao1215/a11yscan/internal/langid"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/textsim"
)

// Family groups checkers that share a concern and a report-mode setting.
type Family string

// Checker families.
const (
	FamilyARIA      Family = "aria"
	FamilyStructure Family = "structure"
	FamilyForms     Family = "forms"
	FamilyLanguage  Family = "language"
	FamilyFocus     Family = "focus"
	FamilyContrast  Family = "contrast"
	FamilyLayout    Family = "layout"
	FamilyTiming    Family = "timing"
	FamilyImages    Family = "images"
)

// Families returns every family in registry order.
func Families() []Family {
	return []Family{
		FamilyARIA, FamilyStructure, FamilyForms, FamilyLanguage, FamilyFocus,
		FamilyContrast, FamilyLayout, FamilyTiming, FamilyImages,
	}
}

// ReportMode selects how a checker groups offending elements.
type ReportMode int

const (
	// PerElement emits one incidence per offending element.
	PerElement ReportMode = iota
	// Aggregate emits one incidence per title listing all offenders.
	Aggregate
)

// String returns "per-element" or "aggregate".
func (m ReportMode) String() string {
	if m == Aggregate {
		return "aggregate"
	}
	return "per-element"
}

// ParseReportMode reads "per-element" or "aggregate".
func ParseReportMode(s string) (ReportMode, bool) {
	switch s {
	case "per-element", "per_element", "element":
		return PerElement, true
	case "aggregate":
		return Aggregate, true
	default:
		return PerElement, false
	}
}

// Checker is one accessibility rule.
type Checker interface {
	// Name returns the registry name, e.g. "focus-order".
	Name() string

	// Family returns the checker's family.
	Family() Family

	// Check inspects doc and returns its incidences. source is recorded as
	// the page_url of every incidence. A non-nil error means the checker
	// stopped early; incidences found so far are still returned.
	Check(ctx context.Context, doc *dom.Document, source string) ([]model.Incidence, error)
}

// TextSimilarityScorer scores how much two texts say the same thing.
type TextSimilarityScorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// LanguageClassifier identifies the base language of a text fragment.
type LanguageClassifier interface {
	Classify(ctx context.Context, text string) (lang string, confidence float64, err error)
}

// TextExtractor returns the text rendered inside a local image file.
type TextExtractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}

// Options configures the built-in checkers.
type Options struct {
	// SimilarityThreshold marks alt text as redundant when its similarity
	// to adjacent text is above it.
	SimilarityThreshold float64

	// LanguageMismatchThreshold is the fraction of confidently classified
	// fragments that may disagree with <html lang> before a finding.
	LanguageMismatchThreshold float64

	// LanguageConfidence is the classifier confidence a fragment must exceed
	// to be counted.
	LanguageConfidence float64

	// MinFragmentLength skips fragments too short to classify.
	MinFragmentLength int

	// MinVisibleDuration is how long auto-dismissed content must stay up.
	MinVisibleDuration time.Duration

	// AssumedToastDuration is used for toasts that declare no duration.
	AssumedToastDuration time.Duration

	// AssumedOverlayDuration is used for overlays that declare no duration.
	AssumedOverlayDuration time.Duration

	// TextContrast is the minimum ratio for normal text (WCAG 1.4.3).
	TextContrast float64

	// UIContrast is the minimum ratio for UI components and states (WCAG 1.4.11).
	UIContrast float64

	// GenericAltOverlap is the minimum share of extracted image words that
	// the alt text must repeat.
	GenericAltOverlap float64

	// ImagesDir is the folder holding downloaded images, matched by file name.
	ImagesDir string

	// SiteName overrides og:site_name and host-derived site names.
	SiteName string

	// CallTimeout bounds every capability call.
	CallTimeout time.Duration

	// Modes overrides the default report mode per family.
	Modes map[Family]ReportMode

	// Capabilities. Nil disables the checks that need them.
	Similarity    TextSimilarityScorer
	Language      LanguageClassifier
	TextExtractor TextExtractor

	// Logger receives debug output from checkers.
	Logger *slog.Logger
}

// Default thresholds.
const (
	DefaultSimilarityThreshold       = 0.8
	DefaultLanguageMismatchThreshold = 0.2
	DefaultLanguageConfidence        = 0.8
	DefaultMinFragmentLength         = 5
	DefaultMinVisibleDuration        = 5 * time.Second
	DefaultAssumedToastDuration      = 2 * time.Second
	DefaultAssumedOverlayDuration    = 3 * time.Second
	DefaultTextContrast              = 4.5
	DefaultUIContrast                = 3.0
	DefaultGenericAltOverlap         = 0.3
	DefaultImagesDir                 = "downloaded_images"
	DefaultCallTimeout               = 10 * time.Second
)

// DefaultOptions returns the default thresholds with the built-in
// capability implementations.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold:       DefaultSimilarityThreshold,
		LanguageMismatchThreshold: DefaultLanguageMismatchThreshold,
		LanguageConfidence:        DefaultLanguageConfidence,
		MinFragmentLength:         DefaultMinFragmentLength,
		MinVisibleDuration:        DefaultMinVisibleDuration,
		AssumedToastDuration:      DefaultAssumedToastDuration,
		AssumedOverlayDuration:    DefaultAssumedOverlayDuration,
		TextContrast:              DefaultTextContrast,
		UIContrast:                DefaultUIContrast,
		GenericAltOverlap:         DefaultGenericAltOverlap,
		ImagesDir:                 DefaultImagesDir,
		CallTimeout:               DefaultCallTimeout,
		Modes:                     make(map[Family]ReportMode),
		Similarity:                textsim.New(),
		Language:                  langid.New(),
		TextExtractor:             imagetext.New(),
		Logger:                    slog.Default(),
	}
}

// WithReportMode sets the report mode of a family.
func WithReportMode(family Family, mode ReportMode) func(*Options) {
	return func(o *Options) {
		if o.Modes == nil {
			o.Modes = make(map[Family]ReportMode)
		}
		o.Modes[family] = mode
	}
}

// WithImagesDir sets the downloaded images folder.
func WithImagesDir(dir string) func(*Options) {
	return func(o *Options) {
		o.ImagesDir = dir
	}
}

// WithSiteName overrides the expected site name in page titles.
func WithSiteName(name string) func(*Options) {
	return func(o *Options) {
		o.SiteName = name
	}
}

// WithCapabilities replaces the capability implementations. Nil arguments
// keep the current value.
func WithCapabilities(sim TextSimilarityScorer, lang LanguageClassifier, text TextExtractor) func(*Options) {
	return func(o *Options) {
		if sim != nil {
			o.Similarity = sim
		}
		if lang != nil {
			o.Language = lang
		}
		if text != nil {
			o.TextExtractor = text
		}
	}
}

// WithLogger sets the checker logger.
func WithLogger(logger *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// modeFor resolves the report mode of a checker.
func (o *Options) modeFor(family Family, def ReportMode) ReportMode {
	if m, ok := o.Modes[family]; ok {
		return m
	}
	return def
}

// Registry is the ordered set of checkers run on every document.
type Registry struct {
	checkers []Checker
	options  Options
}

// NewRegistry builds a registry with every built-in checker in its fixed order.
func NewRegistry(opts ...func(*Options)) *Registry {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.CallTimeout <= 0 {
		options.CallTimeout = DefaultCallTimeout
	}

	r := &Registry{
		options:  options,
		checkers: make([]Checker, 0, 32),
	}
	for _, newChecker := range builtin {
		r.Register(newChecker(&r.options))
	}
	return r
}

// NewEmptyRegistry returns a registry with no checkers.
func NewEmptyRegistry() *Registry {
	return &Registry{options: DefaultOptions()}
}

// builtin lists the constructors of the built-in checkers in registry order.
var builtin = []func(*Options) Checker{
	newAriaLabelInDiv,
	newButtonAriaPressed,
	newTabAriaSelected,
	newAccordionAriaExpanded,
	newButtonAriaExpanded,
	newComboboxAriaExpanded,
	newInvalidElementsInList,
	newDuplicateIDs,
	newNameRoleValue,
	newInfoAndRelationships,
	newFormErrorIdentification,
	newPageTitleSiteName,
	newPageTitleLanguage,
	newFocusOrder,
	newFocusVisible,
	newKeyboardAccessibility,
	newButtonsOnlyByColor,
	newPlaceholderContrast,
	newDropdownContrast,
	newDropdownFocusContrast,
	newTextSpacingCropping,
	newMenuTextSpacing,
	newZoomTextCutoff,
	newReflow320,
	newToastErrors,
	newOverlayTimeout,
	newSessionTimeout,
	newImagesDecorative,
	newIconsInformative,
	newAltDistinction,
	newInformativeImages,
	newImagesOfText,
}

// Register appends a checker. Registering a name twice keeps both.
func (r *Registry) Register(c Checker) {
	r.checkers = append(r.checkers, c)
}

// Checkers returns the registered checkers in order.
func (r *Registry) Checkers() []Checker {
	return slices.Clone(r.checkers)
}

// Names returns the checker names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.checkers))
	for _, c := range r.checkers {
		names = append(names, c.Name())
	}
	return names
}

// Lookup returns the checker registered under name.
func (r *Registry) Lookup(name string) (Checker, bool) {
	for _, c := range r.checkers {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Without returns a copy of the registry without the named checkers.
// Unknown names are ignored.
func (r *Registry) Without(names ...string) *Registry {
	out := &Registry{options: r.options}
	for _, c := range r.checkers {
		if !slices.Contains(names, c.Name()) {
			out.checkers = append(out.checkers, c)
		}
	}
	return out
}

// Only returns a copy of the registry keeping just the named checkers, in
// registry order.
func (r *Registry) Only(names ...string) *Registry {
	out := &Registry{options: r.options}
	for _, c := range r.checkers {
		if slices.Contains(names, c.Name()) {
			out.checkers = append(out.checkers, c)
		}
	}
	return out
}

// Len returns the number of registered checkers.
func (r *Registry) Len() int {
	return len(r.checkers)
}

// Options returns the options the checkers were built with.
func (r *Registry) Options() Options {
	return r.options
}
