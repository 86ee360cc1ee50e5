// Package checker holds the accessibility rules and the registry that runs
// them.
//
// # Checkers
//
// A Checker inspects one parsed document and returns incidences. Checkers
// are stateless: thresholds and capabilities (text similarity, language
// identification, image text extraction) are bound when the Registry
// builds them, and no checker reads another checker's output.
//
// Checkers are grouped into families:
//
//   - aria: live state attributes and accessible names
//   - structure: tree-shape validity, headings, tables, page title
//   - forms: error identification
//   - language: declared versus detected page language
//   - focus: focus order, focus visibility and keyboard operability
//   - contrast: color-only cues and contrast ratios
//   - layout: text spacing, zoom and reflow heuristics
//   - timing: auto-dismissed messages and session timeouts
//   - images: text alternatives and images of text
//
// # Report modes
//
// Each checker has a default ReportMode. PerElement emits one incidence per
// offending element with element_info; Aggregate emits one incidence per
// (checker, title) listing every offender in affected_elements. Options.Modes
// overrides the default for a whole family. Page-level findings carry no
// element and are unaffected by the mode.
//
// # Capability failures
//
// Calls to injected capabilities are bounded by Options.CallTimeout. A
// failing or timed-out call becomes one "Test Execution" incidence with no
// WCAG reference and the checker moves on to the next element.
package checker
