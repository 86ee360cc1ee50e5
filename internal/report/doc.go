// Package report persists and renders incidences.
//
// The Store is the append-only JSON record of every incidence ever
// reported for a project. ExportTabular maps incidences to the "Issues"
// sheet of a workbook, and ExportEngineViolations writes axe-core and
// Lighthouse results to their own sheet. The Writer implementations render
// a model.Summary as text, Markdown or JSON.
package report
