// Package model defines the data structures shared by every a11yscan package.
//
// The main types are:
//   - Incidence: one accessibility finding produced by a checker
//   - Severity and Category: the incidence taxonomy
//   - ElementInfo: the offending element attached to an incidence
//   - EngineResult and Violation: output of external engines such as axe-core
//   - Summary: per-run counts used by the report writers
//
// Models live in their own package so that checker, pipeline, report and
// database can share them without import cycles. All types serialize to
// JSON with the field names used by the report store.
package model
