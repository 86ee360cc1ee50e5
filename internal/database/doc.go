// Package database stores the history of audit runs in SQLite.
//
// Each run records the documents it audited, with their content hashes,
// and every incidence with its fingerprint, so two runs over the same site
// can be compared: which incidences are new, which were resolved, and which
// remain.
//
// The database is a single file opened through modernc.org/sqlite, a
// CGO-free driver, in WAL mode.
package database
