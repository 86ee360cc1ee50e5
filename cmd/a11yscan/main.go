// Package main provides the entry point for the a11yscan CLI.
//
// a11yscan audits HTML documents for accessibility problems. It checks a
// folder of saved pages, individual files, or a site crawled from a start
// URL, and reports incidences with WCAG references and remediation advice.
//
// Usage:
//
//	a11yscan scan ./pages
//	a11yscan scan https://www.example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
