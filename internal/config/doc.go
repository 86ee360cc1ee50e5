// Package config provides configuration structures and utilities for a11yscan.
// It defines the options for selecting documents, crawling sites, tuning
// checkers and choosing where reports and history are written.
package config
