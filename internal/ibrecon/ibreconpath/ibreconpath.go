// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibreconpath derives file paths from the ibrecon base directory.
// All layout is defined here so callers don't duplicate path construction logic.
//
// The base directory (--dir flag) contains:
//
//	ibrecon.yaml          Config file
//	statements/           User-managed Activity Statement CSVs, searched recursively
//	pnl.csv               Default authoritative P&L file (symbol,date,pnl)
//	reports/              Generated XLSX reports and the metrics textfile
package ibreconpath

import (
	"path/filepath"

	"github.com/bufdev/ibrecon/internal/standard/xos"
)

const (
	// ConfigFileName is the well-known config file name within the base directory.
	ConfigFileName = "ibrecon.yaml"
	// DefaultPnLFileName is the authoritative P&L file used when the config names none.
	DefaultPnLFileName = "pnl.csv"
	// MetricsFileName is the Prometheus textfile name within the reports directory.
	MetricsFileName = "ibrecon.prom"
)

// ConfigFilePath returns the path to the config file within the base directory.
func ConfigFilePath(dirPath string) string {
	return filepath.Join(dirPath, ConfigFileName)
}

// StatementsDirPath returns the directory for Activity Statement CSVs.
func StatementsDirPath(dirPath string) string {
	return filepath.Join(dirPath, "statements")
}

// ReportsDirPath returns the directory for generated reports.
func ReportsDirPath(dirPath string) string {
	return filepath.Join(dirPath, "reports")
}

// MetricsFilePath returns the path of the Prometheus textfile.
func MetricsFilePath(dirPath string) string {
	return filepath.Join(ReportsDirPath(dirPath), MetricsFileName)
}

// ResolvePath expands a leading ~ in path and makes a relative path relative
// to the base directory.
func ResolvePath(dirPath string, path string) (string, error) {
	expanded, err := xos.ExpandHome(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(dirPath, expanded), nil
}
