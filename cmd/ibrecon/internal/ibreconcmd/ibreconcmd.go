// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibreconcmd provides shared wiring for ibrecon commands that read
// statements (reading config, constructing the merger, collecting file arguments).
package ibreconcmd

import (
	"context"

	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconconfig"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconmerge"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconpath"
)

const (
	// DirFlagName is the flag name for the ibrecon base directory.
	DirFlagName = "dir"
	// DirFlagUsage is the usage of the base directory flag.
	DirFlagUsage = "The ibrecon directory containing ibrecon.yaml and statements/"
	// FormatFlagName is the flag name for the output format.
	FormatFlagName = "format"
	// FormatFlagUsage is the usage of the output format flag.
	FormatFlagUsage = "Output format (table, csv, json)"
)

// Args returns the positional arguments of the invocation.
func Args(container appext.Container) []string {
	args := make([]string, container.NumArgs())
	for i := range args {
		args[i] = container.Arg(i)
	}
	return args
}

// MergeStatements reads the config from dirPath and merges the given statement
// files, or every statement under the statements directory if none are given.
func MergeStatements(
	ctx context.Context,
	container appext.Container,
	dirPath string,
	filePaths []string,
) (*ibreconconfig.Config, *ibreconmerge.MergedData, error) {
	config, err := ibreconconfig.ReadConfig(dirPath)
	if err != nil {
		return nil, nil, err
	}
	merger := ibreconmerge.NewMerger(
		container.Logger(),
		ibreconmerge.MergerWithParallelism(config.Parallelism),
	)
	var mergedData *ibreconmerge.MergedData
	if len(filePaths) > 0 {
		mergedData, err = merger.MergeFiles(ctx, filePaths)
	} else {
		mergedData, err = merger.MergeDir(ctx, ibreconpath.StatementsDirPath(config.DirPath))
	}
	if err != nil {
		return nil, nil, err
	}
	return config, mergedData, nil
}
