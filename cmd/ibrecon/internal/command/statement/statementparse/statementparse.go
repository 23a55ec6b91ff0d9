// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package statementparse implements the "statement parse" command.
package statementparse

import (
	"context"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/ibreconcmd"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconreport"
	"github.com/bufdev/ibrecon/internal/pkg/cliio"
	"github.com/bufdev/ibrecon/internal/pkg/ibkractivitycsv"
	"github.com/spf13/pflag"
)

// viewFlagName is the flag name for the data to display.
const viewFlagName = "view"

const (
	viewTrades    = "trades"
	viewPositions = "positions"
	viewAccounts  = "accounts"
)

var allViews = []string{viewTrades, viewPositions, viewAccounts}

// NewCommand returns a new statement parse command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " [file.csv...]",
		Short: "Parse Activity Statements and display their trades, positions, or accounts",
		Long: `Parse Activity Statements and display their trades, positions, or accounts.

With no arguments, every *.csv file under <dir>/statements is parsed. Trades reported
by more than one statement are shown once.

The json format writes the full parse result of each statement.`,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the base directory containing ibrecon.yaml and statements/.
	Dir string
	// Format is the output format (table, csv, json).
	Format string
	// View selects the data to display for tabular formats.
	View string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, ibreconcmd.DirFlagName, ".", ibreconcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, ibreconcmd.FormatFlagName, "table", ibreconcmd.FormatFlagUsage)
	flagSet.StringVar(&f.View, viewFlagName, viewTrades, "Data to display ("+strings.Join(allViews, ", ")+")")
}

// statementOutput is the json output for one statement.
type statementOutput struct {
	File string `json:"file"`
	*ibkractivitycsv.Result
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	_, mergedData, err := ibreconcmd.MergeStatements(ctx, container, flags.Dir, ibreconcmd.Args(container))
	if err != nil {
		return err
	}
	writer := container.Stdout()
	if format == cliio.FormatJSON {
		outputs := make([]statementOutput, len(mergedData.Statements))
		for i, statement := range mergedData.Statements {
			outputs[i] = statementOutput{File: statement.FilePath, Result: statement.Result}
		}
		return cliio.WriteJSON(writer, outputs...)
	}
	switch flags.View {
	case viewTrades:
		return cliio.WriteTable(writer, format, ibreconreport.TradesTable(mergedData.Trades))
	case viewPositions:
		return cliio.WriteTable(writer, format, ibreconreport.PositionsTable(mergedData.Positions))
	case viewAccounts:
		return cliio.WriteTable(writer, format, ibreconreport.AccountsTable(mergedData.Accounts))
	default:
		return appcmd.NewInvalidArgumentErrorf(
			"unknown --%s %q, must be one of: %s",
			viewFlagName,
			flags.View,
			strings.Join(allViews, ", "),
		)
	}
}
