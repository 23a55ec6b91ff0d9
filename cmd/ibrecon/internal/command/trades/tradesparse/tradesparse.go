// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package tradesparse implements the "trades parse" command.
package tradesparse

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/ibreconcmd"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconconfig"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconreport"
	"github.com/bufdev/ibrecon/internal/pkg/cliio"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrtradecsv"
	"github.com/bufdev/ibrecon/internal/standard/xos"
	"github.com/spf13/pflag"
)

// NewCommand returns a new trades parse command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " <file.csv>",
		Short: "Parse trades from a CSV export by column name",
		Long: `Parse trades from a CSV export by column name.

The file may be an Activity Statement, in which case its Trades section is used, or a
flat CSV whose first line is the header. Column names are mapped to fields with the
built-in alias table plus statements.trade_aliases from ibrecon.yaml.`,
		Args: appcmd.ExactArgs(1),
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the base directory containing ibrecon.yaml.
	Dir string
	// Format is the output format (table, csv, json).
	Format string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, ibreconcmd.DirFlagName, ".", ibreconcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, ibreconcmd.FormatFlagName, "table", ibreconcmd.FormatFlagUsage)
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	config, err := ibreconconfig.ReadConfig(flags.Dir)
	if err != nil {
		return err
	}
	filePath := container.Arg(0)
	text, err := xos.ReadFileString(filePath)
	if err != nil {
		return err
	}
	result, err := ibkrtradecsv.NewParser(ibkrtradecsv.ParserWithAliases(config.TradeAliases)).Parse(text)
	if err != nil {
		return err
	}
	logger := container.Logger()
	for _, skippedRow := range result.SkippedRows {
		logger.Warn("skipped trade row", "file", filePath, "line", skippedRow.Line, "reason", skippedRow.Reason)
	}
	writer := container.Stdout()
	if format == cliio.FormatJSON {
		return cliio.WriteJSON(writer, result.Trades...)
	}
	return cliio.WriteTable(writer, format, ibreconreport.ParsedTradesTable(result.Trades))
}
