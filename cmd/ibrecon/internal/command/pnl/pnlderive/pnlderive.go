// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pnlderive implements the "pnl derive" command.
package pnlderive

import (
	"context"
	"io"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/ibreconcmd"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconreport"
	"github.com/bufdev/ibrecon/internal/pkg/cliio"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xos"
	"github.com/spf13/pflag"
)

// outputFlagName is the flag name for the output file.
const outputFlagName = "output"

// NewCommand returns a new pnl derive command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " [file.csv...]",
		Short: "Derive per-symbol daily P&L records from Activity Statements",
		Long: `Derive per-symbol daily P&L records from Activity Statements.

Trade P&L is summed per symbol and trade date. With --output, the records are written
to the file in the symbol,date,pnl format that reconcile reads with --pnl-file.

With no arguments, every *.csv file under <dir>/statements is parsed.`,
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
	// Output is the file to write the records to in the P&L file format.
	Output string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, ibreconcmd.DirFlagName, ".", ibreconcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, ibreconcmd.FormatFlagName, "table", ibreconcmd.FormatFlagUsage)
	flagSet.StringVar(&f.Output, outputFlagName, "", "Write the records to this file as symbol,date,pnl instead of stdout")
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
	if flags.Output != "" {
		if err := writePnLFile(flags.Output, mergedData.PnLRecords); err != nil {
			return err
		}
		container.Logger().Info("wrote pnl records", "file", flags.Output, "records", len(mergedData.PnLRecords))
		return nil
	}
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		return cliio.WriteTable(writer, format, ibreconreport.PnLRecordsTable(mergedData.PnLRecords))
	case cliio.FormatCSV:
		return pnlrecon.WritePnLRecords(writer, mergedData.PnLRecords)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, mergedData.PnLRecords...)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

func writePnLFile(filePath string, records []pnlrecon.PnLRecord) error {
	return xos.WriteFile(filePath, func(writer io.Writer) error {
		return pnlrecon.WritePnLRecords(writer, records)
	})
}
