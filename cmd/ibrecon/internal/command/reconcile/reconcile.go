// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package reconcile implements the "reconcile" command.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/ibrecon/cmd/ibrecon/internal/ibreconcmd"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconmetrics"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconpath"
	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconreport"
	"github.com/bufdev/ibrecon/internal/pkg/cliio"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xos"
	"github.com/spf13/pflag"
)

const (
	// pnlFileFlagName is the flag name for the authoritative P&L file.
	pnlFileFlagName = "pnl-file"
	// toleranceFlagName is the flag name for the reconciliation tolerance.
	toleranceFlagName = "tolerance"
	// xlsxFlagName is the flag name for the XLSX report path.
	xlsxFlagName = "xlsx"
	// metricsFlagName is the flag name for writing the metrics textfile.
	metricsFlagName = "metrics"
)

// NewCommand returns a new reconcile command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name + " [file.csv...]",
		Short: "Reconcile statement P&L against an authoritative P&L file",
		Long: `Reconcile statement P&L against an authoritative P&L file.

Source A is the trade P&L of the statements summed per symbol and trade date. Source B
is the authoritative P&L file, a CSV of symbol,date,pnl rows with dates as YYYY-MM-DD.

A key present in both sources reconciles if the P&L differs by at most the tolerance.
Otherwise it is a Pnl_Mismatch with difference A - B. A key only in A is Missing_SourceB
with difference A, and a key only in B is Missing_SourceA with difference -B.

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
	// PnLFile overrides reconcile.pnl_file from the config.
	PnLFile string
	// Tolerance overrides reconcile.tolerance from the config.
	Tolerance string
	// XLSX is the path to write the workbook to.
	XLSX string
	// Metrics writes the metrics textfile to <dir>/reports.
	Metrics bool
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, ibreconcmd.DirFlagName, ".", ibreconcmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, ibreconcmd.FormatFlagName, "table", ibreconcmd.FormatFlagUsage)
	flagSet.StringVar(&f.PnLFile, pnlFileFlagName, "", "The authoritative P&L file (default reconcile.pnl_file, or <dir>/pnl.csv)")
	flagSet.StringVar(&f.Tolerance, toleranceFlagName, "", "The reconciliation tolerance (default reconcile.tolerance, or 0.01)")
	flagSet.StringVar(&f.XLSX, xlsxFlagName, "", "Also write the reconciliation as an XLSX workbook to this path")
	flagSet.BoolVar(&f.Metrics, metricsFlagName, false, "Write Prometheus metrics to <dir>/reports/"+ibreconpath.MetricsFileName)
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	var tolerance *float64
	if flags.Tolerance != "" {
		value, err := strconv.ParseFloat(flags.Tolerance, 64)
		if err != nil || value < 0 {
			return appcmd.NewInvalidArgumentErrorf("--%s must be a non-negative number, got %q", toleranceFlagName, flags.Tolerance)
		}
		tolerance = &value
	}
	config, mergedData, err := ibreconcmd.MergeStatements(ctx, container, flags.Dir, ibreconcmd.Args(container))
	if err != nil {
		return err
	}
	if tolerance == nil {
		tolerance = &config.Tolerance
	}
	pnlFilePath := config.PnLFilePath
	if flags.PnLFile != "" {
		pnlFilePath, err = xos.ExpandHome(flags.PnLFile)
		if err != nil {
			return err
		}
	}
	sourceB, err := pnlrecon.ReadPnLFile(pnlFilePath)
	if err != nil {
		return err
	}
	result := pnlrecon.Reconcile(mergedData.PnLRecords, sourceB, *tolerance)
	logger := container.Logger()
	logger.Info(
		"reconciled",
		"pnl_file", pnlFilePath,
		"tolerance", *tolerance,
		"reconciled", result.Summary.CountReconciled,
		"discrepancies", result.Summary.CountDiscrepancies,
	)
	if flags.XLSX != "" {
		if err := writeXLSXFile(flags.XLSX, result, *tolerance); err != nil {
			return err
		}
		logger.Info("wrote workbook", "file", flags.XLSX)
	}
	if flags.Metrics {
		metrics := ibreconmetrics.New()
		metrics.ObserveMergedData(mergedData)
		metrics.ObserveResult(result)
		metricsFilePath := ibreconpath.MetricsFilePath(config.DirPath)
		if err := metrics.WriteTextfile(metricsFilePath); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logger.Debug("wrote metrics", "file", metricsFilePath)
	}
	writer := container.Stdout()
	switch format {
	case cliio.FormatTable:
		if err := cliio.WriteTable(writer, format, ibreconreport.SummaryTable(result, *tolerance)); err != nil {
			return err
		}
		if len(result.Discrepancies) == 0 {
			return nil
		}
		if _, err := fmt.Fprintln(writer); err != nil {
			return err
		}
		return cliio.WriteTable(writer, format, ibreconreport.DiscrepancyTable(result))
	case cliio.FormatCSV:
		return cliio.WriteTable(writer, format, ibreconreport.DiscrepancyTable(result))
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, result)
	default:
		return appcmd.NewInvalidArgumentErrorf("unsupported format: %s", format)
	}
}

func writeXLSXFile(filePath string, result *pnlrecon.Result, tolerance float64) error {
	return xos.WriteFile(filePath, func(writer io.Writer) error {
		return ibreconreport.WriteXLSX(writer, result, tolerance)
	})
}
