// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibreconmetrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconmerge"
	"github.com/bufdev/ibrecon/internal/pkg/ibkractivitycsv"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveMergedData(t *testing.T) {
	t.Parallel()
	metrics := New()
	metrics.ObserveMergedData(newTestMergedData())
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.statements.WithLabelValues("parsed")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.statements.WithLabelValues("failed")))
	require.Equal(t, 3.0, testutil.ToFloat64(metrics.warnings))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.trades))
}

func TestObserveResult(t *testing.T) {
	t.Parallel()
	metrics := New()
	metrics.ObserveResult(newTestResult())
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.sourceRecords.WithLabelValues("a")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.sourceRecords.WithLabelValues("b")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.reconciled))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.discrepancies.WithLabelValues("Missing_SourceB")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.discrepancies.WithLabelValues("Pnl_Mismatch")))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()
	metrics := New()
	metrics.ObserveMergedData(newTestMergedData())
	metrics.ObserveResult(newTestResult())
	filePath := filepath.Join(t.TempDir(), "reports", "ibrecon.prom")
	require.NoError(t, metrics.WriteTextfile(filePath))
	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.Contains(t, string(data), "ibrecon_trades_total 2\n")
	require.Contains(t, string(data), `ibrecon_statements_total{result="failed"} 1`)
	require.Contains(t, string(data), `ibrecon_discrepancies{type="Missing_SourceB"} 1`)
	require.Contains(t, string(data), "ibrecon_reconciled_records 1\n")
}

func newTestMergedData() *ibreconmerge.MergedData {
	return &ibreconmerge.MergedData{
		Statements: []ibreconmerge.Statement{
			{FilePath: "a.csv", Result: &ibkractivitycsv.Result{Success: true, Warnings: []string{"one", "two"}}},
			{FilePath: "b.csv", Result: &ibkractivitycsv.Result{Success: true}},
			{FilePath: "c.csv", Result: &ibkractivitycsv.Result{Errors: []string{"no account"}, Warnings: []string{"three"}}},
		},
		Trades: []ibreconmerge.AccountTrade{
			{AccountID: "U1111111", Trade: ibkractivitycsv.Trade{Symbol: "AAPL"}},
			{AccountID: "U1111111", Trade: ibkractivitycsv.Trade{Symbol: "MSFT"}},
		},
	}
}

func newTestResult() *pnlrecon.Result {
	date := xtime.Date{Year: 2024, Month: time.January, Day: 2}
	return pnlrecon.Reconcile(
		[]pnlrecon.PnLRecord{
			{Symbol: "AAPL", Date: date, PnL: 10},
			{Symbol: "MSFT", Date: date, PnL: 20},
		},
		[]pnlrecon.PnLRecord{
			{Symbol: "AAPL", Date: date, PnL: 10},
		},
		pnlrecon.DefaultTolerance,
	)
}
