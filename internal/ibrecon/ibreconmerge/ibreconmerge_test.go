// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibreconmerge

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/stretchr/testify/require"
)

func TestMergeDir(t *testing.T) {
	t.Parallel()
	for _, parallelism := range []int{1, 3} {
		merger := NewMerger(newTestLogger(), MergerWithParallelism(parallelism))
		mergedData, err := merger.MergeDir(context.Background(), filepath.Join("testdata", "statements"))
		require.NoError(t, err)

		require.Len(t, mergedData.Statements, 4)
		require.Equal(t, []string{filepath.Join("testdata", "statements", "broken.csv")}, mergedData.FailedFilePaths)

		require.Len(t, mergedData.Accounts, 2)
		require.Equal(t, "U1111111", mergedData.Accounts[0].ID)
		require.Equal(t, "Quarterly Name", mergedData.Accounts[0].Name)
		require.Equal(t, "U2222222", mergedData.Accounts[1].ID)

		// The January trades appear in both the monthly and quarterly statements.
		require.Len(t, mergedData.Trades, 4)
		var symbols []string
		for _, trade := range mergedData.Trades {
			symbols = append(symbols, trade.AccountID+":"+trade.Symbol)
		}
		require.Equal(t, []string{"U1111111:AAPL", "U1111111:AAPL", "U2222222:TSLA", "U1111111:MSFT"}, symbols)

		require.Len(t, mergedData.Positions, 1)
		require.Equal(t, "U1111111", mergedData.Positions[0].AccountID)
		require.Equal(t, "MSFT", mergedData.Positions[0].Symbol)

		require.Equal(
			t,
			[]pnlrecon.PnLRecord{
				{Symbol: "AAPL", Date: date(2026, time.January, 2), PnL: 0},
				{Symbol: "AAPL", Date: date(2026, time.January, 5), PnL: 98},
				{Symbol: "MSFT", Date: date(2026, time.February, 3), PnL: 99.5},
				{Symbol: "TSLA", Date: date(2026, time.January, 5), PnL: 49},
			},
			mergedData.PnLRecords,
		)
	}
}

func TestMergeFilesMissingFile(t *testing.T) {
	t.Parallel()
	_, err := NewMerger(newTestLogger()).MergeFiles(
		context.Background(),
		[]string{filepath.Join("testdata", "statements", "missing.csv")},
	)
	require.Error(t, err)
}

func TestMergeFilesCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMerger(newTestLogger()).MergeFiles(
		ctx,
		[]string{filepath.Join("testdata", "statements", "other.csv")},
	)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMergeFilesEmpty(t *testing.T) {
	t.Parallel()
	mergedData, err := NewMerger(newTestLogger()).MergeFiles(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, mergedData.Trades)
	require.Empty(t, mergedData.PnLRecords)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(year int, month time.Month, day int) xtime.Date {
	return xtime.Date{Year: year, Month: month, Day: day}
}
