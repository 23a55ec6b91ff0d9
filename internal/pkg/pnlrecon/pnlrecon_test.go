// Copyright 2026 Peter Edge
//
// All rights reserved.

package pnlrecon

import (
	"math"
	"testing"
	"time"

	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/stretchr/testify/require"
)

var (
	jan2 = xtime.Date{Year: 2024, Month: time.January, Day: 2}
	jan3 = xtime.Date{Year: 2024, Month: time.January, Day: 3}
)

func TestReconcileWithinTolerance(t *testing.T) {
	t.Parallel()
	result := Reconcile(
		[]PnLRecord{{Symbol: "AAPL", Date: jan2, PnL: 100.00}},
		[]PnLRecord{{Symbol: "AAPL", Date: jan2, PnL: 100.005}},
		DefaultTolerance,
	)
	require.Empty(t, result.Discrepancies)
	require.Equal(t, []PnLRecord{{Symbol: "AAPL", Date: jan2, PnL: 100.00}}, result.ReconciledItems)
	require.Equal(
		t,
		Summary{
			TotalSourceA:    1,
			TotalSourceB:    1,
			CountReconciled: 1,
		},
		result.Summary,
	)
}

func TestReconcileToleranceBoundary(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		pnlA     float64
		pnlB     float64
		mismatch bool
	}{
		{pnlA: 1.00, pnlB: 1.01, mismatch: false},
		{pnlA: 1.01, pnlB: 1.00, mismatch: false},
		{pnlA: 0.1, pnlB: 0.11, mismatch: false},
		{pnlA: 1.00, pnlB: 1.011, mismatch: true},
		{pnlA: -5, pnlB: 5, mismatch: true},
	} {
		result := Reconcile(
			[]PnLRecord{{Symbol: "AAPL", Date: jan2, PnL: test.pnlA}},
			[]PnLRecord{{Symbol: "AAPL", Date: jan2, PnL: test.pnlB}},
			DefaultTolerance,
		)
		if test.mismatch {
			require.Len(t, result.Discrepancies, 1, "%v", test)
			require.Equal(t, DiscrepancyTypePnLMismatch, result.Discrepancies[0].Type)
		} else {
			require.Empty(t, result.Discrepancies, "%v", test)
			require.Len(t, result.ReconciledItems, 1)
		}
	}
}

func TestReconcileMissingSourceB(t *testing.T) {
	t.Parallel()
	result := Reconcile(
		[]PnLRecord{{Symbol: "AAPL", Date: jan2, PnL: 100.00}},
		nil,
		DefaultTolerance,
	)
	require.Empty(t, result.ReconciledItems)
	require.Len(t, result.Discrepancies, 1)
	discrepancy := result.Discrepancies[0]
	require.Equal(t, DiscrepancyTypeMissingSourceB, discrepancy.Type)
	require.Equal(t, "AAPL_2024-01-02", discrepancy.Key)
	require.Equal(t, 100.00, discrepancy.Difference)
	require.NotNil(t, discrepancy.PnLA)
	require.Nil(t, discrepancy.PnLB)
	require.Equal(t, 1, result.Summary.CountMissingSourceB)
	require.Equal(t, 1, result.Summary.CountDiscrepancies)
}

func TestReconcileMixed(t *testing.T) {
	t.Parallel()
	sourceA := []PnLRecord{
		{Symbol: "AAPL", Date: jan2, PnL: 100},
		{Symbol: "MSFT", Date: jan2, PnL: 50},
		{Symbol: "TSLA", Date: jan3, PnL: -20},
		// Duplicate key, the last record wins.
		{Symbol: "AAPL", Date: jan2, PnL: 90},
	}
	sourceB := []PnLRecord{
		{Symbol: "AAPL", Date: jan2, PnL: 90.01},
		{Symbol: "MSFT", Date: jan2, PnL: 40},
		{Symbol: "NVDA", Date: jan3, PnL: 30},
	}
	result := Reconcile(sourceA, sourceB, DefaultTolerance)
	require.Equal(t, []PnLRecord{{Symbol: "AAPL", Date: jan2, PnL: 90}}, result.ReconciledItems)
	require.Equal(
		t,
		[]Discrepancy{
			{
				Key:        "MSFT_2024-01-02",
				Symbol:     "MSFT",
				Date:       jan2,
				Type:       DiscrepancyTypePnLMismatch,
				PnLA:       pointer(50),
				PnLB:       pointer(40),
				Difference: 10,
			},
			{
				Key:        "NVDA_2024-01-03",
				Symbol:     "NVDA",
				Date:       jan3,
				Type:       DiscrepancyTypeMissingSourceA,
				PnLB:       pointer(30),
				Difference: -30,
			},
			{
				Key:        "TSLA_2024-01-03",
				Symbol:     "TSLA",
				Date:       jan3,
				Type:       DiscrepancyTypeMissingSourceB,
				PnLA:       pointer(-20),
				Difference: -20,
			},
		},
		result.Discrepancies,
	)
	summary := result.Summary
	require.Equal(t, 4, summary.TotalSourceA)
	require.Equal(t, 3, summary.TotalSourceB)
	require.Equal(t, 1, summary.CountReconciled)
	require.Equal(t, 3, summary.CountDiscrepancies)
	require.Equal(
		t,
		summary.CountDiscrepancies,
		summary.CountPnLMismatch+summary.CountMissingSourceA+summary.CountMissingSourceB,
	)
}

func TestReconcileSwapSources(t *testing.T) {
	t.Parallel()
	sourceA := []PnLRecord{
		{Symbol: "AAPL", Date: jan2, PnL: 100},
		{Symbol: "MSFT", Date: jan2, PnL: 50},
		{Symbol: "TSLA", Date: jan3, PnL: 12.5},
	}
	sourceB := []PnLRecord{
		{Symbol: "AAPL", Date: jan2, PnL: 100.004},
		{Symbol: "MSFT", Date: jan2, PnL: 47.25},
		{Symbol: "NVDA", Date: jan3, PnL: 30},
	}
	forward := Reconcile(sourceA, sourceB, DefaultTolerance)
	backward := Reconcile(sourceB, sourceA, DefaultTolerance)
	require.Len(t, backward.Discrepancies, len(forward.Discrepancies))
	relabel := map[DiscrepancyType]DiscrepancyType{
		DiscrepancyTypePnLMismatch:    DiscrepancyTypePnLMismatch,
		DiscrepancyTypeMissingSourceA: DiscrepancyTypeMissingSourceB,
		DiscrepancyTypeMissingSourceB: DiscrepancyTypeMissingSourceA,
	}
	for i, discrepancy := range forward.Discrepancies {
		swapped := backward.Discrepancies[i]
		require.Equal(t, discrepancy.Key, swapped.Key)
		require.Equal(t, relabel[discrepancy.Type], swapped.Type)
		require.Equal(t, discrepancy.PnLA, swapped.PnLB)
		require.Equal(t, discrepancy.PnLB, swapped.PnLA)
		if discrepancy.Type == DiscrepancyTypePnLMismatch {
			require.Equal(t, -discrepancy.Difference, swapped.Difference)
		}
	}
	require.Equal(t, forward.Summary.CountReconciled, backward.Summary.CountReconciled)
	require.Equal(t, forward.Summary.CountMissingSourceA, backward.Summary.CountMissingSourceB)
	require.Equal(t, forward.Summary.CountMissingSourceB, backward.Summary.CountMissingSourceA)
}

func TestReconcileNonFinite(t *testing.T) {
	t.Parallel()
	result := Reconcile(
		[]PnLRecord{
			{Symbol: "AAPL", Date: jan2, PnL: math.NaN()},
			{Symbol: "MSFT", Date: jan2, PnL: math.Inf(1)},
			{Symbol: "NVDA", Date: jan2, PnL: math.Inf(1)},
			{Symbol: "TSLA", Date: jan2, PnL: math.NaN()},
		},
		[]PnLRecord{
			{Symbol: "AAPL", Date: jan2, PnL: 1},
			{Symbol: "MSFT", Date: jan2, PnL: math.Inf(1)},
			{Symbol: "NVDA", Date: jan2, PnL: math.Inf(-1)},
			{Symbol: "SPY", Date: jan2, PnL: math.Inf(1)},
		},
		DefaultTolerance,
	)
	require.Equal(
		t,
		Summary{
			TotalSourceA:        4,
			TotalSourceB:        4,
			CountReconciled:     1,
			CountDiscrepancies:  4,
			CountPnLMismatch:    2,
			CountMissingSourceA: 1,
			CountMissingSourceB: 1,
		},
		result.Summary,
	)
	require.Len(t, result.ReconciledItems, 1)
	require.Equal(t, "MSFT", result.ReconciledItems[0].Symbol)
	discrepancies := make(map[string]Discrepancy, len(result.Discrepancies))
	for _, discrepancy := range result.Discrepancies {
		discrepancies[discrepancy.Symbol] = discrepancy
	}
	require.Equal(t, DiscrepancyTypePnLMismatch, discrepancies["AAPL"].Type)
	require.True(t, math.IsNaN(discrepancies["AAPL"].Difference))
	require.Equal(t, DiscrepancyTypePnLMismatch, discrepancies["NVDA"].Type)
	require.True(t, math.IsInf(discrepancies["NVDA"].Difference, 1))
	require.Equal(t, DiscrepancyTypeMissingSourceA, discrepancies["SPY"].Type)
	require.True(t, math.IsInf(discrepancies["SPY"].Difference, -1))
	require.Equal(t, DiscrepancyTypeMissingSourceB, discrepancies["TSLA"].Type)
	require.True(t, math.IsNaN(discrepancies["TSLA"].Difference))
}

func TestReconcileInvalidTolerance(t *testing.T) {
	t.Parallel()
	for _, tolerance := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		result := Reconcile(
			[]PnLRecord{
				{Symbol: "AAPL", Date: jan2, PnL: 100.00},
				{Symbol: "AAPL", Date: jan3, PnL: 100.00},
			},
			[]PnLRecord{
				{Symbol: "AAPL", Date: jan2, PnL: 100.01},
				{Symbol: "AAPL", Date: jan3, PnL: 100.02},
			},
			tolerance,
		)
		require.Equal(t, 1, result.Summary.CountReconciled, "tolerance %v", tolerance)
		require.Equal(t, 1, result.Summary.CountPnLMismatch, "tolerance %v", tolerance)
		require.Equal(t, jan3, result.Discrepancies[0].Date, "tolerance %v", tolerance)
	}
}

func TestReconcileEmpty(t *testing.T) {
	t.Parallel()
	result := Reconcile(nil, nil, DefaultTolerance)
	require.Empty(t, result.ReconciledItems)
	require.Empty(t, result.Discrepancies)
	require.Equal(t, Summary{}, result.Summary)
}
