// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package pnlrecon compares two P&L datasets keyed by symbol and date.
//
// Reconcile is pure: it never fails, and every combination of inputs maps to a
// result. A key present on only one side is a discrepancy, not an error.
package pnlrecon

import (
	"math"
	"sort"

	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the default maximum absolute P&L difference that still reconciles.
const DefaultTolerance = 0.01

// DiscrepancyType classifies a disagreement between two P&L sources.
type DiscrepancyType string

const (
	// DiscrepancyTypePnLMismatch is a key present in both sources whose P&L differs
	// by more than the tolerance.
	DiscrepancyTypePnLMismatch DiscrepancyType = "Pnl_Mismatch"
	// DiscrepancyTypeMissingSourceB is a key present only in source A.
	DiscrepancyTypeMissingSourceB DiscrepancyType = "Missing_SourceB"
	// DiscrepancyTypeMissingSourceA is a key present only in source B.
	DiscrepancyTypeMissingSourceA DiscrepancyType = "Missing_SourceA"
)

// PnLRecord is the P&L of one symbol on one date.
type PnLRecord struct {
	Symbol string     `json:"symbol" validate:"required"`
	Date   xtime.Date `json:"date"`
	PnL    float64    `json:"pnl"`
}

// Key returns the identity of the record, symbol + "_" + date.
func (r PnLRecord) Key() string {
	return r.Symbol + "_" + r.Date.String()
}

// Discrepancy is a disagreement between the sources for one key.
type Discrepancy struct {
	Key    string          `json:"key"`
	Symbol string          `json:"symbol"`
	Date   xtime.Date      `json:"date"`
	Type   DiscrepancyType `json:"type"`
	// PnLA is the source A value, or nil if the key is missing from source A.
	PnLA *float64 `json:"pnlA"`
	// PnLB is the source B value, or nil if the key is missing from source B.
	PnLB *float64 `json:"pnlB"`
	// Difference is PnLA - PnLB for mismatches, PnLA if missing from B, and
	// -PnLB if missing from A.
	Difference float64 `json:"difference"`
}

// Summary tallies a reconciliation.
type Summary struct {
	TotalSourceA        int `json:"totalSourceA"`
	TotalSourceB        int `json:"totalSourceB"`
	CountReconciled     int `json:"countReconciled"`
	CountDiscrepancies  int `json:"countDiscrepancies"`
	CountPnLMismatch    int `json:"countPnlMismatch"`
	CountMissingSourceA int `json:"countMissingSourceA"`
	CountMissingSourceB int `json:"countMissingSourceB"`
}

// Result is the output of Reconcile.
type Result struct {
	// ReconciledItems are the source A records that agree with source B, in key order.
	ReconciledItems []PnLRecord `json:"reconciledItems"`
	// Discrepancies are in key order.
	Discrepancies []Discrepancy `json:"discrepancies"`
	Summary       Summary       `json:"summary"`
}

// Reconcile compares sourceA against sourceB.
//
// Records are matched by Key. If a source holds several records for one key,
// the last one wins. A pair reconciles if the absolute difference of its P&L
// is at most tolerance. Differences are computed in decimal so that a
// difference equal to the tolerance reconciles.
//
// A NaN, infinite, or negative tolerance is replaced by DefaultTolerance. A
// pair with a non-finite P&L reconciles only if both values are the same
// infinity.
func Reconcile(sourceA []PnLRecord, sourceB []PnLRecord, tolerance float64) *Result {
	if !isFinite(tolerance) || tolerance < 0 {
		tolerance = DefaultTolerance
	}
	recordsA := recordsByKey(sourceA)
	recordsB := recordsByKey(sourceB)
	keys := make([]string, 0, len(recordsA)+len(recordsB))
	for key := range recordsA {
		keys = append(keys, key)
	}
	for key := range recordsB {
		if _, ok := recordsA[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	toleranceDecimal := decimal.NewFromFloat(tolerance)
	result := &Result{
		ReconciledItems: []PnLRecord{},
		Discrepancies:   []Discrepancy{},
		Summary: Summary{
			TotalSourceA: len(sourceA),
			TotalSourceB: len(sourceB),
		},
	}
	for _, key := range keys {
		recordA, okA := recordsA[key]
		recordB, okB := recordsB[key]
		switch {
		case okA && okB:
			difference, mismatch := compare(recordA.PnL, recordB.PnL, toleranceDecimal)
			if mismatch {
				result.Discrepancies = append(result.Discrepancies, Discrepancy{
					Key:        key,
					Symbol:     recordA.Symbol,
					Date:       recordA.Date,
					Type:       DiscrepancyTypePnLMismatch,
					PnLA:       pointer(recordA.PnL),
					PnLB:       pointer(recordB.PnL),
					Difference: difference,
				})
				result.Summary.CountPnLMismatch++
				continue
			}
			result.ReconciledItems = append(result.ReconciledItems, recordA)
			result.Summary.CountReconciled++
		case okA:
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Key:        key,
				Symbol:     recordA.Symbol,
				Date:       recordA.Date,
				Type:       DiscrepancyTypeMissingSourceB,
				PnLA:       pointer(recordA.PnL),
				Difference: recordA.PnL,
			})
			result.Summary.CountMissingSourceB++
		default:
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Key:        key,
				Symbol:     recordB.Symbol,
				Date:       recordB.Date,
				Type:       DiscrepancyTypeMissingSourceA,
				PnLB:       pointer(recordB.PnL),
				Difference: -recordB.PnL,
			})
			result.Summary.CountMissingSourceA++
		}
	}
	result.Summary.CountDiscrepancies = len(result.Discrepancies)
	return result
}

// compare returns pnlA - pnlB and whether it exceeds tolerance.
//
// Non-finite values cannot be represented in decimal and are compared as
// floats, where any NaN is a mismatch.
func compare(pnlA float64, pnlB float64, tolerance decimal.Decimal) (float64, bool) {
	if !isFinite(pnlA) || !isFinite(pnlB) {
		if pnlA == pnlB {
			return 0, false
		}
		return pnlA - pnlB, true
	}
	difference := decimal.NewFromFloat(pnlA).Sub(decimal.NewFromFloat(pnlB))
	return difference.InexactFloat64(), difference.Abs().GreaterThan(tolerance)
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

func recordsByKey(records []PnLRecord) map[string]PnLRecord {
	byKey := make(map[string]PnLRecord, len(records))
	for _, record := range records {
		byKey[record.Key()] = record
	}
	return byKey
}

func pointer(value float64) *float64 {
	return &value
}
