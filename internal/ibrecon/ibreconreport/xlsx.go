// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibreconreport

import (
	"errors"
	"fmt"
	"io"

	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/xuri/excelize/v2"
)

const (
	// SummarySheetName is the name of the summary worksheet.
	SummarySheetName = "Summary"
	// DiscrepanciesSheetName is the name of the discrepancies worksheet.
	DiscrepanciesSheetName = "Discrepancies"
	// ReconciledSheetName is the name of the reconciled items worksheet.
	ReconciledSheetName = "Reconciled"
)

// WriteXLSX writes the reconciliation as a workbook with Summary,
// Discrepancies, and Reconciled worksheets.
//
// P&L cells are written as numbers. Missing source values are left blank.
func WriteXLSX(writer io.Writer, result *pnlrecon.Result, tolerance float64) (retErr error) {
	file := excelize.NewFile()
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	// NewFile creates Sheet1, which becomes the summary sheet.
	if err := file.SetSheetName(file.GetSheetName(0), SummarySheetName); err != nil {
		return err
	}
	if err := writeSheet(file, SummarySheetName, summaryHeaders, summaryCells(result.Summary, tolerance)); err != nil {
		return err
	}
	discrepancyCells := make([][]any, 0, len(result.Discrepancies))
	for _, discrepancy := range result.Discrepancies {
		discrepancyCells = append(discrepancyCells, []any{
			discrepancy.Symbol,
			discrepancy.Date.String(),
			string(discrepancy.Type),
			optionalCell(discrepancy.PnLA),
			optionalCell(discrepancy.PnLB),
			discrepancy.Difference,
		})
	}
	if _, err := file.NewSheet(DiscrepanciesSheetName); err != nil {
		return err
	}
	if err := writeSheet(file, DiscrepanciesSheetName, discrepancyHeaders, discrepancyCells); err != nil {
		return err
	}
	reconciledCells := make([][]any, 0, len(result.ReconciledItems))
	for _, record := range result.ReconciledItems {
		reconciledCells = append(reconciledCells, []any{
			record.Symbol,
			record.Date.String(),
			record.PnL,
		})
	}
	if _, err := file.NewSheet(ReconciledSheetName); err != nil {
		return err
	}
	if err := writeSheet(file, ReconciledSheetName, reconciledHeaders, reconciledCells); err != nil {
		return err
	}
	_, err := file.WriteTo(writer)
	return err
}

func writeSheet(file *excelize.File, sheetName string, headers []string, rows [][]any) error {
	headerCells := make([]any, len(headers))
	for i, header := range headers {
		headerCells[i] = header
	}
	for i, cells := range append([][]any{headerCells}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheetName, i+1, err)
		}
	}
	return nil
}

func summaryCells(summary pnlrecon.Summary, tolerance float64) [][]any {
	return [][]any{
		{"tolerance", tolerance},
		{"source A records", summary.TotalSourceA},
		{"source B records", summary.TotalSourceB},
		{"reconciled", summary.CountReconciled},
		{"discrepancies", summary.CountDiscrepancies},
		{string(pnlrecon.DiscrepancyTypePnLMismatch), summary.CountPnLMismatch},
		{string(pnlrecon.DiscrepancyTypeMissingSourceA), summary.CountMissingSourceA},
		{string(pnlrecon.DiscrepancyTypeMissingSourceB), summary.CountMissingSourceB},
	}
}

// optionalCell returns the value of a nullable P&L as a cell, nil for a blank cell.
func optionalCell(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
