// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cliio provides output formatting for CLI commands (table, CSV, JSON).
package cliio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format represents the output format for CLI commands.
type Format string

const (
	// FormatTable is the default table output format.
	FormatTable Format = "table"
	// FormatCSV is the CSV output format.
	FormatCSV Format = "csv"
	// FormatJSON is the JSON output format.
	FormatJSON Format = "json"
)

// AllFormatStrings are the accepted values of a format flag.
var AllFormatStrings = []string{
	string(FormatTable),
	string(FormatCSV),
	string(FormatJSON),
}

// ParseFormat parses a string into a Format, returning an error for unknown formats.
func ParseFormat(s string) (Format, error) {
	switch format := Format(strings.ToLower(s)); format {
	case FormatTable, FormatCSV, FormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unknown format %q, must be one of: %s", s, strings.Join(AllFormatStrings, ", "))
	}
}

// Table is tabular output with an optional totals row.
type Table struct {
	Headers []string
	Rows    [][]string
	// Totals is written after a blank separator line if set. Not written for CSV.
	Totals []string
}

// WriteTable writes the table to the writer in the given format.
//
// FormatJSON is not a tabular format; use WriteJSON.
func WriteTable(writer io.Writer, format Format, table Table) error {
	switch format {
	case FormatTable:
		return writeAligned(writer, table)
	case FormatCSV:
		return WriteCSVRecords(writer, append([][]string{table.Headers}, table.Rows...))
	default:
		return fmt.Errorf("format %q is not a tabular format", format)
	}
}

// WriteCSVRecords writes CSV records to the writer.
func WriteCSVRecords(writer io.Writer, records [][]string) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.WriteAll(records); err != nil {
		return err
	}
	return csvWriter.Error()
}

// WriteJSON writes objects as JSON with newlines between each object.
func WriteJSON[O any](writer io.Writer, objects ...O) error {
	encoder := json.NewEncoder(writer)
	for _, object := range objects {
		if err := encoder.Encode(object); err != nil {
			return err
		}
	}
	return nil
}

// FormatMoney formats an amount for display in the given ISO 4217 currency,
// for example "$1,234.50" for USD.
//
// Amounts in an unknown currency, and non-finite amounts, are formatted as
// plain numbers with two decimals.
func FormatMoney(amount float64, currencyCode string) string {
	currency := money.GetCurrency(strings.ToUpper(currencyCode))
	if currency == nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return strconv.FormatFloat(amount, 'f', 2, 64)
	}
	factor := decimal.New(1, int32(currency.Fraction))
	minorUnits := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minorUnits, currency.Code).Display()
}

// FormatNumber formats a number with the fewest digits that represent it exactly.
func FormatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// writeAligned writes the table through a single tabwriter so that columns
// align between the data and totals rows.
func writeAligned(writer io.Writer, table Table) error {
	tabWriter := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	lines := append([][]string{table.Headers}, table.Rows...)
	if len(table.Totals) > 0 {
		lines = append(lines, make([]string, len(table.Headers)), table.Totals)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(tabWriter, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	return tabWriter.Flush()
}
