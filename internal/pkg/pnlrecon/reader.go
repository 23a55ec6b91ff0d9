// Copyright 2026 Peter Edge
//
// All rights reserved.

package pnlrecon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/go-playground/validator/v10"
)

// pnlFileHeader is the optional header line of a P&L file.
var pnlFileHeader = []string{"symbol", "date", "pnl"}

var recordValidator = validator.New(validator.WithRequiredStructEnabled())

// RowError is a problem with one row of a P&L file.
type RowError struct {
	// Row is the 1-based line number of the row within the file.
	Row     int
	Message string
}

// Error implements error.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ValidationError is returned when rows of a P&L file are malformed.
type ValidationError struct {
	// Rows are the row errors in file order.
	Rows []*RowError
}

// Error implements error.
func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Rows))
	for i, rowError := range e.Rows {
		messages[i] = rowError.Error()
	}
	return "invalid P&L file: " + strings.Join(messages, "; ")
}

// Unwrap returns the row errors.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Rows))
	for i, rowError := range e.Rows {
		errs[i] = rowError
	}
	return errs
}

// ReadPnLRecords reads the 3-column symbol,date,pnl format, dates formatted YYYY-MM-DD.
//
// A first row equal to the header symbol,date,pnl is skipped. Every malformed
// row is reported in a single *ValidationError.
func ReadPnLRecords(reader io.Reader) ([]PnLRecord, error) {
	csvReader := csv.NewReader(reader)
	// Column counts are validated per row.
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	var records []PnLRecord
	var rowErrors []*RowError
	for first := true; ; first = false {
		fields, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var parseError *csv.ParseError
			if errors.As(err, &parseError) {
				rowErrors = append(rowErrors, &RowError{Row: parseError.Line, Message: parseError.Err.Error()})
				continue
			}
			return nil, err
		}
		if first && isPnLFileHeader(fields) {
			continue
		}
		row, _ := csvReader.FieldPos(0)
		record, err := parsePnLRecord(fields)
		if err != nil {
			rowErrors = append(rowErrors, &RowError{Row: row, Message: err.Error()})
			continue
		}
		records = append(records, record)
	}
	if len(rowErrors) > 0 {
		return nil, &ValidationError{Rows: rowErrors}
	}
	return records, nil
}

// ReadPnLFile reads the P&L file at filePath.
func ReadPnLFile(filePath string) (_ []PnLRecord, retErr error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	return ReadPnLRecords(file)
}

// WritePnLRecords writes records in the format read by ReadPnLRecords, with a header.
func WritePnLRecords(writer io.Writer, records []PnLRecord) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(pnlFileHeader); err != nil {
		return err
	}
	for _, record := range records {
		if err := csvWriter.Write([]string{
			record.Symbol,
			record.Date.String(),
			strconv.FormatFloat(record.PnL, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func parsePnLRecord(fields []string) (PnLRecord, error) {
	if len(fields) != len(pnlFileHeader) {
		return PnLRecord{}, fmt.Errorf("expected %d columns, got %d", len(pnlFileHeader), len(fields))
	}
	symbol := strings.TrimSpace(fields[0])
	dateString := strings.TrimSpace(fields[1])
	date, err := xtime.ParseDate(dateString)
	if err != nil {
		return PnLRecord{}, fmt.Errorf("date %q is not formatted YYYY-MM-DD", dateString)
	}
	pnlString := strings.TrimSpace(fields[2])
	pnl, err := strconv.ParseFloat(pnlString, 64)
	if err != nil || math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		return PnLRecord{}, fmt.Errorf("pnl %q is not a number", pnlString)
	}
	record := PnLRecord{
		Symbol: symbol,
		Date:   date,
		PnL:    pnl,
	}
	if err := recordValidator.Struct(record); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return PnLRecord{}, fmt.Errorf("%s is %s", strings.ToLower(validationErrors[0].Field()), validationErrors[0].Tag())
		}
		return PnLRecord{}, err
	}
	return record, nil
}

func isPnLFileHeader(fields []string) bool {
	if len(fields) != len(pnlFileHeader) {
		return false
	}
	for i, field := range fields {
		if !strings.EqualFold(strings.TrimSpace(field), pnlFileHeader[i]) {
			return false
		}
	}
	return true
}
