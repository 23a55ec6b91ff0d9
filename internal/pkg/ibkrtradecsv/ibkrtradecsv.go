// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibkrtradecsv parses trade rows from broker CSV exports by header name.
//
// This is the lightweight trade parser: it reads the Trades section of an IBKR
// Activity Statement (or a flat CSV whose first line is the header), maps each
// Data row through a header alias table, and tracks the running position per
// symbol. A trade is a close iff it carries a realized P&L value, in which case
// its realized P&L is proceeds - basis - commission.
package ibkrtradecsv

import (
	"fmt"
	"math"
	"strings"

	"github.com/bufdev/ibrecon/internal/pkg/csvline"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrheader"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrsection"
)

const (
	// tradesSectionName is the name of the statement section holding trades.
	tradesSectionName = "Trades"
	// forexAssetCategory is the asset category of currency conversions, which
	// carry no cost basis.
	forexAssetCategory = "Forex"
)

// RequiredKeys are the canonical keys every trade row must carry.
var RequiredKeys = []ibkrheader.Key{
	ibkrheader.KeySymbol,
	ibkrheader.KeyQuantity,
	ibkrheader.KeyPrice,
	ibkrheader.KeyCommissionFee,
	ibkrheader.KeyDateTime,
	ibkrheader.KeyProceeds,
	ibkrheader.KeyBasis,
}

// ParsedTrade is a normalized trade row with its derived fields.
type ParsedTrade struct {
	// Line is the 1-based line number of the row in the source text.
	Line int `json:"line"`
	// Row is the canonical row the trade was built from. Not serialized, as
	// unparsable numbers are NaN.
	Row ibkrheader.Row `json:"-"`

	Symbol        string  `json:"symbol"`
	DateTime      string  `json:"dateTime"`
	TradeCode     string  `json:"tradeCode,omitempty"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	CommissionFee float64 `json:"commissionFee"`
	Proceeds      float64 `json:"proceeds"`
	Basis         float64 `json:"basis"`

	// PositionAfter is the running signed quantity for the symbol after this trade.
	PositionAfter float64 `json:"positionAfter"`
	// IsClose is true iff the row carried a realized P&L value.
	IsClose bool `json:"isClose"`
	// RealizedPL is proceeds - basis - commission for closing trades, and 0 otherwise.
	RealizedPL float64 `json:"realizedPL"`
}

// SkippedRow records a row that was excluded from the result.
type SkippedRow struct {
	Line   int
	Reason string
}

// Result is the output of Parse.
type Result struct {
	// Trades are the parsed trades in file order.
	Trades []ParsedTrade
	// SkippedRows are the rows excluded for row-level problems.
	SkippedRows []SkippedRow
	// Header is the header row the trades were mapped with.
	Header []string
}

// FormatError is returned when the trade rows do not carry the required columns.
type FormatError struct {
	// MissingKeys are the required canonical keys that were not found.
	MissingKeys []ibkrheader.Key
	// Header is the detected header row, or nil if none was found.
	Header []string
}

// Error implements error.
func (e *FormatError) Error() string {
	if len(e.Header) == 0 {
		return "no recognizable trade header found"
	}
	missing := make([]string, len(e.MissingKeys))
	for i, key := range e.MissingKeys {
		missing[i] = string(key)
	}
	return fmt.Sprintf(
		"trade rows are missing required columns [%s], detected header: [%s]",
		strings.Join(missing, ", "),
		strings.Join(e.Header, ", "),
	)
}

// Parser parses trade CSV text.
type Parser struct {
	aliases ibkrheader.AliasTable
}

// ParserOption is an option for a new Parser.
type ParserOption func(*Parser)

// ParserWithAliases returns a new ParserOption that sets the alias table.
//
// The default is ibkrheader.DefaultTradeAliases().
func ParserWithAliases(aliases ibkrheader.AliasTable) ParserOption {
	return func(parser *Parser) {
		parser.aliases = aliases
	}
}

// NewParser returns a new Parser.
func NewParser(options ...ParserOption) *Parser {
	parser := &Parser{
		aliases: ibkrheader.DefaultTradeAliases(),
	}
	for _, option := range options {
		option(parser)
	}
	return parser
}

// Parse parses text with a default Parser.
func Parse(text string) (*Result, error) {
	return NewParser().Parse(text)
}

// Parse parses the trades in text.
//
// Rows are first normalized and accumulated. Validation runs once all rows are
// processed: if any row lacks a required key the whole parse fails with a
// *FormatError. Rows whose required numbers do not parse are skipped and
// reported in Result.SkippedRows.
func (p *Parser) Parse(text string) (*Result, error) {
	rows, header := tradeRows(text)
	result := &Result{Header: header}
	if len(rows) == 0 {
		if header == nil {
			return result, nil
		}
		if err := p.validateHeader(header); err != nil {
			return nil, err
		}
		return result, nil
	}
	result.Header = rows[0].Header
	missing := make(map[ibkrheader.Key]struct{})
	var missingHeader []string
	positions := make(map[string]float64)
	for _, row := range rows {
		if len(row.Header) == 0 || !p.aliases.Recognizes(row.Header) {
			return nil, &FormatError{MissingKeys: RequiredKeys, Header: row.Header}
		}
		if !isOrderRow(row) {
			continue
		}
		canonical := p.aliases.Normalize(row.Header, row.Cells)
		if assetCategory, _ := canonical.String(ibkrheader.KeyAssetCategory); assetCategory == forexAssetCategory {
			result.SkippedRows = append(result.SkippedRows, SkippedRow{Line: row.Line, Reason: "forex conversion"})
			continue
		}
		if rowMissing := canonical.Missing(RequiredKeys); len(rowMissing) > 0 {
			for _, key := range rowMissing {
				missing[key] = struct{}{}
			}
			if missingHeader == nil {
				missingHeader = row.Header
			}
			continue
		}
		trade, reason := newParsedTrade(row.Line, canonical)
		if reason != "" {
			result.SkippedRows = append(result.SkippedRows, SkippedRow{Line: row.Line, Reason: reason})
			continue
		}
		trade.PositionAfter = positions[trade.Symbol] + trade.Quantity
		positions[trade.Symbol] = trade.PositionAfter
		result.Trades = append(result.Trades, trade)
	}
	if len(missing) > 0 {
		return nil, &FormatError{MissingKeys: orderedKeys(missing), Header: missingHeader}
	}
	return result, nil
}

// validateHeader checks that a header with no data rows could carry trades.
func (p *Parser) validateHeader(header []string) error {
	if !p.aliases.Recognizes(header) {
		return &FormatError{MissingKeys: RequiredKeys, Header: header}
	}
	present := make(map[ibkrheader.Key]struct{})
	for _, column := range header {
		if key, ok := p.aliases.Lookup(column); ok {
			present[key] = struct{}{}
		}
	}
	missing := make(map[ibkrheader.Key]struct{})
	for _, key := range RequiredKeys {
		if _, ok := present[key]; !ok {
			missing[key] = struct{}{}
		}
	}
	if len(missing) > 0 {
		return &FormatError{MissingKeys: orderedKeys(missing), Header: header}
	}
	return nil
}

// orderedKeys returns the keys of the set in RequiredKeys order.
func orderedKeys(set map[ibkrheader.Key]struct{}) []ibkrheader.Key {
	var keys []ibkrheader.Key
	for _, key := range RequiredKeys {
		if _, ok := set[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func newParsedTrade(line int, row ibkrheader.Row) (ParsedTrade, string) {
	trade := ParsedTrade{Line: line, Row: row}
	trade.Symbol, _ = row.String(ibkrheader.KeySymbol)
	trade.DateTime, _ = row.String(ibkrheader.KeyDateTime)
	trade.TradeCode, _ = row.String(ibkrheader.KeyTradeCode)
	if trade.Symbol == "" {
		return trade, "empty symbol"
	}
	for _, field := range []struct {
		key  ibkrheader.Key
		dest *float64
	}{
		{ibkrheader.KeyQuantity, &trade.Quantity},
		{ibkrheader.KeyPrice, &trade.Price},
		{ibkrheader.KeyCommissionFee, &trade.CommissionFee},
		{ibkrheader.KeyProceeds, &trade.Proceeds},
		{ibkrheader.KeyBasis, &trade.Basis},
	} {
		value, _ := row.Number(field.key)
		if math.IsNaN(value) {
			text, _ := row.String(field.key)
			return trade, fmt.Sprintf("%s %q is not a number", field.key, text)
		}
		*field.dest = value
	}
	trade.IsClose = IsClose(row)
	if trade.IsClose {
		trade.RealizedPL = trade.Proceeds - trade.Basis - trade.CommissionFee
	}
	return trade, ""
}

// IsClose reports whether a canonical trade row closes (or reduces) a position.
//
// A row is a close iff its realized P&L field is present and holds a non-zero
// number. Brokers report 0 realized P&L on opening executions, so a row whose
// realized P&L is present and exactly 0 is an open. This includes a closing
// execution that happens to realize exactly 0, which the row alone cannot
// distinguish from an open.
func IsClose(row ibkrheader.Row) bool {
	realizedPL, ok := row.Number(ibkrheader.KeyRawRealizedPL)
	return ok && IsRealizedPLValue(realizedPL)
}

// IsRealizedPLValue reports whether a parsed realized P&L cell marks a closing trade.
func IsRealizedPLValue(realizedPL float64) bool {
	return !math.IsNaN(realizedPL) && !math.IsInf(realizedPL, 0) && realizedPL != 0
}

// tradeRows returns the Data rows to parse and the detected header: the Trades
// section of a statement, or every row of a flat CSV mapped against its first line.
//
// A nil header with no rows means a Trades section was found but was empty.
func tradeRows(text string) ([]ibkrsection.Row, []string) {
	document := ibkrsection.Segment(text)
	if _, ok := document.Section(tradesSectionName); ok {
		return document.Rows(tradesSectionName), nil
	}
	var rows []ibkrsection.Row
	var header []string
	for i, line := range csvline.Lines(text) {
		if csvline.IsBlank(line) {
			continue
		}
		cells := csvline.Split(line)
		if header == nil {
			header = cells
			continue
		}
		rows = append(rows, ibkrsection.Row{Line: i + 1, Cells: cells, Header: header})
	}
	if header == nil {
		header = []string{}
	}
	return rows, header
}

// isOrderRow reports whether the row is an execution row. IBKR repeats closed
// lot detail under an order with a different discriminator.
func isOrderRow(row ibkrsection.Row) bool {
	for i, column := range row.Header {
		if column == "DataDiscriminator" {
			switch row.Cell(i) {
			case "", "Order", "Trade":
				return true
			default:
				return false
			}
		}
	}
	return true
}
