// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibkrheader maps broker-specific statement columns to canonical field keys.
//
// Brokers (and different IBKR statement variants) label the same column
// differently: "T. Price", "Trade Price" and "Price" all carry the execution
// price. An AliasTable maps each known label to one canonical Key. Columns that
// are not in the table are dropped, and columns mapped to Ignore are
// recognized but not carried.
package ibkrheader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Key is a canonical field key.
type Key string

const (
	// Ignore marks a recognized column that is deliberately not carried.
	Ignore Key = "-"

	KeySymbol        Key = "symbol"
	KeyQuantity      Key = "quantity"
	KeyPrice         Key = "price"
	KeyClosePrice    Key = "closePrice"
	KeyCommissionFee Key = "commissionFee"
	KeyDateTime      Key = "dateTime"
	KeyProceeds      Key = "proceeds"
	KeyBasis         Key = "basis"
	KeyTradeCode     Key = "tradeCode"
	KeyRawRealizedPL Key = "rawRealizedPL"
	KeyMTMPL         Key = "mtmPL"
	KeyCurrency      Key = "currency"
	KeyAssetCategory Key = "assetCategory"
	KeyDescription   Key = "description"
)

// allKeys are the keys ParseKey accepts, in declaration order.
var allKeys = []Key{
	Ignore,
	KeySymbol,
	KeyQuantity,
	KeyPrice,
	KeyClosePrice,
	KeyCommissionFee,
	KeyDateTime,
	KeyProceeds,
	KeyBasis,
	KeyTradeCode,
	KeyRawRealizedPL,
	KeyMTMPL,
	KeyCurrency,
	KeyAssetCategory,
	KeyDescription,
}

// ParseKey parses a canonical key name, or Ignore for "-".
func ParseKey(s string) (Key, error) {
	for _, key := range allKeys {
		if string(key) == s {
			return key, nil
		}
	}
	return "", fmt.Errorf("unknown field key %q", s)
}

// stringKeys are the keys whose values pass through unchanged. All other keys are numeric.
var stringKeys = map[Key]struct{}{
	KeySymbol:        {},
	KeyDateTime:      {},
	KeyTradeCode:     {},
	KeyCurrency:      {},
	KeyAssetCategory: {},
	KeyDescription:   {},
}

// IsStringKey reports whether values for key are carried as strings rather than numbers.
func IsStringKey(key Key) bool {
	_, ok := stringKeys[key]
	return ok
}

// defaultTradeAliases covers IBKR activity statements and the common labels
// used by other broker trade exports.
var defaultTradeAliases = map[string]Key{
	"Symbol":            KeySymbol,
	"Ticker":            KeySymbol,
	"Quantity":          KeyQuantity,
	"Qty":               KeyQuantity,
	"T. Price":          KeyPrice,
	"Trade Price":       KeyPrice,
	"Price":             KeyPrice,
	"C. Price":          KeyClosePrice,
	"Close Price":       KeyClosePrice,
	"Comm/Fee":          KeyCommissionFee,
	"Comm in USD":       KeyCommissionFee,
	"Commission":        KeyCommissionFee,
	"Fees":              KeyCommissionFee,
	"Date/Time":         KeyDateTime,
	"DateTime":          KeyDateTime,
	"Trade Date":        KeyDateTime,
	"Proceeds":          KeyProceeds,
	"Basis":             KeyBasis,
	"Cost Basis":        KeyBasis,
	"Code":              KeyTradeCode,
	"Realized P/L":      KeyRawRealizedPL,
	"Realized P&L":      KeyRawRealizedPL,
	"MTM P/L":           KeyMTMPL,
	"MTM in USD":        KeyMTMPL,
	"Currency":          KeyCurrency,
	"Asset Category":    KeyAssetCategory,
	"Description":       KeyDescription,
	"DataDiscriminator": Ignore,
	"Account":           Ignore,
	"Exchange":          Ignore,
}

// AliasTable is an immutable mapping from column labels to canonical keys.
type AliasTable struct {
	aliases map[string]Key
}

// NewAliasTable returns an AliasTable for the given aliases.
func NewAliasTable(aliases map[string]Key) AliasTable {
	copied := make(map[string]Key, len(aliases))
	for column, key := range aliases {
		copied[column] = key
	}
	return AliasTable{aliases: copied}
}

// DefaultTradeAliases returns the alias table for trade rows.
func DefaultTradeAliases() AliasTable {
	return NewAliasTable(defaultTradeAliases)
}

// With returns a new AliasTable with the extra aliases layered on top of t.
func (t AliasTable) With(extra map[string]Key) AliasTable {
	merged := make(map[string]Key, len(t.aliases)+len(extra))
	for column, key := range t.aliases {
		merged[column] = key
	}
	for column, key := range extra {
		merged[column] = key
	}
	return AliasTable{aliases: merged}
}

// Lookup returns the canonical key for a column label.
func (t AliasTable) Lookup(column string) (Key, bool) {
	key, ok := t.aliases[strings.TrimSpace(column)]
	return key, ok
}

// Recognizes reports whether any of the header's columns maps to a non-ignored key.
func (t AliasTable) Recognizes(header []string) bool {
	for _, column := range header {
		if key, ok := t.Lookup(column); ok && key != Ignore {
			return true
		}
	}
	return false
}

// Value is a coerced cell value.
type Value struct {
	// Text is the raw cell text.
	Text string
	// Number is the parsed value for numeric keys, NaN if the text did not parse.
	Number float64
}

// Row is a data row keyed by canonical field key.
type Row map[Key]Value

// String returns the string value for key and whether the key was present.
func (r Row) String(key Key) (string, bool) {
	value, ok := r[key]
	return value.Text, ok
}

// Number returns the numeric value for key and whether the key was present.
// A present key may still hold NaN.
func (r Row) Number(key Key) (float64, bool) {
	value, ok := r[key]
	if !ok {
		return math.NaN(), false
	}
	return value.Number, true
}

// Missing returns the keys from required that are absent from the row.
func (r Row) Missing(required []Key) []Key {
	var missing []Key
	for _, key := range required {
		if _, ok := r[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Normalize aligns cells with header columns and returns the canonical row.
//
// Cell i is mapped through the alias of header column i. Cells beyond the header,
// and header columns beyond the cells, are absent from the result. If two columns
// alias to the same key, the later one wins.
func (t AliasTable) Normalize(header []string, cells []string) Row {
	row := make(Row)
	for i, column := range header {
		if i >= len(cells) {
			break
		}
		key, ok := t.Lookup(column)
		if !ok || key == Ignore {
			continue
		}
		text := cells[i]
		value := Value{Text: text, Number: math.NaN()}
		if !IsStringKey(key) {
			value.Number = ParseNumber(text)
		}
		row[key] = value
	}
	return row
}

// ParseNumber parses a statement number, accepting thousands separators.
// Text that does not parse to a finite number, including "Inf" and "Infinity",
// yields NaN.
func ParseNumber(s string) float64 {
	s = CleanNumber(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// CleanNumber strips commas from numeric strings (e.g., "-2,290" → "-2290").
func CleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
