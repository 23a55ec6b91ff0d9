// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibkractivitycsv

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/bufdev/ibrecon/internal/pkg/ibkrheader"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrsection"
	"github.com/bufdev/ibrecon/internal/pkg/optionsymbol"
)

// NoColumn marks a PositionSchema field the section does not carry.
const NoColumn = -1

// PositionSchema maps the fields of a position to the column indexes of one
// statement section. Indexes count the section name and row type cells.
type PositionSchema struct {
	// Section is the statement section name the schema applies to.
	Section string

	Symbol        int
	Quantity      int
	MarketPrice   int
	MarketValue   int
	AverageCost   int
	UnrealizedPL  int
	RealizedPL    int
	AssetCategory int
	Currency      int
	CostBasis     int

	// Discriminator is the column of the row discriminator, or NoColumn.
	Discriminator int
	// AcceptDiscriminators are the discriminator values of rows to read. All
	// rows are read if empty.
	AcceptDiscriminators []string
}

// DefaultPositionSchemas returns the built-in position schemas in preference order.
func DefaultPositionSchemas() []PositionSchema {
	return []PositionSchema{
		{
			// Open Positions,Header,DataDiscriminator,Asset Category,Currency,Symbol,Quantity,Mult,Cost Price,Cost Basis,Close Price,Value,Unrealized P/L,Code
			Section:              "Open Positions",
			Discriminator:        2,
			AcceptDiscriminators: []string{"Summary"},
			AssetCategory:        3,
			Currency:             4,
			Symbol:               5,
			Quantity:             6,
			AverageCost:          8,
			CostBasis:            9,
			MarketPrice:          10,
			MarketValue:          11,
			UnrealizedPL:         12,
			RealizedPL:           NoColumn,
		},
		{
			// Positions,Header,Symbol,Quantity,Market Price,Market Value,Average Cost,Unrealized P/L,Realized P/L,Asset Category,Currency,Cost Basis
			Section:       "Positions",
			Discriminator: NoColumn,
			Symbol:        2,
			Quantity:      3,
			MarketPrice:   4,
			MarketValue:   5,
			AverageCost:   6,
			UnrealizedPL:  7,
			RealizedPL:    8,
			AssetCategory: 9,
			Currency:      10,
			CostBasis:     11,
		},
		{
			// Mark-to-Market Performance Summary,Header,Asset Category,Symbol,Prior Quantity,Current Quantity,Prior Price,Current Price,
			// Mark-to-Market P/L Position,Mark-to-Market P/L Transaction,Mark-to-Market P/L Commissions,Mark-to-Market P/L Other,Mark-to-Market P/L Total,Code
			Section:       "Mark-to-Market Performance Summary",
			Discriminator: NoColumn,
			AssetCategory: 2,
			Symbol:        3,
			Quantity:      5,
			MarketPrice:   7,
			UnrealizedPL:  12,
			MarketValue:   NoColumn,
			AverageCost:   NoColumn,
			RealizedPL:    NoColumn,
			Currency:      NoColumn,
			CostBasis:     NoColumn,
		},
	}
}

// aggregateLabels are symbol cells of summary and banner rows.
var aggregateLabels = map[string]struct{}{
	"Total":                    {},
	"SubTotal":                 {},
	"Stocks":                   {},
	"Equity and Index Options": {},
	"Options":                  {},
	"Forex":                    {},
	"Futures":                  {},
	"Bonds":                    {},
}

// extractPositions reads positions from the first schema section with at least one row.
//
// Returns an empty list if no schema section is present.
func extractPositions(document *ibkrsection.Document, schemas []PositionSchema) ([]Position, []string) {
	for _, schema := range schemas {
		rows := document.Rows(schema.Section)
		if len(rows) == 0 {
			continue
		}
		return extractSchemaPositions(rows, schema)
	}
	return nil, nil
}

func extractSchemaPositions(rows []ibkrsection.Row, schema PositionSchema) ([]Position, []string) {
	var positions []Position
	var warnings []string
	for _, row := range rows {
		if row.IsHeader() {
			continue
		}
		if schema.Discriminator != NoColumn && len(schema.AcceptDiscriminators) > 0 {
			if !slices.Contains(schema.AcceptDiscriminators, row.Cell(schema.Discriminator)) {
				continue
			}
		}
		symbol := cell(row, schema.Symbol)
		if isAggregateLabel(symbol) {
			continue
		}
		if symbol == "" {
			warnings = append(warnings, fmt.Sprintf("line %d: %s row has no symbol", row.Line, schema.Section))
			continue
		}
		quantity := ibkrheader.ParseNumber(cell(row, schema.Quantity))
		if math.IsNaN(quantity) {
			warnings = append(warnings, fmt.Sprintf("line %d: %s quantity %q for %s is not a number", row.Line, schema.Section, cell(row, schema.Quantity), symbol))
			continue
		}
		assetCategory := cell(row, schema.AssetCategory)
		position := Position{
			Section:       schema.Section,
			Symbol:        symbol,
			Quantity:      quantity,
			MarketPrice:   numberOrZero(cell(row, schema.MarketPrice)),
			MarketValue:   numberOrZero(cell(row, schema.MarketValue)),
			AverageCost:   numberOrZero(cell(row, schema.AverageCost)),
			CostBasis:     numberOrZero(cell(row, schema.CostBasis)),
			UnrealizedPL:  numberOrZero(cell(row, schema.UnrealizedPL)),
			RealizedPL:    numberOrZero(cell(row, schema.RealizedPL)),
			AssetCategory: assetCategory,
			AssetType:     assetTypeForCategory(assetCategory),
			Currency:      cell(row, schema.Currency),
		}
		if position.AssetType == AssetTypeOption {
			if option, ok := optionsymbol.Decode(symbol); ok {
				position.Option = &option
			} else {
				warnings = append(warnings, fmt.Sprintf("line %d: option symbol %q not recognized", row.Line, symbol))
			}
		}
		positions = append(positions, position)
	}
	return positions, warnings
}

func isAggregateLabel(symbol string) bool {
	if _, ok := aggregateLabels[symbol]; ok {
		return true
	}
	return strings.HasPrefix(symbol, totalLabel)
}

// cell returns the cell at index, or "" for NoColumn.
func cell(row ibkrsection.Row, index int) string {
	if index == NoColumn {
		return ""
	}
	return row.Cell(index)
}
