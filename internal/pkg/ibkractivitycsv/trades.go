// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibkractivitycsv

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bufdev/ibrecon/internal/pkg/ibkrheader"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrsection"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrtradecsv"
	"github.com/bufdev/ibrecon/internal/pkg/optionsymbol"
	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	tradesSectionName = "Trades"
	// orderDiscriminator marks execution rows. IBKR follows each order with
	// ClosedLot rows detailing the lots it closed.
	orderDiscriminator = "Order"
	forexAssetCategory = "Forex"
	// plDecimalPlaces is the precision trade P&L is rounded to so that sums over
	// many small fills do not accumulate floating point artifacts.
	plDecimalPlaces = 6
)

// Trades,Data,Order column positions:
// DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code
const (
	tradeColumnAssetCategory = 3
	tradeColumnCurrency      = 4
	tradeColumnSymbol        = 5
	tradeColumnDateTime      = 6
	tradeColumnQuantity      = 7
	tradeColumnTradePrice    = 8
	tradeColumnClosePrice    = 9
	tradeColumnProceeds      = 10
	tradeColumnCommission    = 11
	tradeColumnBasis         = 12
	tradeColumnRealizedPL    = 13
	tradeColumnMTMPL         = 14
	tradeColumnCode          = 15
	tradeColumnCount         = 16
)

// tradeIDNamespace is the UUID namespace for name-based trade IDs.
var tradeIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/bufdev/ibrecon/trade"))

// dateTimeLayouts are the accepted trade timestamp layouts, in order.
var dateTimeLayouts = []string{
	"2006-01-02, 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02;150405",
	"2006-01-02",
}

// extractTrades reads the Order rows of the Trades section by column position.
func extractTrades(rows []ibkrsection.Row) ([]Trade, []string) {
	var trades []Trade
	var warnings []string
	positions := make(map[string]float64)
	// occurrences disambiguates the IDs of identical fills.
	occurrences := make(map[string]int)
	for _, row := range rows {
		if row.IsHeader() || row.Cell(2) != orderDiscriminator {
			continue
		}
		if row.Cell(tradeColumnAssetCategory) == forexAssetCategory {
			continue
		}
		if len(row.Cells) < tradeColumnCount {
			warnings = append(warnings, fmt.Sprintf("line %d: trade row has %d columns, expected %d", row.Line, len(row.Cells), tradeColumnCount))
			continue
		}
		trade, err := parseTrade(row)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}
		if trade.AssetType == AssetTypeOption && trade.Option == nil {
			warnings = append(warnings, fmt.Sprintf("line %d: option symbol %q not recognized", row.Line, trade.Symbol))
		}
		identity := strings.Join(
			[]string{
				trade.Symbol,
				row.Cell(tradeColumnDateTime),
				row.Cell(tradeColumnQuantity),
				row.Cell(tradeColumnTradePrice),
			},
			"|",
		)
		trade.ID = newTradeID(identity, occurrences[identity])
		occurrences[identity]++
		trade.PositionAfter = positions[trade.Symbol] + trade.Quantity
		positions[trade.Symbol] = trade.PositionAfter
		trades = append(trades, trade)
	}
	return trades, warnings
}

func parseTrade(row ibkrsection.Row) (Trade, error) {
	symbol := row.Cell(tradeColumnSymbol)
	if symbol == "" {
		return Trade{}, fmt.Errorf("trade row has no symbol")
	}
	dateTimeString := row.Cell(tradeColumnDateTime)
	dateTime, err := parseDateTime(dateTimeString)
	if err != nil {
		return Trade{}, fmt.Errorf("parsing date %q for %s: %w", dateTimeString, symbol, err)
	}
	trade := Trade{
		Line:          row.Line,
		Symbol:        symbol,
		AssetCategory: row.Cell(tradeColumnAssetCategory),
		AssetType:     assetTypeForCategory(row.Cell(tradeColumnAssetCategory)),
		Currency:      row.Cell(tradeColumnCurrency),
		DateTime:      dateTime,
		Date:          xtime.TimeToDate(dateTime),
		ClosePrice:    numberOrZero(row.Cell(tradeColumnClosePrice)),
		Basis:         numberOrZero(row.Cell(tradeColumnBasis)),
		Code:          row.Cell(tradeColumnCode),
	}
	for _, field := range []struct {
		name   string
		column int
		dest   *float64
	}{
		{"quantity", tradeColumnQuantity, &trade.Quantity},
		{"trade price", tradeColumnTradePrice, &trade.TradePrice},
		{"proceeds", tradeColumnProceeds, &trade.Proceeds},
		{"commission", tradeColumnCommission, &trade.Commission},
		{"realized P/L", tradeColumnRealizedPL, &trade.RealizedPL},
		{"MTM P/L", tradeColumnMTMPL, &trade.MTMPL},
	} {
		value := ibkrheader.ParseNumber(row.Cell(field.column))
		if math.IsNaN(value) {
			return Trade{}, fmt.Errorf("%s %q for %s is not a number", field.name, row.Cell(field.column), symbol)
		}
		*field.dest = value
	}
	trade.IsClose = ibkrtradecsv.IsRealizedPLValue(trade.RealizedPL)
	trade.TradePL = roundPL(decimal.NewFromFloat(trade.RealizedPL).Add(decimal.NewFromFloat(trade.MTMPL)))
	if trade.AssetType == AssetTypeOption {
		if option, ok := optionsymbol.Decode(symbol); ok {
			trade.Option = &option
		}
	}
	return trade, nil
}

// parseDateTime parses an IBKR date/time string such as "2026-01-02, 09:30:00".
func parseDateTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func assetTypeForCategory(assetCategory string) AssetType {
	if strings.Contains(strings.ToUpper(assetCategory), "OPTION") {
		return AssetTypeOption
	}
	return AssetTypeStock
}

// newTradeID returns a name-based UUID for the trade identity and its occurrence index.
func newTradeID(identity string, occurrence int) string {
	return uuid.NewSHA1(tradeIDNamespace, fmt.Appendf(nil, "%s|%d", identity, occurrence)).String()
}

// numberOrZero parses an optional numeric cell, treating unparsable text as zero.
func numberOrZero(s string) float64 {
	value := ibkrheader.ParseNumber(s)
	if math.IsNaN(value) {
		return 0
	}
	return value
}

func roundPL(value decimal.Decimal) float64 {
	return value.Round(plDecimalPlaces).InexactFloat64()
}
