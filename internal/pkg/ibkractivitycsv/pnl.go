// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibkractivitycsv

import (
	"sort"

	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

// CumulativePL is the trade P&L per trade date with a running total.
type CumulativePL struct {
	// Total is the sum of TradePL across all trades.
	Total float64 `json:"total"`
	// Daily is in date order.
	Daily []DailyPL `json:"daily"`
}

// DailyPL is the trade P&L of one trade date.
type DailyPL struct {
	Date xtime.Date `json:"date"`
	PnL  float64    `json:"pnl"`
	// Cumulative is the sum of PnL up to and including Date.
	Cumulative float64 `json:"cumulative"`
}

// NewCumulativePL sums the TradePL of trades per trade date.
func NewCumulativePL(trades []Trade) *CumulativePL {
	byDate := make(map[xtime.Date]decimal.Decimal)
	var dates []xtime.Date
	for _, trade := range trades {
		sum, ok := byDate[trade.Date]
		if !ok {
			dates = append(dates, trade.Date)
		}
		byDate[trade.Date] = sum.Add(decimal.NewFromFloat(trade.TradePL))
	}
	sort.Slice(dates, func(i int, j int) bool {
		return dates[i].Compare(dates[j]) < 0
	})
	cumulativePL := &CumulativePL{
		Daily: make([]DailyPL, 0, len(dates)),
	}
	running := decimal.Zero
	for _, date := range dates {
		running = running.Add(byDate[date])
		cumulativePL.Daily = append(cumulativePL.Daily, DailyPL{
			Date:       date,
			PnL:        roundPL(byDate[date]),
			Cumulative: roundPL(running),
		})
	}
	cumulativePL.Total = roundPL(running)
	return cumulativePL
}

// PnLRecords sums the TradePL of trades per symbol and trade date.
//
// The records are sorted by key.
func PnLRecords(trades []Trade) []pnlrecon.PnLRecord {
	type recordKey struct {
		symbol string
		date   xtime.Date
	}
	byKey := make(map[recordKey]decimal.Decimal)
	for _, trade := range trades {
		key := recordKey{symbol: trade.Symbol, date: trade.Date}
		byKey[key] = byKey[key].Add(decimal.NewFromFloat(trade.TradePL))
	}
	records := make([]pnlrecon.PnLRecord, 0, len(byKey))
	for key, sum := range byKey {
		records = append(records, pnlrecon.PnLRecord{
			Symbol: key.symbol,
			Date:   key.date,
			PnL:    roundPL(sum),
		})
	}
	sort.Slice(records, func(i int, j int) bool {
		return records[i].Key() < records[j].Key()
	})
	return records
}
