// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibreconreport renders parse and reconciliation results as tables
// and XLSX workbooks.
package ibreconreport

import (
	"fmt"
	"strconv"

	"github.com/bufdev/ibrecon/internal/ibrecon/ibreconmerge"
	"github.com/bufdev/ibrecon/internal/pkg/cliio"
	"github.com/bufdev/ibrecon/internal/pkg/ibkractivitycsv"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrtradecsv"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
)

var (
	discrepancyHeaders = []string{"SYMBOL", "DATE", "TYPE", "PNL A", "PNL B", "DIFFERENCE"}
	reconciledHeaders  = []string{"SYMBOL", "DATE", "PNL"}
	summaryHeaders     = []string{"METRIC", "VALUE"}
)

// DiscrepancyTable returns the discrepancies of a reconciliation, with the
// sum of the differences as the totals row.
func DiscrepancyTable(result *pnlrecon.Result) cliio.Table {
	var total float64
	rows := make([][]string, 0, len(result.Discrepancies))
	for _, discrepancy := range result.Discrepancies {
		rows = append(rows, discrepancyRow(discrepancy))
		total += discrepancy.Difference
	}
	return cliio.Table{
		Headers: discrepancyHeaders,
		Rows:    rows,
		Totals:  []string{"TOTAL", "", "", "", "", formatPnL(total)},
	}
}

// SummaryTable returns the summary counts of a reconciliation.
func SummaryTable(result *pnlrecon.Result, tolerance float64) cliio.Table {
	return cliio.Table{
		Headers: summaryHeaders,
		Rows:    summaryRows(result.Summary, tolerance),
	}
}

// TradesTable returns merged trades, with the sum of trade P&L as the totals row.
func TradesTable(trades []ibreconmerge.AccountTrade) cliio.Table {
	var total float64
	rows := make([][]string, 0, len(trades))
	for _, trade := range trades {
		rows = append(rows, []string{
			trade.AccountID,
			trade.Symbol,
			trade.DateTime.Format("2006-01-02 15:04:05"),
			string(trade.AssetType),
			cliio.FormatNumber(trade.Quantity),
			cliio.FormatNumber(trade.PositionAfter),
			strconv.FormatBool(trade.IsClose),
			cliio.FormatMoney(trade.TradePL, trade.Currency),
		})
		total += trade.TradePL
	}
	return cliio.Table{
		Headers: []string{"ACCOUNT", "SYMBOL", "DATE/TIME", "TYPE", "QUANTITY", "POSITION", "CLOSE", "TRADE P&L"},
		Rows:    rows,
		Totals:  []string{"TOTAL", "", "", "", "", "", "", formatPnL(total)},
	}
}

// PositionsTable returns merged positions, with the sum of unrealized P&L as the totals row.
func PositionsTable(positions []ibreconmerge.AccountPosition) cliio.Table {
	var total float64
	rows := make([][]string, 0, len(positions))
	for _, position := range positions {
		rows = append(rows, []string{
			position.AccountID,
			position.Symbol,
			string(position.AssetType),
			cliio.FormatNumber(position.Quantity),
			cliio.FormatMoney(position.MarketPrice, position.Currency),
			cliio.FormatMoney(position.MarketValue, position.Currency),
			cliio.FormatMoney(position.UnrealizedPL, position.Currency),
		})
		total += position.UnrealizedPL
	}
	return cliio.Table{
		Headers: []string{"ACCOUNT", "SYMBOL", "TYPE", "QUANTITY", "PRICE", "VALUE", "UNREALIZED P&L"},
		Rows:    rows,
		Totals:  []string{"TOTAL", "", "", "", "", "", formatPnL(total)},
	}
}

// AccountsTable returns the identity and balance of each account.
func AccountsTable(accounts []ibkractivitycsv.Account) cliio.Table {
	rows := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		balance := ""
		if account.HasBalance {
			balance = cliio.FormatMoney(account.Balance, account.BaseCurrency)
		}
		rows = append(rows, []string{
			account.ID,
			account.Name,
			account.Type,
			account.BaseCurrency,
			balance,
		})
	}
	return cliio.Table{
		Headers: []string{"ACCOUNT", "NAME", "TYPE", "CURRENCY", "BALANCE"},
		Rows:    rows,
	}
}

// ParsedTradesTable returns trades parsed by the CSV-only trade parser.
func ParsedTradesTable(trades []ibkrtradecsv.ParsedTrade) cliio.Table {
	var total float64
	rows := make([][]string, 0, len(trades))
	for _, trade := range trades {
		realizedPL := ""
		if trade.IsClose {
			realizedPL = formatPnL(trade.RealizedPL)
			total += trade.RealizedPL
		}
		rows = append(rows, []string{
			strconv.Itoa(trade.Line),
			trade.Symbol,
			trade.DateTime,
			cliio.FormatNumber(trade.Quantity),
			cliio.FormatNumber(trade.Price),
			cliio.FormatNumber(trade.PositionAfter),
			strconv.FormatBool(trade.IsClose),
			realizedPL,
		})
	}
	return cliio.Table{
		Headers: []string{"LINE", "SYMBOL", "DATE/TIME", "QUANTITY", "PRICE", "POSITION", "CLOSE", "REALIZED P&L"},
		Rows:    rows,
		Totals:  []string{"TOTAL", "", "", "", "", "", "", formatPnL(total)},
	}
}

// PnLRecordsTable returns P&L records, with their sum as the totals row.
func PnLRecordsTable(records []pnlrecon.PnLRecord) cliio.Table {
	var total float64
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, pnlRecordRow(record))
		total += record.PnL
	}
	return cliio.Table{
		Headers: reconciledHeaders,
		Rows:    rows,
		Totals:  []string{"TOTAL", "", formatPnL(total)},
	}
}

func discrepancyRow(discrepancy pnlrecon.Discrepancy) []string {
	return []string{
		discrepancy.Symbol,
		discrepancy.Date.String(),
		string(discrepancy.Type),
		formatOptionalPnL(discrepancy.PnLA),
		formatOptionalPnL(discrepancy.PnLB),
		formatPnL(discrepancy.Difference),
	}
}

func pnlRecordRow(record pnlrecon.PnLRecord) []string {
	return []string{
		record.Symbol,
		record.Date.String(),
		formatPnL(record.PnL),
	}
}

func summaryRows(summary pnlrecon.Summary, tolerance float64) [][]string {
	cells := summaryCells(summary, tolerance)
	rows := make([][]string, len(cells))
	for i, row := range cells {
		rows[i] = []string{fmt.Sprint(row[0]), fmt.Sprint(row[1])}
	}
	return rows
}

// formatPnL formats a P&L amount with two decimals.
func formatPnL(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func formatOptionalPnL(value *float64) string {
	if value == nil {
		return ""
	}
	return formatPnL(*value)
}
