// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibkractivitycsv

import (
	"fmt"
	"strings"

	"github.com/bufdev/ibrecon/internal/pkg/ibkrsection"
	"github.com/bufdev/ibrecon/internal/standard/xtime"
)

// cashSections maps the cash transaction sections to their transaction type,
// in the order they are read.
var cashSections = []struct {
	name            string
	transactionType CashTransactionType
}{
	{"Dividends", CashTransactionTypeDividend},
	{"Withholding Tax", CashTransactionTypeWithholdingTax},
	{"Interest", CashTransactionTypeInterest},
}

// extractCashTransactions reads the Dividends, Withholding Tax, and Interest sections.
//
// All three share the layout Currency,Date,Description,Amount. Total rows are skipped.
func extractCashTransactions(document *ibkrsection.Document) ([]CashTransaction, []string) {
	var cashTransactions []CashTransaction
	var warnings []string
	for _, cashSection := range cashSections {
		for _, row := range document.Rows(cashSection.name) {
			if row.IsHeader() || len(row.Cells) < 6 {
				continue
			}
			currency := row.Cell(2)
			if strings.HasPrefix(currency, totalLabel) {
				continue
			}
			date, err := xtime.ParseDate(row.Cell(3))
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("line %d: %s date %q: %v", row.Line, cashSection.name, row.Cell(3), err))
				continue
			}
			cashTransactions = append(cashTransactions, CashTransaction{
				Type:        cashSection.transactionType,
				Currency:    currency,
				Date:        date,
				Description: row.Cell(4),
				Amount:      numberOrZero(row.Cell(5)),
			})
		}
	}
	return cashTransactions, warnings
}
