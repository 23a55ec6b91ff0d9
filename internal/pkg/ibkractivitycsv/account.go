// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibkractivitycsv

import (
	"math"
	"regexp"
	"strings"

	"github.com/bufdev/ibrecon/internal/pkg/ibkrheader"
	"github.com/bufdev/ibrecon/internal/pkg/ibkrsection"
	"github.com/bufdev/ibrecon/internal/pkg/optionsymbol"
)

const (
	accountInformationSectionName = "Account Information"
	statementSectionName          = "Statement"
	netAssetValueSectionName      = "Net Asset Value"
	// totalLabel is the label of the aggregate row in summary sections.
	totalLabel = "Total"
)

// accountFieldSectionNames are the field-name/value sections searched for
// account fields, in order of precedence.
var accountFieldSectionNames = []string{
	accountInformationSectionName,
	statementSectionName,
}

var (
	accountIDFieldNames    = []string{"Account", "Account ID", "Account Number", "AccountId"}
	accountNameFieldNames  = []string{"Name", "Account Name"}
	accountTypeFieldNames  = []string{"Account Type", "Customer Type"}
	baseCurrencyFieldNames = []string{"Base Currency"}
	// navBalanceColumns are the Net Asset Value columns holding the balance, in order of precedence.
	navBalanceColumns = []string{"Current Long", "Current Total"}
)

// accountIDRegexp matches tokens that may be account IDs. Candidates are
// further filtered by looksLikeAccountID.
var accountIDRegexp = regexp.MustCompile(`\b[A-Z][A-Z0-9]{7,}\b`)

// isinRegexp matches ISINs, which otherwise look like account IDs.
var isinRegexp = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// extractAccount resolves the account fields, first found wins per field.
// Returns nil if no account ID could be resolved.
func extractAccount(document *ibkrsection.Document, text string) *Account {
	fields := accountFields(document)
	account := &Account{
		ID:           firstField(fields, accountIDFieldNames),
		Name:         firstField(fields, accountNameFieldNames),
		Type:         firstField(fields, accountTypeFieldNames),
		BaseCurrency: firstField(fields, baseCurrencyFieldNames),
	}
	if account.ID == "" {
		account.ID = scanAccountID(text)
	}
	if account.ID == "" {
		return nil
	}
	account.Balance, account.HasBalance = extractBalance(document)
	return account
}

// accountFields collects field name → value pairs across the field sections.
// Earlier sections and earlier rows take precedence.
func accountFields(document *ibkrsection.Document) map[string]string {
	fields := make(map[string]string)
	for _, sectionName := range accountFieldSectionNames {
		for _, row := range document.Rows(sectionName) {
			name := row.Cell(2)
			value := row.Cell(3)
			if name == "" || isPlaceholder(value) {
				continue
			}
			if _, ok := fields[name]; !ok {
				fields[name] = value
			}
		}
	}
	return fields
}

func firstField(fields map[string]string, names []string) string {
	for _, name := range names {
		if value, ok := fields[name]; ok {
			return value
		}
	}
	return ""
}

// extractBalance prefers the Net Asset Value Total row over the Statement Total row.
func extractBalance(document *ibkrsection.Document) (float64, bool) {
	for _, row := range document.Rows(netAssetValueSectionName) {
		if row.Cell(2) != totalLabel {
			continue
		}
		for _, column := range navBalanceColumns {
			index := columnIndex(row.Header, column)
			if index < 0 {
				continue
			}
			if value := ibkrheader.ParseNumber(row.Cell(index)); !math.IsNaN(value) {
				return value, true
			}
		}
	}
	for _, row := range document.Rows(statementSectionName) {
		if row.Cell(2) != totalLabel {
			continue
		}
		if value := ibkrheader.ParseNumber(row.Cell(3)); !math.IsNaN(value) {
			return value, true
		}
	}
	return 0, false
}

// scanAccountID returns the first token in text that looks like an account ID.
func scanAccountID(text string) string {
	for _, candidate := range accountIDRegexp.FindAllString(text, -1) {
		if looksLikeAccountID(candidate) {
			return candidate
		}
	}
	return ""
}

func looksLikeAccountID(candidate string) bool {
	hasLetter := strings.ContainsAny(candidate, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	hasDigit := strings.ContainsAny(candidate, "0123456789")
	if !hasLetter || !hasDigit {
		return false
	}
	if isinRegexp.MatchString(candidate) {
		return false
	}
	if _, ok := optionsymbol.Decode(candidate); ok {
		return false
	}
	return true
}

// isPlaceholder reports whether a field value stands for "no value".
func isPlaceholder(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "-", "--", "n/a", "na", "none", "unknown":
		return true
	default:
		return false
	}
}

func columnIndex(header []string, column string) int {
	for i, name := range header {
		if name == column {
			return i
		}
	}
	return -1
}
