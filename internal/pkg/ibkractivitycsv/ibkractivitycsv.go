// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibkractivitycsv parses IBKR Activity Statement CSV files.
//
// Activity Statement CSVs are multi-section files where each row starts with
// a section name and row type (Header, Data, SubTotal, Total). Different sections
// have different column layouts. This parser extracts the account identity,
// trades (including option trades), open positions, and cash transactions
// (dividends, withholding tax, interest), and derives per-trade and cumulative P&L.
//
// Parsing never panics and never returns an error for statement content: a
// statement whose account cannot be identified yields a Result with Success
// set to false, and row-level problems are reported as warnings.
package ibkractivitycsv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bufdev/ibrecon/internal/pkg/ibkrsection"
	"github.com/bufdev/ibrecon/internal/pkg/optionsymbol"
	"github.com/bufdev/ibrecon/internal/standard/xtime"
)

// AssetType is the normalized asset type of a trade or position.
type AssetType string

const (
	// AssetTypeStock is any non-option instrument.
	AssetTypeStock AssetType = "STOCK"
	// AssetTypeOption is an option contract.
	AssetTypeOption AssetType = "OPTION"
)

// Result is the output of parsing one statement.
type Result struct {
	// Success is false if the statement could not be parsed, in which case
	// Errors says why and no data fields are set.
	Success bool `json:"success"`
	// Account is the statement's account identity and balance.
	Account *Account `json:"account,omitempty"`
	// Trades are the executed orders in file order.
	Trades []Trade `json:"trades,omitempty"`
	// Positions are the positions reported by the statement.
	Positions []Position `json:"positions,omitempty"`
	// CumulativePL is the trade P&L per trade date with a running total.
	CumulativePL *CumulativePL `json:"cumulativePL,omitempty"`
	// OptionTrades is the subset of Trades that are options.
	OptionTrades []Trade `json:"optionTrades,omitempty"`
	// CashTransactions contains dividends, withholding taxes, and interest.
	CashTransactions []CashTransaction `json:"cashTransactions,omitempty"`
	// Errors contains the fatal diagnostics when Success is false.
	Errors []string `json:"errors"`
	// Warnings contains row-level diagnostics for rows that were skipped or
	// only partially understood.
	Warnings []string `json:"warnings"`
}

// Account is the identity and balance of the statement's account.
type Account struct {
	ID           string `json:"accountId"`
	Name         string `json:"accountName,omitempty"`
	Type         string `json:"accountType,omitempty"`
	BaseCurrency string `json:"baseCurrency,omitempty"`
	// Balance is the net asset value, valid only if HasBalance is true.
	Balance    float64 `json:"balance"`
	HasBalance bool    `json:"hasBalance"`
}

// Trade is an executed order.
type Trade struct {
	// ID is a deterministic identifier derived from the trade's fields, stable
	// across repeated parses of the same statement.
	ID            string    `json:"id"`
	Line          int       `json:"line"`
	Symbol        string    `json:"symbol"`
	AssetCategory string    `json:"assetCategory"`
	AssetType     AssetType `json:"assetType"`
	Currency      string    `json:"currency"`
	DateTime      time.Time `json:"dateTime"`
	// Date is the trade date.
	Date xtime.Date `json:"date"`
	// Quantity is positive for buys, negative for sells.
	Quantity   float64 `json:"quantity"`
	TradePrice float64 `json:"tradePrice"`
	ClosePrice float64 `json:"closePrice"`
	Proceeds   float64 `json:"proceeds"`
	Commission float64 `json:"commission"`
	Basis      float64 `json:"basis"`
	RealizedPL float64 `json:"realizedPL"`
	MTMPL      float64 `json:"mtmPL"`
	// TradePL is RealizedPL + MTMPL rounded to 6 decimal places.
	TradePL float64 `json:"tradePL"`
	Code    string  `json:"code"`
	// IsClose is true if the trade closed or reduced a position.
	IsClose bool `json:"isClose"`
	// PositionAfter is the running signed quantity for the symbol after this trade.
	PositionAfter float64 `json:"positionAfter"`
	// Option holds the decoded option attributes for option trades whose
	// symbol follows the option grammar.
	Option *optionsymbol.Option `json:"option,omitempty"`
}

// Position is a position reported by the statement.
type Position struct {
	// Section is the statement section the position was read from.
	Section       string               `json:"section"`
	Symbol        string               `json:"symbol"`
	Quantity      float64              `json:"quantity"`
	MarketPrice   float64              `json:"marketPrice"`
	MarketValue   float64              `json:"marketValue"`
	AverageCost   float64              `json:"averageCost"`
	CostBasis     float64              `json:"costBasis"`
	UnrealizedPL  float64              `json:"unrealizedPL"`
	RealizedPL    float64              `json:"realizedPL"`
	AssetCategory string               `json:"assetCategory"`
	AssetType     AssetType            `json:"assetType"`
	Currency      string               `json:"currency"`
	Option        *optionsymbol.Option `json:"option,omitempty"`
}

// CashTransactionType is the kind of cash transaction.
type CashTransactionType string

const (
	// CashTransactionTypeDividend is a dividend payment.
	CashTransactionTypeDividend CashTransactionType = "DIVIDEND"
	// CashTransactionTypeWithholdingTax is tax withheld on a dividend.
	CashTransactionTypeWithholdingTax CashTransactionType = "WITHHOLDING_TAX"
	// CashTransactionTypeInterest is interest income or expense.
	CashTransactionTypeInterest CashTransactionType = "INTEREST"
)

// CashTransaction is a dividend, withholding tax, or interest item.
type CashTransaction struct {
	Type        CashTransactionType `json:"type"`
	Currency    string              `json:"currency"`
	Date        xtime.Date          `json:"date"`
	Description string              `json:"description"`
	Amount      float64             `json:"amount"`
}

// Parser parses Activity Statements.
type Parser struct {
	segmenter       *ibkrsection.Segmenter
	positionSchemas []PositionSchema
}

// ParserOption is an option for a new Parser.
type ParserOption func(*parserOptions)

// ParserWithSectionPolicies returns a new ParserOption that sets the per-section
// segmentation policies.
//
// The default is ibkrsection.DefaultPolicies().
func ParserWithSectionPolicies(policies map[string]ibkrsection.Policy) ParserOption {
	return func(parserOptions *parserOptions) {
		parserOptions.sectionPolicies = policies
	}
}

// ParserWithPositionSchemas returns a new ParserOption that sets the position
// section schemas, in preference order.
//
// The default is DefaultPositionSchemas().
func ParserWithPositionSchemas(positionSchemas []PositionSchema) ParserOption {
	return func(parserOptions *parserOptions) {
		parserOptions.positionSchemas = positionSchemas
	}
}

// NewParser returns a new Parser.
func NewParser(options ...ParserOption) *Parser {
	parserOptions := &parserOptions{
		sectionPolicies: ibkrsection.DefaultPolicies(),
		positionSchemas: DefaultPositionSchemas(),
	}
	for _, option := range options {
		option(parserOptions)
	}
	return &Parser{
		segmenter:       ibkrsection.NewSegmenter(parserOptions.sectionPolicies),
		positionSchemas: append([]PositionSchema(nil), parserOptions.positionSchemas...),
	}
}

// Parse parses statement text with a default Parser.
func Parse(text string) *Result {
	return NewParser().Parse(text)
}

// Parse parses the statement text.
func (p *Parser) Parse(text string) (result *Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = failure(fmt.Sprintf("parsing statement: %v", recovered), nil)
		}
	}()
	document := p.segmenter.Segment(text)
	var warnings []string
	for _, line := range document.OrphanLines {
		warnings = append(warnings, fmt.Sprintf("line %d: data row outside of any section", line))
	}
	account := extractAccount(document, text)
	if account == nil {
		return failure("account ID could not be determined from the statement", warnings)
	}
	trades, tradeWarnings := extractTrades(document.Rows(tradesSectionName))
	warnings = append(warnings, tradeWarnings...)
	positions, positionWarnings := extractPositions(document, p.positionSchemas)
	warnings = append(warnings, positionWarnings...)
	cashTransactions, cashWarnings := extractCashTransactions(document)
	warnings = append(warnings, cashWarnings...)
	var optionTrades []Trade
	for _, trade := range trades {
		if trade.AssetType == AssetTypeOption {
			optionTrades = append(optionTrades, trade)
		}
	}
	return &Result{
		Success:          true,
		Account:          account,
		Trades:           trades,
		Positions:        positions,
		CumulativePL:     NewCumulativePL(trades),
		OptionTrades:     optionTrades,
		CashTransactions: cashTransactions,
		Errors:           []string{},
		Warnings:         nonNil(warnings),
	}
}

// ParseFile parses a single IBKR Activity Statement CSV file.
func ParseFile(filePath string) (*Result, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// StatementFilePaths returns the paths of all *.csv files under dirPath, recursively, in lexical order.
func StatementFilePaths(dirPath string) ([]string, error) {
	var filePaths []string
	err := filepath.WalkDir(dirPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".csv") {
			return nil
		}
		filePaths = append(filePaths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filePaths, nil
}

type parserOptions struct {
	sectionPolicies map[string]ibkrsection.Policy
	positionSchemas []PositionSchema
}

func failure(message string, warnings []string) *Result {
	return &Result{
		Success:  false,
		Errors:   []string{message},
		Warnings: nonNil(warnings),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
