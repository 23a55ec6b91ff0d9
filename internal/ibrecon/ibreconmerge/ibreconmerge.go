// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package ibreconmerge parses a set of Activity Statement CSVs concurrently and
// merges them into a unified view for commands to use.
//
// Statements may cover overlapping periods (a monthly and a yearly statement,
// say). Trades are deduplicated by account and trade ID, so a trade reported by
// several statements is counted once.
package ibreconmerge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bufdev/ibrecon/internal/pkg/ibkractivitycsv"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xos"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism is the default maximum number of statements parsed concurrently.
const DefaultParallelism = 4

// Statement is the parse result of one statement file.
type Statement struct {
	FilePath string
	Result   *ibkractivitycsv.Result
}

// AccountTrade is a trade with the ID of the account that made it.
type AccountTrade struct {
	AccountID string `json:"accountId"`
	ibkractivitycsv.Trade
}

// AccountPosition is a position with the ID of the account that holds it.
type AccountPosition struct {
	AccountID string `json:"accountId"`
	ibkractivitycsv.Position
}

// MergedData contains the data merged from all statements.
type MergedData struct {
	// Statements are the parse results in file path order, including failed parses.
	Statements []Statement
	// Accounts are the accounts seen, sorted by ID. The last statement
	// reporting an account supplies its fields.
	Accounts []ibkractivitycsv.Account
	// Trades is the deduplicated list of trades across all accounts, sorted by
	// time, then account, then symbol.
	Trades []AccountTrade
	// Positions are the positions of the last statement of each account that reports any.
	Positions []AccountPosition
	// PnLRecords are the P&L records derived from Trades, summed per symbol and trade date.
	PnLRecords []pnlrecon.PnLRecord
	// FailedFilePaths are the statements whose parse failed.
	FailedFilePaths []string
}

// Merger parses and merges statements.
type Merger struct {
	logger      *slog.Logger
	parser      *ibkractivitycsv.Parser
	parallelism int
}

// MergerOption is an option for a new Merger.
type MergerOption func(*Merger)

// MergerWithParser returns a new MergerOption that sets the statement parser.
//
// The default is ibkractivitycsv.NewParser().
func MergerWithParser(parser *ibkractivitycsv.Parser) MergerOption {
	return func(merger *Merger) {
		merger.parser = parser
	}
}

// MergerWithParallelism returns a new MergerOption that sets the maximum
// number of statements parsed concurrently. Values below 1 are ignored.
//
// The default is DefaultParallelism.
func MergerWithParallelism(parallelism int) MergerOption {
	return func(merger *Merger) {
		if parallelism > 0 {
			merger.parallelism = parallelism
		}
	}
}

// NewMerger returns a new Merger.
func NewMerger(logger *slog.Logger, options ...MergerOption) *Merger {
	merger := &Merger{
		logger:      logger,
		parser:      ibkractivitycsv.NewParser(),
		parallelism: DefaultParallelism,
	}
	for _, option := range options {
		option(merger)
	}
	return merger
}

// MergeDir parses and merges every *.csv file under dirPath.
func (m *Merger) MergeDir(ctx context.Context, dirPath string) (*MergedData, error) {
	filePaths, err := ibkractivitycsv.StatementFilePaths(dirPath)
	if err != nil {
		return nil, fmt.Errorf("listing statements in %s: %w", dirPath, err)
	}
	return m.MergeFiles(ctx, filePaths)
}

// MergeFiles parses and merges the given statement files.
//
// A statement whose parse fails is logged and recorded in
// MergedData.FailedFilePaths. A file that cannot be read is an error.
func (m *Merger) MergeFiles(ctx context.Context, filePaths []string) (*MergedData, error) {
	sortedFilePaths := append([]string(nil), filePaths...)
	sort.Strings(sortedFilePaths)
	results := make([]*ibkractivitycsv.Result, len(sortedFilePaths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(m.parallelism)
	for i, filePath := range sortedFilePaths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := xos.ReadFileString(filePath)
			if err != nil {
				return fmt.Errorf("reading statement: %w", err)
			}
			results[i] = m.parser.Parse(text)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	statements := make([]Statement, len(sortedFilePaths))
	for i, filePath := range sortedFilePaths {
		statements[i] = Statement{FilePath: filePath, Result: results[i]}
	}
	return m.merge(statements), nil
}

func (m *Merger) merge(statements []Statement) *MergedData {
	mergedData := &MergedData{Statements: statements}
	accounts := make(map[string]ibkractivitycsv.Account)
	positions := make(map[string][]ibkractivitycsv.Position)
	seenTradeKeys := make(map[string]struct{})
	duplicateTrades := 0
	for _, statement := range statements {
		result := statement.Result
		for _, warning := range result.Warnings {
			m.logger.Warn("statement warning", "file", statement.FilePath, "warning", warning)
		}
		if !result.Success {
			m.logger.Error("statement parse failed", "file", statement.FilePath, "errors", result.Errors)
			mergedData.FailedFilePaths = append(mergedData.FailedFilePaths, statement.FilePath)
			continue
		}
		accountID := result.Account.ID
		accounts[accountID] = *result.Account
		if len(result.Positions) > 0 {
			positions[accountID] = result.Positions
		}
		for _, trade := range result.Trades {
			tradeKey := accountID + "/" + trade.ID
			if _, ok := seenTradeKeys[tradeKey]; ok {
				duplicateTrades++
				continue
			}
			seenTradeKeys[tradeKey] = struct{}{}
			mergedData.Trades = append(mergedData.Trades, AccountTrade{AccountID: accountID, Trade: trade})
		}
		m.logger.Debug(
			"parsed statement",
			"file", statement.FilePath,
			"account", accountID,
			"trades", len(result.Trades),
			"positions", len(result.Positions),
		)
	}
	if duplicateTrades > 0 {
		m.logger.Info("skipped trades reported by more than one statement", "count", duplicateTrades)
	}
	sort.SliceStable(mergedData.Trades, func(i int, j int) bool {
		tradeI := mergedData.Trades[i]
		tradeJ := mergedData.Trades[j]
		if !tradeI.DateTime.Equal(tradeJ.DateTime) {
			return tradeI.DateTime.Before(tradeJ.DateTime)
		}
		if tradeI.AccountID != tradeJ.AccountID {
			return tradeI.AccountID < tradeJ.AccountID
		}
		return tradeI.Symbol < tradeJ.Symbol
	})
	accountIDs := make([]string, 0, len(accounts))
	for accountID := range accounts {
		accountIDs = append(accountIDs, accountID)
	}
	sort.Strings(accountIDs)
	for _, accountID := range accountIDs {
		mergedData.Accounts = append(mergedData.Accounts, accounts[accountID])
		for _, position := range positions[accountID] {
			mergedData.Positions = append(mergedData.Positions, AccountPosition{AccountID: accountID, Position: position})
		}
	}
	trades := make([]ibkractivitycsv.Trade, len(mergedData.Trades))
	for i, accountTrade := range mergedData.Trades {
		trades[i] = accountTrade.Trade
	}
	mergedData.PnLRecords = ibkractivitycsv.PnLRecords(trades)
	return mergedData
}
