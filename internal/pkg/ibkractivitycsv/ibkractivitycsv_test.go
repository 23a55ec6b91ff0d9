// Copyright 2026 Peter Edge
//
// All rights reserved.

package ibkractivitycsv

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bufdev/ibrecon/internal/pkg/optionsymbol"
	"github.com/bufdev/ibrecon/internal/pkg/pnlrecon"
	"github.com/bufdev/ibrecon/internal/standard/xtime"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	t.Parallel()
	result, err := ParseFile("testdata/statement.csv")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.Errors)

	require.Equal(
		t,
		&Account{
			ID:           "U1234567",
			Name:         "Test User",
			Type:         "Individual",
			BaseCurrency: "USD",
			Balance:      105250.75,
			HasBalance:   true,
		},
		result.Account,
	)

	// ClosedLot, Forex, and the row with an unparsable quantity are not trades.
	require.Len(t, result.Trades, 5)
	buy := result.Trades[0]
	require.Equal(t, "AAPL", buy.Symbol)
	require.Equal(t, AssetTypeStock, buy.AssetType)
	require.Equal(t, "USD", buy.Currency)
	require.Equal(t, 100.0, buy.Quantity)
	require.Equal(t, 150.50, buy.TradePrice)
	require.Equal(t, xtime.Date{Year: 2026, Month: time.January, Day: 2}, buy.Date)
	require.Equal(t, 100.0, buy.PositionAfter)
	require.False(t, buy.IsClose)
	require.Equal(t, 50.0, buy.TradePL)

	sell := result.Trades[1]
	require.True(t, sell.IsClose)
	require.Equal(t, 60.0, sell.PositionAfter)
	require.Equal(t, 418.6, sell.TradePL)

	msft := result.Trades[2]
	require.Equal(t, "MSFT", msft.Symbol)
	require.Equal(t, -25.0, msft.PositionAfter)
	require.Equal(t, 974.0, msft.TradePL)

	require.Len(t, result.OptionTrades, 2)
	option := result.OptionTrades[0]
	require.Equal(t, AssetTypeOption, option.AssetType)
	require.Equal(
		t,
		&optionsymbol.Option{
			Underlying: "AAPL",
			Expiry:     xtime.Date{Year: 2026, Month: time.January, Day: 16},
			PutCall:    optionsymbol.PutCallCall,
			Strike:     150,
		},
		option.Option,
	)
	require.Nil(t, result.OptionTrades[1].Option)

	require.Equal(
		t,
		[]string{
			`line 20: quantity "oops" for BAD is not a number`,
			`line 24: option symbol "WEIRD OPT" not recognized`,
		},
		result.Warnings,
	)

	require.Len(t, result.Positions, 2)
	require.Equal(t, "Open Positions", result.Positions[0].Section)
	require.Equal(t, "AAPL", result.Positions[0].Symbol)
	require.Equal(t, 60.0, result.Positions[0].Quantity)
	require.Equal(t, 155.0, result.Positions[0].MarketPrice)
	require.Equal(t, 9300.0, result.Positions[0].MarketValue)
	require.Equal(t, 150.51, result.Positions[0].AverageCost)
	require.Equal(t, 269.4, result.Positions[0].UnrealizedPL)
	require.Equal(t, AssetTypeOption, result.Positions[1].AssetType)
	require.NotNil(t, result.Positions[1].Option)
	require.Equal(t, optionsymbol.PutCallCall, result.Positions[1].Option.PutCall)

	require.Len(t, result.CashTransactions, 3)
	require.Equal(
		t,
		[]CashTransactionType{
			CashTransactionTypeDividend,
			CashTransactionTypeWithholdingTax,
			CashTransactionTypeInterest,
		},
		[]CashTransactionType{
			result.CashTransactions[0].Type,
			result.CashTransactions[1].Type,
			result.CashTransactions[2].Type,
		},
	)
	require.Equal(t, 15.0, result.CashTransactions[0].Amount)
	require.Equal(t, -1.5, result.CashTransactions[1].Amount)

	require.Equal(
		t,
		&CumulativePL{
			Total: 1467.6,
			Daily: []DailyPL{
				{Date: xtime.Date{Year: 2026, Month: time.January, Day: 2}, PnL: 50, Cumulative: 50},
				{Date: xtime.Date{Year: 2026, Month: time.January, Day: 5}, PnL: 1392.6, Cumulative: 1442.6},
				{Date: xtime.Date{Year: 2026, Month: time.January, Day: 7}, PnL: 25, Cumulative: 1467.6},
			},
		},
		result.CumulativePL,
	)
}

func TestParseOptionTrades(t *testing.T) {
	t.Parallel()
	result, err := ParseFile("testdata/options.csv")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Trades, 30)
	require.Len(t, result.OptionTrades, 30)
	var sum float64
	for _, trade := range result.Trades {
		require.True(t, trade.IsClose)
		require.NotNil(t, trade.Option, trade.Symbol)
		sum += trade.TradePL
	}
	require.InDelta(t, 1600.32, sum, 1e-6)
	require.Equal(t, 1600.32, result.CumulativePL.Total)
	require.Empty(t, result.Warnings)
}

func TestParseIdempotent(t *testing.T) {
	t.Parallel()
	data, err := os.ReadFile("testdata/statement.csv")
	require.NoError(t, err)
	first := Parse(string(data))
	second := Parse(string(data))
	require.Empty(t, cmp.Diff(first, second))
	ids := make(map[string]struct{})
	for _, trade := range first.Trades {
		ids[trade.ID] = struct{}{}
	}
	require.Len(t, ids, len(first.Trades))
}

func TestParseIdenticalFillsHaveDistinctIDs(t *testing.T) {
	t.Parallel()
	text := strings.Join([]string{
		"Account Information,Header,Field Name,Field Value",
		"Account Information,Data,Account,U1234567",
		tradesHeader,
		`Trades,Data,Order,Stocks,USD,AAPL,"2026-01-02, 09:30:00",1,150,150,-150,-1,151,0,0,O`,
		`Trades,Data,Order,Stocks,USD,AAPL,"2026-01-02, 09:30:00",1,150,150,-150,-1,151,0,0,O`,
	}, "\n")
	result := Parse(text)
	require.True(t, result.Success)
	require.Len(t, result.Trades, 2)
	require.NotEqual(t, result.Trades[0].ID, result.Trades[1].ID)
	require.Equal(t, 2.0, result.Trades[1].PositionAfter)
}

func TestParseAccountCascade(t *testing.T) {
	t.Parallel()
	text := strings.Join([]string{
		"Account Information,Header,Field Name,Field Value",
		"Account Information,Data,Account,--",
		"Account Information,Data,Name,First Name",
		"Statement,Header,Field Name,Field Value",
		"Statement,Data,Account ID,U9999999",
		"Statement,Data,Name,Second Name",
		"Statement,Data,Total,2500.5",
	}, "\n")
	result := Parse(text)
	require.True(t, result.Success)
	require.Equal(t, "U9999999", result.Account.ID)
	require.Equal(t, "First Name", result.Account.Name)
	require.True(t, result.Account.HasBalance)
	require.Equal(t, 2500.5, result.Account.Balance)
	require.Empty(t, result.Trades)
	require.Empty(t, result.Positions)
	require.Empty(t, result.CumulativePL.Daily)
}

func TestParseAccountFallback(t *testing.T) {
	t.Parallel()
	text := strings.Join([]string{
		"Statement,Header,Field Name,Field Value",
		"Statement,Data,Title,Activity Statement for U7654321",
		tradesHeader,
		`Trades,Data,Order,Equity and Index Options,USD,AAPL  260116C00150000,"2026-01-07, 10:00:00",-1,5.25,5,525,-1.05,-523.95,0,25,O`,
	}, "\n")
	result := Parse(text)
	require.True(t, result.Success)
	require.Equal(t, "U7654321", result.Account.ID)
	require.False(t, result.Account.HasBalance)
}

func TestParseAccountUnresolved(t *testing.T) {
	t.Parallel()
	for _, text := range []string{
		"",
		"Statement,Header,Field Name,Field Value\nStatement,Data,BrokerName,Interactive Brokers",
		// ISINs and option symbols are not account IDs.
		"Dividends,Data,USD,2026-01-10,AAPL(US0378331005) Cash Dividend,15.00\nTrades,Data,Order,Options,USD,AAPL260116C00150000",
	} {
		result := Parse(text)
		require.False(t, result.Success, "text %q", text)
		require.Nil(t, result.Account)
		require.Empty(t, result.Trades)
		require.Equal(t, []string{"account ID could not be determined from the statement"}, result.Errors)
	}
}

func TestParseNonFiniteNumber(t *testing.T) {
	t.Parallel()
	for _, value := range []string{"Infinity", "Inf", "-Inf", "NaN"} {
		text := strings.Join([]string{
			"Account Information,Header,Field Name,Field Value",
			"Account Information,Data,Account,U1234567",
			tradesHeader,
			`Trades,Data,Order,Stocks,USD,AAPL,"2026-01-05, 10:00:00",-40,160,159,6400,-1,-6020.4,` + value + `,40,C`,
			`Trades,Data,Order,Stocks,USD,MSFT,"2026-01-05, 11:00:00",-25,400,401,10000,-1,-9000,999,-25,C`,
		}, "\n")
		result := Parse(text)
		require.True(t, result.Success, "value %q", value)
		require.Len(t, result.Trades, 1, "value %q", value)
		require.Equal(t, "MSFT", result.Trades[0].Symbol)
		require.Equal(t, 974.0, result.Trades[0].TradePL)
		require.Equal(
			t,
			[]string{`line 4: realized P/L "` + value + `" for AAPL is not a number`},
			result.Warnings,
		)
	}
}

func TestParseRecoversFromPanic(t *testing.T) {
	t.Parallel()
	// A zero Parser has no segmenter.
	result := (&Parser{}).Parse("Account Information,Header,Field Name,Field Value\nAccount Information,Data,Account,U1234567")
	require.False(t, result.Success)
	require.Nil(t, result.Account)
	require.Len(t, result.Errors, 1)
	require.True(t, strings.HasPrefix(result.Errors[0], "parsing statement: "), result.Errors[0])
}

func TestParsePositionsSection(t *testing.T) {
	t.Parallel()
	text := strings.Join([]string{
		"Account Information,Header,Field Name,Field Value",
		"Account Information,Data,Account,U1234567",
		"Positions,Header,Symbol,Quantity,Market Price,Market Value,Average Cost,Unrealized P/L,Realized P/L,Asset Category,Currency,Cost Basis",
		"Positions,Data,TSLA,10,200,2000,180,200,15,Stocks,USD,1800",
		"Positions,Data,Total,,,,,,,,,",
		"Positions,Data,Stocks,,,,,,,,,",
		"Positions,Data,,5,1,5,1,0,0,Stocks,USD,5",
		"Positions,Data,NVDA,abc,1,5,1,0,0,Stocks,USD,5",
		"Positions,Data,SPY   260320P00400000,-2,3.5,-700,4,100,0,Options,USD,-800",
	}, "\n")
	result := Parse(text)
	require.True(t, result.Success)
	require.Equal(
		t,
		[]Position{
			{
				Section:       "Positions",
				Symbol:        "TSLA",
				Quantity:      10,
				MarketPrice:   200,
				MarketValue:   2000,
				AverageCost:   180,
				CostBasis:     1800,
				UnrealizedPL:  200,
				RealizedPL:    15,
				AssetCategory: "Stocks",
				AssetType:     AssetTypeStock,
				Currency:      "USD",
			},
			{
				Section:       "Positions",
				Symbol:        "SPY   260320P00400000",
				Quantity:      -2,
				MarketPrice:   3.5,
				MarketValue:   -700,
				AverageCost:   4,
				CostBasis:     -800,
				UnrealizedPL:  100,
				AssetCategory: "Options",
				AssetType:     AssetTypeOption,
				Currency:      "USD",
				Option: &optionsymbol.Option{
					Underlying: "SPY",
					Expiry:     xtime.Date{Year: 2026, Month: time.March, Day: 20},
					PutCall:    optionsymbol.PutCallPut,
					Strike:     400,
				},
			},
		},
		result.Positions,
	)
	require.Equal(
		t,
		[]string{
			"line 7: Positions row has no symbol",
			`line 8: Positions quantity "abc" for NVDA is not a number`,
		},
		result.Warnings,
	)
}

func TestPnLRecords(t *testing.T) {
	t.Parallel()
	result, err := ParseFile("testdata/statement.csv")
	require.NoError(t, err)
	require.Equal(
		t,
		[]pnlrecon.PnLRecord{
			{Symbol: "AAPL  260116C00150000", Date: xtime.Date{Year: 2026, Month: time.January, Day: 7}, PnL: 25},
			{Symbol: "AAPL", Date: xtime.Date{Year: 2026, Month: time.January, Day: 2}, PnL: 50},
			{Symbol: "AAPL", Date: xtime.Date{Year: 2026, Month: time.January, Day: 5}, PnL: 418.6},
			{Symbol: "MSFT", Date: xtime.Date{Year: 2026, Month: time.January, Day: 5}, PnL: 974},
			{Symbol: "WEIRD OPT", Date: xtime.Date{Year: 2026, Month: time.January, Day: 7}, PnL: 0},
		},
		PnLRecords(result.Trades),
	)
}

func TestStatementFilePaths(t *testing.T) {
	t.Parallel()
	filePaths, err := StatementFilePaths("testdata")
	require.NoError(t, err)
	require.Equal(t, []string{"testdata/options.csv", "testdata/statement.csv"}, filePaths)
}

const tradesHeader = "Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code"
