// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package optionsymbol decodes and encodes OCC-style option symbols.
//
// An option symbol is the underlying ticker (uppercase letters), optional
// whitespace padding, the expiry as YYMMDD, C or P, and the strike price
// times 1000 as eight digits:
//
//	AAPL  240119C00150000   AAPL call, expiring 2024-01-19, strike 150
//	SPY240315P00480500      SPY put, expiring 2024-03-15, strike 480.5
package optionsymbol

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bufdev/ibrecon/internal/standard/xtime"
)

// PutCall is the option right.
type PutCall string

const (
	// PutCallCall is a call option.
	PutCallCall PutCall = "CALL"
	// PutCallPut is a put option.
	PutCallPut PutCall = "PUT"
)

// strikeFactor is the fixed-point scale of the encoded strike.
const strikeFactor = 1000

// occPadWidth is the width the underlying is padded to when encoding.
const occPadWidth = 6

var (
	symbolRegexp     = regexp.MustCompile(`^([A-Z]+)\s*(\d{2})(\d{2})(\d{2})([CP])(\d{8})$`)
	underlyingRegexp = regexp.MustCompile(`^[A-Z]+$`)
)

// Option holds the decoded attributes of an option symbol.
type Option struct {
	Underlying string     `json:"underlying"`
	Expiry     xtime.Date `json:"expiry"`
	PutCall    PutCall    `json:"putCall"`
	Strike     float64    `json:"strike"`
}

// Decode decodes an option symbol.
//
// The boolean is false if the symbol does not follow the option grammar, which
// callers treat as "not an option".
func Decode(symbol string) (Option, bool) {
	match := symbolRegexp.FindStringSubmatch(strings.TrimSpace(symbol))
	if match == nil {
		return Option{}, false
	}
	// The regexp guarantees digits, so these conversions cannot fail.
	yy, _ := strconv.Atoi(match[2])
	mm, _ := strconv.Atoi(match[3])
	dd, _ := strconv.Atoi(match[4])
	expiry, err := xtime.NewDate(2000+yy, time.Month(mm), dd)
	if err != nil {
		return Option{}, false
	}
	strike, _ := strconv.ParseInt(match[6], 10, 64)
	putCall := PutCallCall
	if match[5] == "P" {
		putCall = PutCallPut
	}
	return Option{
		Underlying: match[1],
		Expiry:     expiry,
		PutCall:    putCall,
		Strike:     float64(strike) / strikeFactor,
	}, true
}

// Encode returns the OCC symbol for the option, padding the underlying to six characters.
func Encode(option Option) (string, error) {
	if !underlyingRegexp.MatchString(option.Underlying) {
		return "", fmt.Errorf("invalid underlying %q", option.Underlying)
	}
	if option.Expiry.Year < 2000 || option.Expiry.Year > 2099 || !option.Expiry.IsValid() {
		return "", fmt.Errorf("expiry %s out of range", option.Expiry)
	}
	var right string
	switch option.PutCall {
	case PutCallCall:
		right = "C"
	case PutCallPut:
		right = "P"
	default:
		return "", fmt.Errorf("unknown put/call %q", option.PutCall)
	}
	strike := int64(math.Round(option.Strike * strikeFactor))
	if strike < 0 || strike > 99_999_999 {
		return "", fmt.Errorf("strike %v out of range", option.Strike)
	}
	return fmt.Sprintf(
		"%-*s%02d%02d%02d%s%08d",
		occPadWidth,
		option.Underlying,
		option.Expiry.Year-2000,
		int(option.Expiry.Month),
		option.Expiry.Day,
		right,
		strike,
	), nil
}
