package pricing

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTokensPerUSD is the canonical conversion rate
const DefaultTokensPerUSD int64 = 3

// DefaultMinPurchase is the smallest accepted purchase, in USD
var DefaultMinPurchase = decimal.RequireFromString("14.00")

// DefaultMaxPurchase is the largest accepted purchase, in USD
var DefaultMaxPurchase = decimal.RequireFromString("1000000.00")

const (
	// maxAmountLen bounds the textual form of an amount before it is parsed
	maxAmountLen = 64
	// decimal exponent window accepted by parseAmount
	maxExponent = 12
	minExponent = -18
)

// NormalizeAmount parses a USD amount of loosely typed input and rounds it to cents.
// Strings may carry a leading "$", surrounding spaces or a comma decimal separator.
func NormalizeAmount(raw any) (decimal.Decimal, error) {
	d, err := parseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// IsValidPurchaseAmount reports whether raw is a whole-cent amount between
// DefaultMinPurchase and DefaultMaxPurchase
func IsValidPurchaseAmount(raw any) bool {
	return validatePurchaseAmount(raw, DefaultMinPurchase, DefaultMaxPurchase) == nil
}

func validatePurchaseAmount(raw any, min, max decimal.Decimal) error {
	d, err := parseAmount(raw)
	if err != nil {
		return err
	}
	if !d.Equal(d.Round(2)) {
		return ErrAmountNotWholeCent
	}
	if d.LessThan(min) {
		return ErrAmountBelowMinimum
	}
	if d.GreaterThan(max) {
		return ErrAmountTooLarge
	}
	return nil
}

// AmountToTokens converts a USD amount with the canonical rate
func AmountToTokens(amount decimal.Decimal) int64 {
	return TokensForCents(ToCents(amount), DefaultTokensPerUSD)
}

// TokensForCents is floor(cents * rate / 100) in integer arithmetic.
// Results beyond int64 saturate at math.MaxInt64.
func TokensForCents(cents, tokensPerUSD int64) int64 {
	if cents <= 0 || tokensPerUSD <= 0 {
		return 0
	}
	whole, rest := cents/100, cents%100
	if whole > (math.MaxInt64-rest*tokensPerUSD/100)/tokensPerUSD {
		return math.MaxInt64
	}
	return whole*tokensPerUSD + rest*tokensPerUSD/100
}

// ToCents truncates a USD amount to minor units, saturating outside the int64 range
func ToCents(amount decimal.Decimal) int64 {
	cents, err := Cents(amount)
	if err != nil {
		if amount.IsNegative() {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return cents
}

// Cents truncates a USD amount to minor units, or returns ErrAmountTooLarge when they overflow int64
func Cents(amount decimal.Decimal) (int64, error) {
	if amount.IsZero() {
		return 0, nil
	}
	if amount.Exponent() > maxExponent {
		return 0, ErrAmountTooLarge
	}
	if amount.Exponent() < minExponent && amount.NumDigits()+int(amount.Exponent())+2 <= 0 {
		return 0, nil
	}
	shifted := amount.Shift(2).Truncate(0)
	if shifted.GreaterThan(maxInt64) || shifted.LessThan(minInt64) {
		return 0, ErrAmountTooLarge
	}
	return shifted.IntPart(), nil
}

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// FromCents formats minor units back into a USD amount
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// parseAmount bounds the exponent of non-zero values to [minExponent, maxExponent]
func parseAmount(raw any) (decimal.Decimal, error) {
	d, err := parseAny(raw)
	if err != nil {
		return decimal.Zero, err
	}
	switch {
	case d.IsZero():
		return decimal.Zero, nil
	case d.Exponent() > maxExponent:
		return decimal.Zero, ErrAmountTooLarge
	case d.Exponent() < minExponent:
		return decimal.Zero, ErrAmountNotWholeCent
	}
	return d, nil
}

func parseAny(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, ErrNotANumber
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, ErrNotANumber
		}
		return *v, nil
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return parseAmountString(v.String())
	case string:
		return parseAmountString(v)
	default:
		return decimal.Zero, ErrNotANumber
	}
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrNotANumber
	}
	return decimal.NewFromFloat(f), nil
}

func parseAmountString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNotANumber
	}
	if len(s) > maxAmountLen {
		return decimal.Zero, ErrAmountTooLarge
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	if strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		s = strings.TrimRight(s, "0")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotANumber
	}
	return d, nil
}
