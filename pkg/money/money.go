package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrPercentPrecision = errors.New("percentage_precision_exceeded")
	ErrPercentRange     = errors.New("percentage_out_of_range")
	ErrOverflow         = errors.New("amount_overflow")
)

var (
	hundred   = decimal.NewFromInt(100)
	basisUnit = int64(10000)
)

// BasisPoints converts a percentage with at most two decimal places into
// hundredths of a percent, so 12.5% becomes 1250.
func BasisPoints(pct decimal.Decimal) (int64, error) {
	if !pct.Equal(pct.Round(2)) {
		return 0, ErrPercentPrecision
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return 0, ErrPercentRange
	}
	return pct.Mul(hundred).IntPart(), nil
}

// FloorShare returns floor(amount * bp / (10000 * parts)) for non-negative
// amounts. parts splits the share evenly before flooring, which is how a
// combined rate is divided into two equal components.
func FloorShare(amount, bp, parts int64) (int64, error) {
	if amount < 0 || bp < 0 || parts <= 0 {
		return 0, ErrOverflow
	}
	if bp != 0 && amount > math.MaxInt64/bp {
		return 0, ErrOverflow
	}
	return amount * bp / (basisUnit * parts), nil
}

// Percent is FloorShare over a decimal percentage.
func Percent(amount int64, pct decimal.Decimal) (int64, error) {
	bp, err := BasisPoints(pct)
	if err != nil {
		return 0, err
	}
	return FloorShare(amount, bp, 1)
}

// Add sums non-negative amounts, failing instead of wrapping.
func Add(values ...int64) (int64, error) {
	var total int64
	for _, v := range values {
		if v < 0 || total > math.MaxInt64-v {
			return 0, ErrOverflow
		}
		total += v
	}
	return total, nil
}

// Mul multiplies non-negative factors, failing instead of wrapping.
func Mul(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrOverflow
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// Format renders minor units as a two-decimal rupee amount with Indian digit
// grouping, e.g. 11200000 -> "1,12,000.00".
func Format(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := fmt.Sprintf("%d", minor/100)
	frac := minor % 100

	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		whole = strings.Join(groups, ",") + "," + tail
	}
	return fmt.Sprintf("%s%s.%02d", sign, whole, frac)
}
