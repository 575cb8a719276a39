package service

import (
	"testing"

	"github.com/shopspring/decimal"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func TestSplitScenario(t *testing.T) {
	split, err := Split(settlementdomain.SplitInput{
		PaymentID:          "pay_1",
		OrderValue:         1_000_000,
		CommissionPct:      pct("10"),
		WithheldPct:        pct("1"),
		WithheldApplicable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), split.CommissionAmount)
	assert.Equal(t, int64(10_000), split.WithheldAmount)
	assert.Equal(t, int64(890_000), split.VendorAmount)
	assert.Equal(t, int64(110_000), split.PlatformAmount)
	assert.Equal(t, "pay_1", split.PaymentID)
	assert.True(t, split.Balanced())
}

func TestSplitWithholdingNotApplicable(t *testing.T) {
	split, err := Split(settlementdomain.SplitInput{
		OrderValue:    1_000_000,
		CommissionPct: pct("10"),
		WithheldPct:   pct("5"),
	})
	require.NoError(t, err)
	assert.Zero(t, split.WithheldAmount)
	assert.Equal(t, int64(900_000), split.VendorAmount)
}

func TestSplitSumsExactly(t *testing.T) {
	values := []int64{1, 7, 99, 101, 999, 12_345, 1_000_000, 987_654_321}
	commissions := []string{"0", "0.01", "2.5", "10", "12.75", "33.33", "99.99", "100"}
	withholdings := []string{"0", "1", "5", "0.5"}

	for _, value := range values {
		for _, c := range commissions {
			for _, w := range withholdings {
				for _, applicable := range []bool{true, false} {
					in := settlementdomain.SplitInput{
						OrderValue:         value,
						CommissionPct:      pct(c),
						WithheldPct:        pct(w),
						WithheldApplicable: applicable,
					}
					split, err := Split(in)
					if applicable && pct(c).Add(pct(w)).GreaterThan(decimal.NewFromInt(100)) {
						if err != nil {
							assert.ErrorIs(t, err, settlementdomain.ErrInvalidPercentage)
							continue
						}
					}
					require.NoError(t, err, "value=%d commission=%s withheld=%s", value, c, w)
					assert.Equal(t, value, split.CommissionAmount+split.WithheldAmount+split.VendorAmount,
						"value=%d commission=%s withheld=%s", value, c, w)
					assert.GreaterOrEqual(t, split.VendorAmount, int64(0))
					assert.True(t, split.Balanced())
				}
			}
		}
	}
}

func TestSplitFullCommission(t *testing.T) {
	split, err := Split(settlementdomain.SplitInput{OrderValue: 12_345, CommissionPct: pct("100"), WithheldPct: pct("0")})
	require.NoError(t, err)
	assert.Equal(t, int64(12_345), split.CommissionAmount)
	assert.Zero(t, split.VendorAmount)
}

func TestSplitRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		in    settlementdomain.SplitInput
		err   error
		field string
	}{
		"negative commission": {
			in:    settlementdomain.SplitInput{OrderValue: 100, CommissionPct: pct("-1"), WithheldPct: pct("1")},
			err:   settlementdomain.ErrInvalidPercentage,
			field: "commission_pct",
		},
		"commission above 100": {
			in:    settlementdomain.SplitInput{OrderValue: 100, CommissionPct: pct("100.01"), WithheldPct: pct("1")},
			err:   settlementdomain.ErrInvalidPercentage,
			field: "commission_pct",
		},
		"withheld above 100": {
			in:    settlementdomain.SplitInput{OrderValue: 100, CommissionPct: pct("1"), WithheldPct: pct("101")},
			err:   settlementdomain.ErrInvalidPercentage,
			field: "withheld_pct",
		},
		"three decimals": {
			in:    settlementdomain.SplitInput{OrderValue: 100, CommissionPct: pct("10.125"), WithheldPct: pct("1")},
			err:   settlementdomain.ErrInvalidPercentage,
			field: "commission_pct",
		},
		"combined above 100": {
			in:    settlementdomain.SplitInput{OrderValue: 100, CommissionPct: pct("100"), WithheldPct: pct("5"), WithheldApplicable: true},
			err:   settlementdomain.ErrInvalidPercentage,
			field: "withheld_pct",
		},
		"zero value": {
			in:    settlementdomain.SplitInput{OrderValue: 0, CommissionPct: pct("10"), WithheldPct: pct("1")},
			err:   settlementdomain.ErrInvalidAmount,
			field: "order_value",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Split(tc.in)
			require.ErrorIs(t, err, tc.err)
			var appErr interface{ Field() string }
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tc.field, appErr.Field())
		})
	}
}
