package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/config"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/internal/settlement/repository"
	"github.com/smallbiznis/gstengine/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPolicyRates(t *testing.T) {
	policy := PolicyFrom(config.TaxRules{TDSThreshold: 0, TDSRateWithTaxID: "1", TDSRateWithoutTaxID: "5"})

	with, err := policy.Compute(1_000_000, true, 0)
	require.NoError(t, err)
	assert.True(t, with.Applicable)
	assert.True(t, with.Rate.Equal(pct("1")))
	assert.Equal(t, int64(10_000), with.Withheld)
	assert.Equal(t, int64(990_000), with.Net)

	without, err := policy.Compute(1_000_000, false, 0)
	require.NoError(t, err)
	assert.True(t, without.Rate.Equal(pct("5")))
	assert.Equal(t, int64(50_000), without.Withheld)
	assert.Equal(t, int64(950_000), without.Net)
}

func TestPolicyRateIsExactAboveThreshold(t *testing.T) {
	policy := PolicyFrom(config.DefaultTaxRules())
	for _, gross := range []int64{1, 99, 100, 12_345, 1_000_001, 77_777_777} {
		withID, err := policy.Compute(gross, true, policy.Threshold)
		require.NoError(t, err)
		assert.Equal(t, gross/100, withID.Withheld)
		assert.Equal(t, gross, withID.Withheld+withID.Net)

		withoutID, err := policy.Compute(gross, false, policy.Threshold)
		require.NoError(t, err)
		assert.Equal(t, gross*5/100, withoutID.Withheld)
		assert.Equal(t, gross, withoutID.Withheld+withoutID.Net)
	}
}

func TestPolicyThreshold(t *testing.T) {
	policy := Policy{Threshold: 500, RateWithTaxID: pct("1"), RateWithoutTaxID: pct("5")}

	below, err := policy.Compute(200, false, 100)
	require.NoError(t, err)
	assert.False(t, below.Applicable)
	assert.Zero(t, below.Withheld)
	assert.True(t, below.Rate.IsZero())
	assert.Equal(t, int64(200), below.Net)

	atThreshold, err := policy.Compute(200, false, 300)
	require.NoError(t, err)
	assert.False(t, atThreshold.Applicable)

	crossing, err := policy.Compute(1000, false, 400)
	require.NoError(t, err)
	assert.True(t, crossing.Applicable)
	assert.Equal(t, int64(50), crossing.Withheld, "the crossing payout is withheld in full")
	assert.Equal(t, int64(1400), crossing.CumulativeAfter)

	_, err = policy.Compute(0, true, 0)
	require.ErrorIs(t, err, settlementdomain.ErrInvalidAmount)
}

type tdsFixture struct {
	svc   *TDSService
	clock *clock.FakeClock
}

func newTDSFixture(t *testing.T, threshold int64) tdsFixture {
	t.Helper()
	conn := db.NewTest(t, &settlementdomain.TDSRecord{}, &settlementdomain.CumulativePayout{})
	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	rules := config.DefaultTaxRules()
	rules.TDSThreshold = threshold
	clk := clock.NewFakeClock(time.Date(2024, 7, 15, 6, 30, 0, 0, time.UTC))
	svc := NewTDSService(TDSParams{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Rules: config.NewStaticTaxRules(rules),
		Clock: clk,
	})
	return tdsFixture{svc: svc, clock: clk}
}

func TestWithholdTracksCumulativePayouts(t *testing.T) {
	f := newTDSFixture(t, 1_000_000)
	ctx := context.Background()

	first, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "V", OrderID: "o1", GrossPayout: 600_000, HasTaxID: true})
	require.NoError(t, err)
	assert.Zero(t, first.WithheldAmount)
	assert.Equal(t, int64(600_000), first.NetPayout)
	assert.Equal(t, "2024-25", first.FiscalYear)
	assert.Equal(t, 2, first.Quarter)

	second, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "V", OrderID: "o2", GrossPayout: 500_000, HasTaxID: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), second.WithheldAmount)
	assert.Equal(t, int64(1_100_000), second.CumulativeAfter)
	assert.True(t, second.Rate.Equal(pct("1")))

	third, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "V", OrderID: "o3", GrossPayout: 1_000, HasTaxID: false})
	require.NoError(t, err)
	assert.Equal(t, int64(50), third.WithheldAmount)

	other, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "W", OrderID: "o4", GrossPayout: 500_000, HasTaxID: true})
	require.NoError(t, err)
	assert.Zero(t, other.WithheldAmount)
}

func TestWithholdReplayDoesNotDoubleCount(t *testing.T) {
	f := newTDSFixture(t, 1_000_000)
	ctx := context.Background()
	in := settlementdomain.TDSInput{VendorID: "V", OrderID: "o1", GrossPayout: 600_000, HasTaxID: true}

	first, err := f.svc.Withhold(ctx, in)
	require.NoError(t, err)
	again, err := f.svc.Withhold(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	next, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "V", OrderID: "o2", GrossPayout: 300_000, HasTaxID: true})
	require.NoError(t, err)
	assert.Equal(t, int64(900_000), next.CumulativeAfter)
	assert.Zero(t, next.WithheldAmount)
}

func TestWithholdResetsEachFiscalYear(t *testing.T) {
	f := newTDSFixture(t, 1_000_000)
	ctx := context.Background()

	march := time.Date(2025, 3, 20, 6, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 6, 0, 0, 0, time.UTC)

	_, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "V", OrderID: "o1", GrossPayout: 900_000, HasTaxID: true, PaidAt: march})
	require.NoError(t, err)
	rec, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "V", OrderID: "o2", GrossPayout: 900_000, HasTaxID: true, PaidAt: april})
	require.NoError(t, err)
	assert.Equal(t, "2025-26", rec.FiscalYear)
	assert.Equal(t, 1, rec.Quarter)
	assert.Equal(t, int64(900_000), rec.CumulativeAfter)
	assert.Zero(t, rec.WithheldAmount)
}

func TestWithholdConcurrentPayouts(t *testing.T) {
	f := newTDSFixture(t, 0)
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{
				VendorID:    "V",
				OrderID:     fmt.Sprintf("o%d", i),
				GrossPayout: 10_000,
				HasTaxID:    true,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	summary, err := f.svc.Certificate(ctx, "V", "2024-25", 2)
	require.NoError(t, err)
	assert.Equal(t, n, summary.Payouts)
	assert.Equal(t, int64(n*10_000), summary.GrossPayout)
	assert.Equal(t, int64(n*100), summary.Withheld)
	var highest int64
	seen := map[int64]bool{}
	for _, record := range summary.Records {
		assert.False(t, seen[record.CumulativeAfter], "running total %d observed twice", record.CumulativeAfter)
		seen[record.CumulativeAfter] = true
		if record.CumulativeAfter > highest {
			highest = record.CumulativeAfter
		}
	}
	assert.Equal(t, int64(n*10_000), highest)
}

func TestCertificateByQuarter(t *testing.T) {
	f := newTDSFixture(t, 0)
	ctx := context.Background()

	payouts := []struct {
		order string
		at    time.Time
		gross int64
	}{
		{"o1", time.Date(2024, 4, 10, 6, 0, 0, 0, time.UTC), 100_000},
		{"o2", time.Date(2024, 6, 29, 6, 0, 0, 0, time.UTC), 200_000},
		{"o3", time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC), 300_000},
	}
	for _, p := range payouts {
		_, err := f.svc.Withhold(ctx, settlementdomain.TDSInput{VendorID: "V", OrderID: p.order, GrossPayout: p.gross, HasTaxID: true, PaidAt: p.at})
		require.NoError(t, err)
	}

	q1, err := f.svc.Certificate(ctx, "V", "2024-25", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, q1.Payouts)
	assert.Equal(t, int64(300_000), q1.GrossPayout)
	assert.Equal(t, int64(3_000), q1.Withheld)
	assert.Equal(t, int64(297_000), q1.NetPayout)
	assert.Equal(t, time.April, q1.PeriodStart.Month())

	withheld, err := f.svc.WithheldBetween(ctx, "V", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3_000), withheld)

	_, err = f.svc.Certificate(ctx, "V", "2024-25", 5)
	require.ErrorIs(t, err, settlementdomain.ErrInvalidQuarter)
	_, err = f.svc.Certificate(ctx, "V", "2024", 1)
	require.Error(t, err)
}
