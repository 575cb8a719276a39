package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/config"
	taxdomain "github.com/smallbiznis/gstengine/internal/tax/domain"
	"github.com/smallbiznis/gstengine/pkg/money"
	"github.com/smallbiznis/gstengine/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type SeederParams struct {
	fx.In

	Log      *zap.Logger
	Repo     taxdomain.Repository
	Rules    *config.TaxRulesHolder
	Resolver *Resolver
	Clock    clock.Clock
}

// Seeder loads configured rate entries into the rate table.
type Seeder struct {
	log      *zap.Logger
	repo     taxdomain.Repository
	rules    *config.TaxRulesHolder
	resolver *Resolver
	clock    clock.Clock
}

func NewSeeder(p SeederParams) *Seeder {
	return &Seeder{
		log:      p.Log.Named("tax.seeder"),
		repo:     p.Repo,
		rules:    p.Rules,
		resolver: p.Resolver,
		clock:    p.Clock,
	}
}

// Seed upserts every configured rate and returns how many were written.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	seeds := s.rules.Get().Rates
	now := s.clock.Now()
	written := 0
	for _, seed := range seeds {
		entry, err := toEntry(seed)
		if err != nil {
			return written, err
		}
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if err := s.repo.Upsert(ctx, &entry); err != nil {
			return written, err
		}
		written++
	}
	s.resolver.Invalidate()
	s.log.Info("rate table seeded", zap.Int("entries", written))
	return written, nil
}

func toEntry(seed config.RateSeed) (taxdomain.RateEntry, error) {
	code := strings.TrimSpace(seed.Code)
	if !validation.IsClassificationCode(code) {
		return taxdomain.RateEntry{}, taxdomain.ErrInvalidClassificationCode.
			WithField("code").
			WithMessage("seed code %q must be 4, 6 or 8 digits", seed.Code)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(seed.Rate))
	if err != nil {
		return taxdomain.RateEntry{}, taxdomain.ErrInvalidRate.WithField("rate").Wrap(err)
	}
	if _, err := money.BasisPoints(rate); err != nil {
		return taxdomain.RateEntry{}, taxdomain.ErrInvalidRate.WithField("rate").Wrap(err)
	}
	return taxdomain.RateEntry{
		Code:        code,
		Rate:        rate,
		Category:    strings.TrimSpace(seed.Category),
		Description: strings.TrimSpace(seed.Description),
		Exempt:      seed.Exempt,
	}, nil
}
