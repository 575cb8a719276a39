package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/gstengine/internal/cache"
	taxdomain "github.com/smallbiznis/gstengine/internal/tax/domain"
	"github.com/smallbiznis/gstengine/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultRateTTL = 10 * time.Minute

type ResolverParams struct {
	fx.In

	Log        *zap.Logger
	Repository taxdomain.Repository
}

type Resolver struct {
	log   *zap.Logger
	repo  taxdomain.Repository
	cache cache.Cache[string, taxdomain.RateEntry]
	ttl   time.Duration
}

func NewResolver(p ResolverParams) *Resolver {
	return &Resolver{
		log:   p.Log.Named("tax.resolver"),
		repo:  p.Repository,
		cache: cache.NewTTLCache[string, taxdomain.RateEntry](),
		ttl:   defaultRateTTL,
	}
}

// Rate returns the entry for code or ErrUnknownClassification.
func (r *Resolver) Rate(ctx context.Context, code string) (taxdomain.RateEntry, error) {
	code = strings.TrimSpace(code)
	if !validation.IsClassificationCode(code) {
		return taxdomain.RateEntry{}, taxdomain.ErrInvalidClassificationCode.WithField("classification_code")
	}
	if entry, ok := r.cache.Get(code); ok {
		return entry, nil
	}

	entry, err := r.repo.Get(ctx, code)
	if err != nil {
		return taxdomain.RateEntry{}, err
	}
	if entry == nil {
		return taxdomain.RateEntry{}, taxdomain.ErrUnknownClassification.
			WithField("classification_code").
			WithMessage("classification code %s is not in the rate table", code)
	}
	r.cache.Set(code, *entry, r.ttl)
	return *entry, nil
}

// Invalidate drops cached entries after the rate table changes.
func (r *Resolver) Invalidate() {
	r.cache.Purge()
}

var _ taxdomain.Resolver = (*Resolver)(nil)
