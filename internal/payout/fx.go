package payout

import (
	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/payout/adapters"
	"github.com/smallbiznis/gstengine/internal/payout/adapters/manual"
	"github.com/smallbiznis/gstengine/internal/payout/adapters/stripe"
	"github.com/smallbiznis/gstengine/internal/payout/domain"
	"github.com/smallbiznis/gstengine/internal/payout/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payout.service",
	fx.Provide(newRegistry),
	fx.Provide(
		service.New,
		func(s *service.Service) domain.Service { return s },
	),
)

func newRegistry(cfg config.Config, log *zap.Logger) *adapters.Registry {
	providers := []domain.Provider{manual.New()}
	if provider, err := stripe.New(cfg.Payout.StripeSecretKey); err == nil {
		providers = append(providers, provider)
	} else {
		log.Info("stripe payouts disabled", zap.Error(err))
	}
	return adapters.NewRegistry(providers...)
}
