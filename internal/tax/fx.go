package tax

import (
	"context"

	"github.com/smallbiznis/gstengine/internal/tax/domain"
	"github.com/smallbiznis/gstengine/internal/tax/repository"
	"github.com/smallbiznis/gstengine/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(
		service.NewResolver,
		func(r *service.Resolver) domain.Resolver { return r },
	),
	fx.Provide(
		service.NewCalculator,
		func(c *service.Calculator) domain.Calculator { return c },
	),
	fx.Provide(service.NewSeeder),
	fx.Invoke(registerSeed),
)

func registerSeed(lc fx.Lifecycle, seeder *service.Seeder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := seeder.Seed(ctx)
			return err
		},
	})
}
