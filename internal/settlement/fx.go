package settlement

import (
	"github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/internal/settlement/repository"
	"github.com/smallbiznis/gstengine/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(
		service.NewSplitCalculator,
		func(c *service.SplitCalculator) domain.SplitCalculator { return c },
	),
	fx.Provide(
		service.NewTDSService,
		func(s *service.TDSService) domain.TDSService { return s },
	),
)
