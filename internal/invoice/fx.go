package invoice

import (
	"github.com/smallbiznis/gstengine/internal/invoice/domain"
	"github.com/smallbiznis/gstengine/internal/invoice/render"
	"github.com/smallbiznis/gstengine/internal/invoice/repository"
	"github.com/smallbiznis/gstengine/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewPDF),
	fx.Provide(
		service.NewGenerator,
		func(g *service.Generator) domain.Generator { return g },
	),
	fx.Provide(
		service.NewService,
		func(s *service.Service) domain.Service { return s },
	),
)
