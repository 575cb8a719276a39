package report

import (
	"context"

	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/report/domain"
	"github.com/smallbiznis/gstengine/internal/report/service"
	"github.com/smallbiznis/gstengine/internal/report/sink"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("report.service",
	fx.Provide(newSink),
	fx.Provide(
		service.NewService,
		func(s *service.Service) domain.Service { return s },
	),
)

func newSink(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (domain.Sink, error) {
	if !cfg.Storage.Enabled() {
		log.Warn("object storage not configured, keeping report exports in memory")
		return sink.NewMemory(), nil
	}
	store, err := sink.NewMinio(cfg.Storage)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.EnsureBucket(ctx)
		},
	})
	return store, nil
}
