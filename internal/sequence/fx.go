package sequence

import (
	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/sequence/domain"
	"github.com/smallbiznis/gstengine/internal/sequence/repository"
	"github.com/smallbiznis/gstengine/internal/sequence/service"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("sequence.service",
	fx.Provide(newCounterStore),
	fx.Provide(
		service.New,
		func(s *service.Service) domain.Allocator { return s },
	),
)

func newCounterStore(cfg config.Config, db *gorm.DB, store kv.Store, log *zap.Logger) domain.CounterStore {
	if cfg.SequenceBackend == "kv" {
		log.Info("invoice sequences use the kv store")
		return repository.NewKVStore(store)
	}
	return repository.NewGormStore(db)
}
