package migration

import (
	"strings"

	"github.com/smallbiznis/gstengine/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(migrateOnStart),
)

func migrateOnStart(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	log = log.Named("migration")
	if !cfg.DBRunMigrations {
		return nil
	}
	if strings.ToLower(cfg.DBType) != "postgres" {
		log.Warn("embedded migrations target postgres, skipping", zap.String("db_type", cfg.DBType))
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	version, err := RunMigrations(sqlDB)
	if err != nil {
		return err
	}
	log.Info("schema up to date", zap.Uint("version", version), zap.String("table", MigrationsTable))
	return nil
}
