package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstengine/internal/audit"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/invoice"
	"github.com/smallbiznis/gstengine/internal/ledger"
	"github.com/smallbiznis/gstengine/internal/migration"
	"github.com/smallbiznis/gstengine/internal/observability"
	"github.com/smallbiznis/gstengine/internal/ordersettlement"
	"github.com/smallbiznis/gstengine/internal/payout"
	"github.com/smallbiznis/gstengine/internal/providers"
	"github.com/smallbiznis/gstengine/internal/report"
	"github.com/smallbiznis/gstengine/internal/scheduler"
	"github.com/smallbiznis/gstengine/internal/sequence"
	"github.com/smallbiznis/gstengine/internal/settlement"
	"github.com/smallbiznis/gstengine/internal/tax"
	"github.com/smallbiznis/gstengine/pkg/db"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"github.com/smallbiznis/gstengine/pkg/validation"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(validation.New),
		db.Module,
		migration.Module,
		kv.Module,
		clock.Module,
		providers.Module,

		// Functional Domains
		audit.Module,
		tax.Module,
		sequence.Module,
		invoice.Module,
		ledger.Module,
		settlement.Module,
		payout.Module,
		ordersettlement.Module,
		report.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
