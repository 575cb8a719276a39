package ordersettlement

import "go.uber.org/fx"

var Module = fx.Module("ordersettlement",
	fx.Provide(New),
)
