package telemetry

import "go.uber.org/fx"

// Module provides application metrics.
var Module = fx.Module("telemetry",
	fx.Provide(NewMetrics),
)
