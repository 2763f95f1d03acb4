package authorization

import "go.uber.org/fx"

// Module wires the casbin enforcer backed by the shared database.
var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
