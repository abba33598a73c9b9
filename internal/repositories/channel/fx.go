package channel

import (
	"go.uber.org/fx"

	"telecast/pkg/config"
	"telecast/pkg/logger"
)

var Module = fx.Module("channel_registry",
	fx.Provide(
		fx.Annotate(
			func(cfg *config.Config, log logger.Logger) *Memory {
				return NewMemory(cfg.Channels.RegistrationTTL, log)
			},
			fx.As(new(Registry)),
		),
	),
)
