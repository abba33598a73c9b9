package fx

import (
	"go.uber.org/fx"

	"telecast/internal/repositories/channel"
	"telecast/internal/repositories/post"
)

var Module = fx.Options(
	post.Module,
	channel.Module,
)
