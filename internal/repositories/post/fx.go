package post

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"telecast/pkg/config"
	"telecast/pkg/logger"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
	Pool   *pgxpool.Pool
}

// New selects the store backend from configuration. Memory is the default;
// the postgres backend is the opt-in durable upgrade behind the same
// interface, so dispatch logic never knows which one it talks to.
func New(opts Opts) (Repository, error) {
	if opts.Config.Store.Driver == config.StoreDriverPostgres {
		if opts.Pool == nil {
			return nil, errors.New("postgres store driver selected but no connection pool available")
		}
		return NewPgx(opts.Pool, opts.Logger), nil
	}
	return NewMemory(opts.Logger), nil
}

var Module = fx.Module("post_repository",
	fx.Provide(
		fx.Annotate(
			New,
			fx.As(new(Repository)),
		),
	),
)
