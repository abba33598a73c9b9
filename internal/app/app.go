package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"

	"telecast/internal/dispatcher"
	"telecast/internal/dispatcher/dispatcherimpl"
	_ "telecast/internal/migrations"
	"telecast/internal/pgx"
	"telecast/internal/ratelimit"
	repositories "telecast/internal/repositories/fx"
	"telecast/internal/sender"
	"telecast/internal/sender/senderimpl"
	"telecast/internal/server"
	"telecast/internal/service"
	"telecast/internal/telegram"
	"telecast/internal/telegram/telegramimpl"
	"telecast/pkg/config"
	"telecast/pkg/logger"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	fx.Provide(
		fx.Annotate(
			telegramimpl.New,
			fx.As(new(telegram.Client)),
		),
		fx.Annotate(
			senderimpl.New,
			fx.As(new(sender.Adapter)),
		),
		fx.Annotate(
			dispatcherimpl.New,
			fx.As(new(dispatcher.Client)),
		),
		func(cfg *config.Config) ratelimit.Limiter {
			return ratelimit.NewInMemoryLimiter(1, cfg.RateLimit.PerChannel, cfg.RateLimit.Burst)
		},
		service.New,
		server.New,
	),
	repositories.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

// migrate applies the embedded go migrations. The in-memory store needs
// no schema, so it is skipped entirely there.
func migrate(cfg *config.Config, log logger.Logger) error {
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return nil
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("pgx",
		fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Postgres.User, cfg.Postgres.Pass, cfg.Postgres.Host,
			cfg.Postgres.Port, cfg.Postgres.Name, cfg.Postgres.SslMode,
		),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.Up(db, "."); err != nil {
		return err
	}

	log.Info("Migrations applied")
	return nil
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, d dispatcher.Client, srv *server.Server) {
	appCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := d.Start(appCtx); err != nil {
				cancel()
				return err
			}

			go func() {
				addr := fmt.Sprintf(":%d", cfg.App.Port)
				log.Info("Starting HTTP server", "addr", addr)
				if err := srv.Echo.Start(addr); err != nil {
					log.Error("HTTP server stopped", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return srv.Echo.Shutdown(ctx)
		},
	})
}
