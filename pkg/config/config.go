package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Telegram struct {
		Token string `env:"TELEGRAM_TOKEN"`
	}
	Scheduler struct {
		ScanInterval       time.Duration `env:"SCHEDULER_SCAN_INTERVAL" env-default:"30s"`
		SendTimeout        time.Duration `env:"SCHEDULER_SEND_TIMEOUT" env-default:"30s"`
		Workers            int           `env:"SCHEDULER_WORKERS" env-default:"5"`
		AllowReschedule    bool          `env:"SCHEDULER_ALLOW_RESCHEDULE" env-default:"true"`
		MaxResolveFailures int           `env:"SCHEDULER_MAX_RESOLVE_FAILURES" env-default:"20"`
	}
	Channels struct {
		RegistrationTTL time.Duration `env:"CHANNELS_REGISTRATION_TTL" env-default:"10m"`
	}
	RateLimit struct {
		PerChannel time.Duration `env:"RATE_LIMIT_PER_CHANNEL" env-default:"1s"`
		Burst      int           `env:"RATE_LIMIT_BURST" env-default:"5"`
	}
	Store struct {
		Driver string `env:"STORE_DRIVER" env-default:"memory"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}
