package providers

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/container"
	"github.com/km-arc/go-housekeeper/framework/database"
	"github.com/km-arc/go-housekeeper/framework/logging"
	"github.com/km-arc/go-housekeeper/framework/routing"
	"github.com/km-arc/go-housekeeper/framework/scheduler"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// the environment.
//
// Bound identifiers:
//   - "config" → *config.Config
//   - Key[*config.Config]() (alias)
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
	// Config, when set, is bound as is instead of being loaded.
	Config *config.Config
}

func (p *ConfigServiceProvider) Name() string { return "ConfigServiceProvider" }

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if p.Config != nil {
		app.Instance("config", p.Config)
	} else {
		envFiles := p.EnvFiles
		app.Singleton("config", func(*container.Container) (any, error) {
			return config.Load(envFiles...)
		})
	}
	app.Alias(container.Key[*config.Config](), "config")
	return nil
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider builds the application logger from the "log" config
// section.
//
// Bound identifiers:
//   - Key[zerolog.Logger]() → zerolog.Logger
//   - "log" (alias)
type LogServiceProvider struct {
	container.BaseProvider
	// Writer defaults to stdout.
	Writer io.Writer
}

func (p *LogServiceProvider) Name() string { return "LogServiceProvider" }

func (p *LogServiceProvider) Register(app *container.Container) error {
	w := p.Writer
	if w == nil {
		w = os.Stdout
	}
	app.Singleton(container.Key[zerolog.Logger](), func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		return logging.NewWithWriter(cfg.Log, w).With().Str("app", cfg.App.Name).Logger(), nil
	})
	app.Alias("log", container.Key[zerolog.Logger]())
	return nil
}

// Logger resolves the application logger tagged with component, or a no-op
// logger when none is bound.
func Logger(c *container.Container, component string) zerolog.Logger {
	return logging.Component(appLogger(c), component)
}

// appLogger is for packages that tag their own component.
func appLogger(c *container.Container) zerolog.Logger {
	log, err := container.Resolve[zerolog.Logger](c, "log")
	if err != nil {
		return zerolog.Nop()
	}
	return log
}

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider opens the gorm connection on first use.
//
// Bound identifiers:
//   - Key[*gorm.DB]() → *gorm.DB
//   - "db" (alias)
type DatabaseServiceProvider struct {
	container.BaseProvider
	// DB, when set, is bound instead of opening a connection from config.
	DB *gorm.DB
}

func (p *DatabaseServiceProvider) Name() string     { return "DatabaseServiceProvider" }
func (p *DatabaseServiceProvider) IsDeferred() bool { return true }
func (p *DatabaseServiceProvider) Provides() []string {
	return []string{container.Key[*gorm.DB](), "db"}
}

func (p *DatabaseServiceProvider) Register(app *container.Container) error {
	key := container.Key[*gorm.DB]()
	if p.DB != nil {
		app.Instance(key, p.DB)
	} else {
		app.Singleton(key, func(c *container.Container) (any, error) {
			cfg, err := container.Resolve[*config.Config](c, "config")
			if err != nil {
				return nil, err
			}
			return database.Open(context.Background(), cfg.DB, appLogger(c))
		})
	}
	app.Alias("db", key)
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Bound identifiers:
//   - "router" → *routing.Router
//   - Key[*routing.Router]() (alias)
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Name() string { return "RoutingServiceProvider" }

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	app.Singleton("router", func(c *container.Container) (any, error) {
		return routing.New(appLogger(c)), nil
	})
	app.Alias(container.Key[*routing.Router](), "router")
	return nil
}

// ── SchedulerServiceProvider ──────────────────────────────────────────────────

// SchedulerServiceProvider registers the job scheduler on first use.
//
// Bound identifiers:
//   - "scheduler" → *scheduler.Scheduler
//   - Key[*scheduler.Scheduler]() (alias)
type SchedulerServiceProvider struct {
	container.BaseProvider
}

func (p *SchedulerServiceProvider) Name() string     { return "SchedulerServiceProvider" }
func (p *SchedulerServiceProvider) IsDeferred() bool { return true }
func (p *SchedulerServiceProvider) Provides() []string {
	return []string{"scheduler", container.Key[*scheduler.Scheduler]()}
}

func (p *SchedulerServiceProvider) Register(app *container.Container) error {
	app.Singleton("scheduler", func(c *container.Container) (any, error) {
		return scheduler.New(appLogger(c)), nil
	})
	app.Alias(container.Key[*scheduler.Scheduler](), "scheduler")
	return nil
}
