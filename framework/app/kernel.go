package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/container"
	"github.com/km-arc/go-housekeeper/framework/database"
	"github.com/km-arc/go-housekeeper/framework/logging"
	"github.com/km-arc/go-housekeeper/framework/providers"
	"github.com/km-arc/go-housekeeper/framework/routing"
	"github.com/km-arc/go-housekeeper/framework/scheduler"
)

// ShutdownTimeout bounds graceful HTTP shutdown in Run.
const ShutdownTimeout = 10 * time.Second

// Application is the top-level application container. It embeds the IoC
// container so user code can call app.Bind, app.Singleton and app.Register
// directly.
type Application struct {
	*container.Container
}

type options struct {
	envFiles  []string
	config    *config.Config
	db        *gorm.DB
	logWriter io.Writer
	logger    *zerolog.Logger
	catalog   *container.Catalog
}

// Option configures New.
type Option func(*options)

// WithEnvFiles sets the .env files loaded by the config provider.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithConfig binds cfg instead of loading configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithDB binds an open connection instead of opening one from config.
func WithDB(db *gorm.DB) Option {
	return func(o *options) { o.db = db }
}

// WithLogWriter redirects the application logger.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithLogger sets the logger used for container diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.logger = &log }
}

// WithCatalog shares a constructor catalog with the container.
func WithCatalog(cat *container.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// New creates the application and registers the framework providers:
// config, log, database (deferred), routing and scheduler (deferred).
func New(opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	diag := zerolog.Nop()
	switch {
	case o.logger != nil:
		diag = *o.logger
	case config.GetBool("CONTAINER_DEBUG", false):
		diag = logging.New(config.LogConfig{Level: "debug", Format: config.Get("LOG_FORMAT", "json")})
	}
	copts := []container.Option{container.WithLogger(diag)}
	if o.catalog != nil {
		copts = append(copts, container.WithCatalog(o.catalog))
	}

	app := &Application{Container: container.New(copts...)}
	app.Instance("app", app)

	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: o.envFiles, Config: o.config},
		&providers.LogServiceProvider{Writer: o.logWriter},
		&providers.DatabaseServiceProvider{DB: o.db},
		&providers.RoutingServiceProvider{},
		&providers.SchedulerServiceProvider{},
	}
	for _, p := range core {
		if err := app.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Config resolves *config.Config from the container.
func (a *Application) Config() (*config.Config, error) {
	return container.Resolve[*config.Config](a.Container, "config")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Logger resolves the application logger.
func (a *Application) Logger() zerolog.Logger {
	return providers.Logger(a.Container, "app")
}

// Run boots the application, starts the scheduler and serves HTTP until
// ctx is cancelled, then shuts down gracefully. The database is closed on
// every return after a successful boot.
func (a *Application) Run(ctx context.Context) (err error) {
	if err := a.Boot(); err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	router, err := a.Router()
	if err != nil {
		return err
	}
	log := a.Logger()

	sched, err := container.Resolve[*scheduler.Scheduler](a.Container, "scheduler")
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the database connection if one was opened.
func (a *Application) Close() error {
	key := container.Key[*gorm.DB]()
	if !a.Resolved(key) {
		return nil
	}
	db, err := container.Resolve[*gorm.DB](a.Container, key)
	if err != nil {
		return err
	}
	return database.Close(db)
}

// Environment returns the configured APP_ENV, or "" before config loads.
func (a *Application) Environment() string {
	cfg, err := a.Config()
	if err != nil {
		return ""
	}
	return cfg.App.Env
}

func (a *Application) IsLocal() bool      { return a.Environment() == "local" }
func (a *Application) IsProduction() bool { return a.Environment() == "production" }
func (a *Application) IsTesting() bool    { return a.Environment() == "testing" }

