// Package installer prepares a fresh database. It runs before, or without,
// the application container.
package installer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/km-arc/go-housekeeper/app/cleanup"
	"github.com/km-arc/go-housekeeper/app/settings"
	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/container"
	"github.com/km-arc/go-housekeeper/framework/database"
)

// Installer migrates the schema and seeds default settings.
type Installer struct {
	app *container.Container
	db  *gorm.DB
	cfg *config.Config
	log zerolog.Logger
}

type Option func(*Installer)

// WithContainer takes the connection and config from a running container.
func WithContainer(app *container.Container) Option {
	return func(i *Installer) { i.app = app }
}

// WithDB uses db instead of opening a connection.
func WithDB(db *gorm.DB) Option {
	return func(i *Installer) { i.db = db }
}

// WithConfig uses cfg instead of loading it from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(i *Installer) { i.cfg = cfg }
}

func WithLogger(log zerolog.Logger) Option {
	return func(i *Installer) { i.log = log }
}

func New(opts ...Option) *Installer {
	i := &Installer{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install creates the tables and seeds the settings defaults. It is safe
// to run more than once.
func (i *Installer) Install(ctx context.Context) error {
	cfg, err := i.config()
	if err != nil {
		return err
	}
	db, release, err := i.connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	models := append(cleanup.Models(), &settings.Setting{})
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("installer: migrate: %w", err)
	}
	if err := settings.NewStore(db).Seed(ctx, settings.Defaults(cfg.Cleanup)); err != nil {
		return fmt.Errorf("installer: seed: %w", err)
	}
	i.log.Info().Int("tables", len(models)).Msg("install complete")
	return nil
}

func (i *Installer) config() (*config.Config, error) {
	switch {
	case i.cfg != nil:
		return i.cfg, nil
	case i.app != nil:
		return container.Resolve[*config.Config](i.app, "config")
	}
	return config.Load()
}

// connect returns the connection to use and a func releasing it. Only a
// connection opened here is closed.
func (i *Installer) connect(ctx context.Context, cfg *config.Config) (*gorm.DB, func(), error) {
	switch {
	case i.db != nil:
		return i.db, func() {}, nil
	case i.app != nil:
		db, err := container.Resolve[*gorm.DB](i.app, "db")
		return db, func() {}, err
	}

	db, err := database.Open(ctx, cfg.DB, i.log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}
