// Package providers registers the housekeeping subsystems with the
// application container.
package providers

import (
	"context"

	"github.com/km-arc/go-housekeeper/app/settings"
	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/container"
)

// SettingsServiceProvider binds the settings store and seeds the defaults
// on boot.
//
// Bound identifiers:
//   - Key[*settings.Store]() (auto-wired)
//   - "settings" (alias)
type SettingsServiceProvider struct {
	container.BaseProvider
}

func (p *SettingsServiceProvider) Name() string { return "SettingsServiceProvider" }

func (p *SettingsServiceProvider) Register(app *container.Container) error {
	if err := p.Constructor(settings.NewStore); err != nil {
		return err
	}
	p.Alias("settings", container.Key[*settings.Store]())
	return nil
}

func (p *SettingsServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	store, err := container.Resolve[*settings.Store](app, "settings")
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return store.Seed(ctx, settings.Defaults(cfg.Cleanup))
}
