// Package app assembles the housekeeper application: the framework
// providers followed by the settings, cleanup, route and schedule
// providers.
package app

import (
	"github.com/km-arc/go-housekeeper/app/providers"
	fwapp "github.com/km-arc/go-housekeeper/framework/app"
	"github.com/km-arc/go-housekeeper/framework/container"
)

// New creates the application with every provider registered. Nothing is
// booted yet.
//
//	application, err := app.New()
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
func New(opts ...fwapp.Option) (*fwapp.Application, error) {
	a, err := fwapp.New(opts...)
	if err != nil {
		return nil, err
	}
	for _, p := range []container.ServiceProvider{
		&providers.SettingsServiceProvider{},
		&providers.CleanupServiceProvider{},
		&providers.RouteServiceProvider{},
		&providers.ScheduleServiceProvider{},
	} {
		if err := a.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}
