package providers

import (
	"net/http"

	"github.com/km-arc/go-housekeeper/app/http/controllers"
	"github.com/km-arc/go-housekeeper/app/http/middleware"
	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/container"
	gohttp "github.com/km-arc/go-housekeeper/framework/http"
	fwproviders "github.com/km-arc/go-housekeeper/framework/providers"
	"github.com/km-arc/go-housekeeper/framework/routing"
)

// RouteServiceProvider mounts the JSON API. Controllers are auto-wired per
// request, so the services behind them load on first call.
type RouteServiceProvider struct {
	container.BaseProvider
}

func (p *RouteServiceProvider) Name() string { return "RouteServiceProvider" }

func (p *RouteServiceProvider) Register(app *container.Container) error {
	for _, ctor := range []any{
		controllers.NewCleanupController,
		controllers.NewSettingsController,
		controllers.NewJobsController,
	} {
		if err := p.Constructor(ctor); err != nil {
			return err
		}
	}
	return nil
}

func (p *RouteServiceProvider) Boot(app *container.Container) error {
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}

	router.Get("/health", gohttp.Handle(func(_ *gohttp.Request, res *gohttp.Response) {
		res.Success(map[string]string{"status": "ok"})
	}))

	router.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/cleanup", action(app, (*controllers.CleanupController).Index))
		api.Get("/settings", action(app, (*controllers.SettingsController).Index))
		api.Get("/settings/{key}", action(app, (*controllers.SettingsController).Show))
		api.Get("/jobs", action(app, (*controllers.JobsController).Index))

		// writes need the app key as a bearer token
		api.Group(func(w *routing.Router) {
			w.Middleware(middleware.RequireKey(cfg.App.Key))

			w.Post("/cleanup", action(app, (*controllers.CleanupController).RunAll))
			w.Post("/cleanup/{analyzer}", action(app, (*controllers.CleanupController).Run))

			update := action(app, (*controllers.SettingsController).Update)
			w.Put("/settings/{key}", update)
			w.Patch("/settings/{key}", update)
			w.Delete("/settings/{key}", action(app, (*controllers.SettingsController).Destroy))

			w.Post("/jobs/{job}", action(app, (*controllers.JobsController).Run))
		})
	})
	return nil
}

// action resolves a fresh C from the container and calls method on it.
func action[C any](app *container.Container, method func(C, *gohttp.Request, *gohttp.Response)) http.HandlerFunc {
	return gohttp.Handle(func(req *gohttp.Request, res *gohttp.Response) {
		ctrl, err := container.Make[C](app)
		if err != nil {
			log := fwproviders.Logger(app, "http")
			log.Error().Err(err).
				Str("controller", container.Key[C]()).
				Str("method", req.Method()).
				Str("path", req.Path()).
				Msg("controller unavailable")
			res.ServerError()
			return
		}
		method(ctrl, req, res)
	})
}
