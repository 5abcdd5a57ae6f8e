package providers

import (
	"context"

	"github.com/km-arc/go-housekeeper/app/cleanup"
	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/container"
	"github.com/km-arc/go-housekeeper/framework/scheduler"
)

// CleanupJob is the scheduler name of the periodic cleanup.
const CleanupJob = "cleanup"

// ScheduleServiceProvider registers the recurring jobs. The cleaner is
// resolved inside the task, so the cleanup provider stays deferred until
// the first run.
type ScheduleServiceProvider struct {
	container.BaseProvider
}

func (p *ScheduleServiceProvider) Name() string { return "ScheduleServiceProvider" }

func (p *ScheduleServiceProvider) Register(*container.Container) error { return nil }

func (p *ScheduleServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	if !cfg.Cleanup.Enabled {
		return nil
	}
	sched, err := container.Resolve[*scheduler.Scheduler](app, "scheduler")
	if err != nil {
		return err
	}
	return sched.Every(CleanupJob, cfg.Cleanup.Interval, func(ctx context.Context) error {
		cleaner, err := container.Resolve[*cleanup.Cleaner](app, "cleanup")
		if err != nil {
			return err
		}
		_, err = cleaner.RunAll(ctx)
		return err
	})
}
