package controllers

import (
	"errors"
	"time"

	gohttp "github.com/km-arc/go-housekeeper/framework/http"
	"github.com/km-arc/go-housekeeper/framework/scheduler"
)

type JobsController struct {
	scheduler *scheduler.Scheduler
}

func NewJobsController(s *scheduler.Scheduler) *JobsController {
	return &JobsController{scheduler: s}
}

type runView struct {
	ID       string    `json:"id"`
	Job      string    `json:"job"`
	Started  time.Time `json:"started_at"`
	Finished time.Time `json:"finished_at"`
	Error    string    `json:"error,omitempty"`
}

type jobView struct {
	Name    string   `json:"name"`
	LastRun *runView `json:"last_run"`
}

func viewOf(r scheduler.Run) *runView {
	v := &runView{ID: r.ID.String(), Job: r.Job, Started: r.Started, Finished: r.Finished}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

// Index lists scheduled jobs with their last run.
//
//	GET /api/v1/jobs
func (c *JobsController) Index(req *gohttp.Request, res *gohttp.Response) {
	jobs := c.scheduler.Jobs()
	out := make([]jobView, 0, len(jobs))
	for _, name := range jobs {
		j := jobView{Name: name}
		if r, ok := c.scheduler.LastRun(name); ok {
			j.LastRun = viewOf(r)
		}
		out = append(out, j)
	}
	res.Success(out)
}

// Run executes a job now. A failing task still reports its run.
//
//	POST /api/v1/jobs/{job}
func (c *JobsController) Run(req *gohttp.Request, res *gohttp.Response) {
	run, err := c.scheduler.RunNow(req.Context(), req.RouteParam("job"))
	if errors.Is(err, scheduler.ErrUnknownJob) {
		res.NotFound("Unknown job.")
		return
	}
	res.Success(viewOf(run))
}
