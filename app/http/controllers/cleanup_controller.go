// Package controllers holds the JSON API handlers.
package controllers

import (
	"errors"

	"github.com/km-arc/go-housekeeper/app/cleanup"
	gohttp "github.com/km-arc/go-housekeeper/framework/http"
)

// CleanupController exposes the cleaner over HTTP.
type CleanupController struct {
	cleaner *cleanup.Cleaner
}

func NewCleanupController(cleaner *cleanup.Cleaner) *CleanupController {
	return &CleanupController{cleaner: cleaner}
}

// Index reports what each analyzer would remove.
//
//	GET /api/v1/cleanup
func (c *CleanupController) Index(req *gohttp.Request, res *gohttp.Response) {
	report, err := c.cleaner.Report(req.Context())
	if err != nil {
		res.Fail(err)
		return
	}
	res.Success(report)
}

// RunAll cleans with every analyzer. With ?dry_run=true it only reports.
//
//	POST /api/v1/cleanup
func (c *CleanupController) RunAll(req *gohttp.Request, res *gohttp.Response) {
	run := c.cleaner.RunAll
	if req.QueryBool("dry_run", false) {
		run = c.cleaner.Report
	}
	results, err := run(req.Context())
	if err != nil {
		res.Fail(err)
		return
	}
	res.Success(results)
}

// Run cleans with one analyzer.
//
//	POST /api/v1/cleanup/{analyzer}
func (c *CleanupController) Run(req *gohttp.Request, res *gohttp.Response) {
	result, err := c.cleaner.Run(req.Context(), req.RouteParam("analyzer"))
	switch {
	case errors.Is(err, cleanup.ErrUnknownAnalyzer):
		res.NotFound("Unknown analyzer.")
	case err != nil:
		res.Fail(err)
	default:
		res.Success(result)
	}
}
