package controllers

import (
	"errors"
	"net/http"

	"github.com/km-arc/go-housekeeper/app/settings"
	gohttp "github.com/km-arc/go-housekeeper/framework/http"
)

type SettingsController struct {
	store *settings.Store
}

func NewSettingsController(store *settings.Store) *SettingsController {
	return &SettingsController{store: store}
}

type updateSettingInput struct {
	Value string `json:"value" validate:"required,max=255"`
}

const maxPerPage = 100

// Index lists settings a page at a time.
//
//	GET /api/v1/settings?page=2&per_page=20
func (c *SettingsController) Index(req *gohttp.Request, res *gohttp.Response) {
	page := max(req.QueryInt("page", 1), 1)
	perPage := min(max(req.QueryInt("per_page", 50), 1), maxPerPage)

	rows, total, err := c.store.Page(req.Context(), (page-1)*perPage, perPage)
	if err != nil {
		res.Fail(err)
		return
	}
	res.JSON(http.StatusOK, map[string]any{
		"data": rows,
		"meta": map[string]any{"page": page, "per_page": perPage, "total": total},
	})
}

//	GET /api/v1/settings/{key}
func (c *SettingsController) Show(req *gohttp.Request, res *gohttp.Response) {
	row, err := c.store.Get(req.Context(), req.RouteParam("key"))
	switch {
	case errors.Is(err, settings.ErrNotFound):
		res.NotFound("Setting not found.")
	case err != nil:
		res.Fail(err)
	default:
		res.Success(row)
	}
}

// Update upserts a setting from {"value": "..."}. A new key answers 201.
//
//	PUT /api/v1/settings/{key}
//	PATCH /api/v1/settings/{key}
func (c *SettingsController) Update(req *gohttp.Request, res *gohttp.Response) {
	var in updateSettingInput
	if err := req.BindAndValidate(&in); err != nil {
		res.Fail(err)
		return
	}
	key := req.RouteParam("key")
	_, err := c.store.Get(req.Context(), key)
	created := errors.Is(err, settings.ErrNotFound)
	if err != nil && !created {
		res.Fail(err)
		return
	}

	row, err := c.store.Set(req.Context(), key, in.Value)
	switch {
	case err != nil:
		res.Fail(err)
	case created:
		res.Created(row)
	default:
		res.Success(row)
	}
}

//	DELETE /api/v1/settings/{key}
func (c *SettingsController) Destroy(req *gohttp.Request, res *gohttp.Response) {
	err := c.store.Delete(req.Context(), req.RouteParam("key"))
	switch {
	case errors.Is(err, settings.ErrNotFound):
		res.NotFound("Setting not found.")
	case err != nil:
		res.Fail(err)
	default:
		res.NoContent()
	}
}
