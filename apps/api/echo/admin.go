package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/admin"
)

type adminApi struct {
	auth   authenticator
	site   *admin.Site
	logger core.Logger
}

// AdminListResponse is a page of an admin list, with the list display columns of each object.
type AdminListResponse struct {
	ListResponse
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

func registerAdminAPI(g *echo.Group, auth authenticator, site *admin.Site, logger core.Logger) {
	api := adminApi{auth: auth, site: site, logger: logger}

	g.GET("", api.index)

	mg := g.Group("/:model", api.modelMiddleware)
	mg.GET("", api.list)
	mg.POST("", api.create)
	mg.GET("/export", api.export)
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update)
	mg.PATCH("/:id", api.update)
	mg.DELETE("/:id", api.destroy)
}

func (api *adminApi) index(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.site.Models())
}

func (api *adminApi) modelMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ma, ok := api.site.Get(ctx.Param("model"))
		if !ok {
			return errHttpNotFound
		}
		ctx.Set("model", ma)
		return next(ctx)
	}
}

func contextModel(ctx echo.Context) (*admin.ModelAdmin, error) {
	ma, ok := ctx.Get("model").(*admin.ModelAdmin)
	if !ok {
		return nil, errors.New("model admin not found in echo.Context")
	}
	return ma, nil
}

func (api *adminApi) query(ctx echo.Context) (*admin.ModelAdmin, admin.ListRequest, []interface{}, int, error) {
	ma, err := contextModel(ctx)
	if err != nil {
		return nil, admin.ListRequest{}, nil, 0, err
	}
	req, err := ma.NewListRequest(ctx.QueryParams())
	if err != nil {
		return nil, admin.ListRequest{}, nil, 0, err
	}
	objs, total, err := ma.Backend.List(ctx.Request().Context(), req)
	if err != nil {
		return nil, admin.ListRequest{}, nil, 0, errors.Wrapf(err, "listing %s", ma.Name)
	}
	return ma, req, objs, total, nil
}

func (api *adminApi) list(ctx echo.Context) error {
	ma, req, objs, total, err := api.query(ctx)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(objs))
	for _, obj := range objs {
		rows = append(rows, ma.Row(obj))
	}
	if objs == nil {
		objs = []interface{}{}
	}
	return ctx.JSON(http.StatusOK, AdminListResponse{
		ListResponse: newListResponse(objs, total, req.Page),
		Columns:      ma.ListDisplay,
		Rows:         rows,
	})
}

// export writes the whole filtered list, not only the requested page.
func (api *adminApi) export(ctx echo.Context) error {
	ma, err := contextModel(ctx)
	if err != nil {
		return err
	}
	req, err := ma.NewListRequest(ctx.QueryParams())
	if err != nil {
		return err
	}
	req.Page = core.Page{}
	objs, _, err := ma.Backend.List(ctx.Request().Context(), req)
	if err != nil {
		return errors.Wrapf(err, "listing %s", ma.Name)
	}

	var buf bytes.Buffer
	if err = ma.Export(&buf, objs); err != nil {
		return errors.Wrapf(err, "exporting %s", ma.Name)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", ma.Name+".xlsx"))
	return ctx.Blob(http.StatusOK, admin.XLSXContentType, buf.Bytes())
}

func (api *adminApi) object(ctx echo.Context, ma *admin.ModelAdmin) (interface{}, error) {
	id, err := idParam(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := ma.Backend.Get(ctx.Request().Context(), id)
	return obj, errors.Wrapf(err, "finding %s", ma.VerboseName)
}

func (api *adminApi) retrieve(ctx echo.Context) error {
	ma, err := contextModel(ctx)
	if err != nil {
		return err
	}
	obj, err := api.object(ctx, ma)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, obj)
}

// data reads the body without the read-only fields of obj.
func (api *adminApi) data(ctx echo.Context, ma *admin.ModelAdmin, obj interface{}) (json.RawMessage, error) {
	fields, err := bindRaw(ctx)
	if err != nil {
		return nil, err
	}
	if dropped := ma.StripReadonly(fields, obj); len(dropped) > 0 {
		api.logger.Debug(fmt.Sprintf("%s: read-only fields ignored", ma.Name), dropped)
	}
	data, err := json.Marshal(fields)
	return data, errors.Wrap(err, "encoding data")
}

func (api *adminApi) create(ctx echo.Context) error {
	ma, err := contextModel(ctx)
	if err != nil {
		return err
	}
	data, err := api.data(ctx, ma, nil)
	if err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	obj, err := ma.Backend.Create(ctx.Request().Context(), data, usr)
	if err != nil {
		return errors.Wrapf(err, "creating %s", ma.VerboseName)
	}
	return ctx.JSON(http.StatusCreated, obj)
}

func (api *adminApi) update(ctx echo.Context) error {
	ma, err := contextModel(ctx)
	if err != nil {
		return err
	}
	obj, err := api.object(ctx, ma)
	if err != nil {
		return err
	}
	data, err := api.data(ctx, ma, obj)
	if err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	obj, err = ma.Backend.Update(ctx.Request().Context(), obj, data, usr)
	if err != nil {
		return errors.Wrapf(err, "updating %s", ma.VerboseName)
	}
	return ctx.JSON(http.StatusOK, obj)
}

func (api *adminApi) destroy(ctx echo.Context) error {
	ma, err := contextModel(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = ma.Backend.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrapf(err, "deleting %s", ma.VerboseName)
	}
	return ctx.NoContent(http.StatusNoContent)
}
