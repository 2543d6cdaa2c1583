package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core/assessment"
)

type assessmentApi struct {
	auth authenticator
	svc  assessment.Service
}

// registerAssessmentAPI registers the tests endpoints: numeric & graded assessments share one ID space.
func registerAssessmentAPI(g *echo.Group, auth authenticator, svc assessment.Service) {
	api := assessmentApi{auth: auth, svc: svc}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.PATCH("/:id", api.partialUpdate)
	g.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *assessmentApi) query(ctx echo.Context) error {
	filter := new(assessment.Filter)
	if err := bindQuery(ctx, filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	recs, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if recs == nil {
		recs = []assessment.Record{}
	}
	return ctx.JSON(http.StatusOK, newListResponse(recs, total, filter.Page))
}

func (api *assessmentApi) create(ctx echo.Context) error {
	var data assessment.Data
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to assessment.Data")
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.Create(ctx.Request().Context(), data, usr)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding assessment")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *assessmentApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data assessment.Data
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to assessment.Data")
	}
	return api.save(ctx, id, data)
}

func (api *assessmentApi) partialUpdate(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding assessment")
	}
	data := rec.Data()
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to assessment.Data")
	}
	return api.save(ctx, id, data)
}

func (api *assessmentApi) save(ctx echo.Context, id int, data assessment.Data) error {
	rec, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating assessment")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
