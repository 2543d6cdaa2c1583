package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core/school"
)

type classApi struct {
	svc school.Service
}

func registerClassAPI(g *echo.Group, svc school.Service) {
	api := classApi{svc: svc}

	g.Use(adminWritesMiddleware)
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.PATCH("/:id", api.partialUpdate)
	g.DELETE("/:id", api.destroy)
}

func (api *classApi) query(ctx echo.Context) error {
	filter := new(school.ClassFilter)
	if err := bindQuery(ctx, filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, total, err := api.svc.QueryClasses(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, newListResponse(classes, total, filter.Page))
}

func (api *classApi) create(ctx echo.Context) error {
	var data school.ClassData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassData")
	}
	class, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	class, err := api.svc.GetClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *classApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data school.ClassData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassData")
	}
	return api.save(ctx, id, data)
}

// partialUpdate keeps the current values of the fields missing from the body.
func (api *classApi) partialUpdate(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	class, err := api.svc.GetClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding class")
	}
	data := class.Data()
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassData")
	}
	return api.save(ctx, id, data)
}

func (api *classApi) save(ctx echo.Context, id int, data school.ClassData) error {
	class, err := api.svc.UpdateClass(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *classApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteClass(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type studentApi struct {
	svc school.Service
}

func registerStudentAPI(g *echo.Group, svc school.Service) {
	api := studentApi{svc: svc}

	g.Use(adminWritesMiddleware)
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.PATCH("/:id", api.partialUpdate)
	g.DELETE("/:id", api.destroy)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(school.StudentFilter)
	if err := bindQuery(ctx, filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, total, err := api.svc.QueryStudents(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, newListResponse(students, total, filter.Page))
}

func (api *studentApi) create(ctx echo.Context) error {
	var data school.StudentData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentData")
	}
	student, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, student)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	student, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data school.StudentData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentData")
	}
	return api.save(ctx, id, data)
}

func (api *studentApi) partialUpdate(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	student, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	data := student.Data()
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentData")
	}
	return api.save(ctx, id, data)
}

func (api *studentApi) save(ctx echo.Context, id int, data school.StudentData) error {
	student, err := api.svc.UpdateStudent(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
