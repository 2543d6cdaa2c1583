package echoapi

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam))
}

// ListResponse is a page of a list.
type ListResponse struct {
	Data   interface{} `json:"data"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func newListResponse(data interface{}, total int, page core.Page) ListResponse {
	return ListResponse{Data: data, Total: total, Limit: page.Limit, Offset: page.Offset}
}

// idParam returns the integer ID of the path; unknown IDs are not found.
func idParam(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// bindQuery binds the query params into a filter. Malformed params are validation errors.
func bindQuery(ctx echo.Context, filter interface{}) error {
	if err := ctx.Bind(filter); err != nil {
		return core.NewValidationError(errors.New("invalid query params"))
	}
	return nil
}

// bindRaw decodes a JSON object body field by field.
func bindRaw(ctx echo.Context) (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage)
	if err := json.NewDecoder(ctx.Request().Body).Decode(&data); err != nil {
		return nil, core.NewValidationError(errors.New("invalid body: a JSON object is expected"))
	}
	return data, nil
}
