// Package admin describes the administrative interface of the models declaratively:
// which columns are listed, how lists are filtered, searched & ordered, and which fields are read-only.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/user"
)

const (
	DefaultListPerPage = 100

	searchParam   = "search"
	orderingParam = "ordering"
	limitParam    = "limit"
	offsetParam   = "offset"
	yearParam     = "year"
	monthParam    = "month"
	dayParam      = "day"
)

type (
	Fieldset struct {
		Name   string   `json:"name"`
		Fields []string `json:"fields"`
	}

	// ListRequest holds the cleaned list parameters of an admin list request.
	ListRequest struct {
		Search    string
		Filters   Params // only the model's ListFilter params
		Ordering  []core.DBOrdering
		Page      core.Page
		Hierarchy core.DateHierarchy
	}

	// Backend performs the operations of a ModelAdmin through the domain services.
	Backend struct {
		List   func(ctx context.Context, req ListRequest) ([]interface{}, int, error)
		Get    func(ctx context.Context, id int) (interface{}, error)
		Create func(ctx context.Context, data json.RawMessage, by user.User) (interface{}, error)
		// Update applies data over obj: fields missing from data keep their current value.
		Update func(ctx context.Context, obj interface{}, data json.RawMessage, by user.User) (interface{}, error)
		Delete func(ctx context.Context, id int) error
	}

	ModelAdmin struct {
		Name              string            `json:"name"` // URL name
		VerboseName       string            `json:"verbose_name"`
		VerboseNamePlural string            `json:"verbose_name_plural"`
		ListDisplay       []string          `json:"list_display"`
		ListFilter        []string          `json:"list_filter"`
		SearchFields      []string          `json:"search_fields"`
		DateHierarchy     string            `json:"date_hierarchy,omitempty"`
		Ordering          []string          `json:"ordering,omitempty"` // `-` prefix for descending order
		ReadonlyFields    []string          `json:"readonly_fields"`
		Fieldsets         []Fieldset        `json:"fieldsets,omitempty"`
		ListPerPage       int               `json:"list_per_page"`
		Labels            map[string]string `json:"-"`

		// ReadonlyFieldsFunc returns the extra read-only fields of an existing object.
		ReadonlyFieldsFunc func(obj interface{}) []string `json:"-"`
		// Display returns the value of a list column for obj.
		Display func(obj interface{}, field string) interface{} `json:"-"`

		Backend Backend `json:"-"`
	}
)

// ReadonlyFieldsFor returns the read-only fields of obj; obj is nil for new objects.
func (ma *ModelAdmin) ReadonlyFieldsFor(obj interface{}) []string {
	fields := make([]string, 0, len(ma.ReadonlyFields))
	fields = append(fields, ma.ReadonlyFields...)
	if obj != nil && ma.ReadonlyFieldsFunc != nil {
		for _, f := range ma.ReadonlyFieldsFunc(obj) {
			if !contains(fields, f) {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// StripReadonly drops the read-only fields of obj from the submitted data and returns the dropped keys, sorted.
func (ma *ModelAdmin) StripReadonly(data map[string]json.RawMessage, obj interface{}) []string {
	var dropped []string
	for _, f := range ma.ReadonlyFieldsFor(obj) {
		if _, ok := data[f]; ok {
			delete(data, f)
			dropped = append(dropped, f)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Label returns the column header of field.
func (ma *ModelAdmin) Label(field string) string {
	if l, ok := ma.Labels[field]; ok {
		return l
	}
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// Row returns the ListDisplay values of obj.
func (ma *ModelAdmin) Row(obj interface{}) []interface{} {
	row := make([]interface{}, 0, len(ma.ListDisplay))
	for _, f := range ma.ListDisplay {
		var val interface{}
		if ma.Display != nil {
			val = ma.Display(obj, f)
		}
		row = append(row, val)
	}
	return row
}

// DefaultOrdering returns the configured Ordering.
func (ma *ModelAdmin) DefaultOrdering() []core.DBOrdering {
	return core.ParseOrdering(strings.Join(ma.Ordering, ","))
}

// NewListRequest cleans the query params of a list request. Unknown filter params are ignored.
func (ma *ModelAdmin) NewListRequest(query url.Values) (ListRequest, error) {
	req := ListRequest{
		Search:  core.CleanString(query.Get(searchParam)),
		Filters: make(Params),
	}

	for _, f := range ma.ListFilter {
		if vals, ok := query[f]; ok && len(vals) > 0 && vals[0] != "" {
			req.Filters[f] = vals
		}
	}

	req.Ordering = core.ParseOrdering(query.Get(orderingParam))
	if len(req.Ordering) == 0 {
		req.Ordering = ma.DefaultOrdering()
	}

	perPage := ma.ListPerPage
	if perPage <= 0 {
		perPage = DefaultListPerPage
	}
	var err error
	if req.Page.Limit, err = intParam(query, limitParam, perPage); err != nil {
		return ListRequest{}, err
	}
	if req.Page.Limit <= 0 || req.Page.Limit > perPage {
		req.Page.Limit = perPage
	}
	if req.Page.Offset, err = intParam(query, offsetParam, 0); err != nil {
		return ListRequest{}, err
	}

	if ma.DateHierarchy != "" {
		if req.Hierarchy.Year, err = intParam(query, yearParam, 0); err != nil {
			return ListRequest{}, err
		}
		if req.Hierarchy.Month, err = intParam(query, monthParam, 0); err != nil {
			return ListRequest{}, err
		}
		if req.Hierarchy.Day, err = intParam(query, dayParam, 0); err != nil {
			return ListRequest{}, err
		}
	}
	return req, nil
}

func intParam(query url.Values, name string, def int) (int, error) {
	val := query.Get(name)
	if val == "" {
		return def, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		msg := fmt.Sprintf("%s must be an integer", name)
		return 0, core.NewValidationError(err, core.FieldError{Field: name, Error: msg})
	}
	return i, nil
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}
