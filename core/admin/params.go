package admin

import (
	"fmt"
	"strconv"

	"github.com/trezcool/rors/core"
)

// Params holds the list filter params of a request.
type Params map[string][]string

func (p Params) Get(name string) string {
	if vals := p[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func (p Params) String(name string) string {
	return core.CleanString(p.Get(name))
}

func (p Params) Int(name string) (int, error) {
	val := p.Get(name)
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, invalidParam(name, err)
	}
	return i, nil
}

func (p Params) Bool(name string) (*bool, error) {
	val := p.Get(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, invalidParam(name, err)
	}
	return &b, nil
}

func (p Params) Date(name string) (core.Date, error) {
	d, err := core.ParseDate(p.Get(name))
	if err != nil {
		return core.Date{}, invalidParam(name, err)
	}
	return d, nil
}

func invalidParam(name string, err error) error {
	return core.NewValidationError(err, core.FieldError{Field: name, Error: fmt.Sprintf("invalid value for %s", name)})
}
