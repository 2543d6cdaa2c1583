package school

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
)

var errEndBeforeStart = errors.New("End date must be after start date")

// TeacherData contains the information needed to create or update a Teacher.
type TeacherData struct {
	User     string `json:"user" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

func (d *TeacherData) Validate(validate *validator.Validate) error {
	d.User = core.CleanString(d.User)
	if d.IsActive == nil {
		d.IsActive = core.BoolPtr(true)
	}
	return validate.Struct(d)
}

// CourseData contains the information needed to create or update a Course.
type CourseData struct {
	Name     string `json:"name" validate:"required,oneof=GE EE"`
	IsActive *bool  `json:"is_active"`
}

func (d *CourseData) Validate(validate *validator.Validate) error {
	d.Name = core.CleanString(d.Name)
	if d.IsActive == nil {
		d.IsActive = core.BoolPtr(true)
	}
	return validate.Struct(d)
}

// ClassData contains the information needed to create or update a Class.
type ClassData struct {
	Course    int       `json:"course" validate:"required"`
	Name      string    `json:"name" validate:"required,notblank,max=100"`
	Teachers  []int     `json:"teachers"`
	StartDate core.Date `json:"start_date"` // defaults to today
	EndDate   core.Date `json:"end_date"`
	IsActive  *bool     `json:"is_active"`
}

func (d *ClassData) Validate(validate *validator.Validate) error {
	d.Name = core.CleanString(d.Name)
	if !d.StartDate.IsSet() {
		d.StartDate = core.Today()
	}
	if d.IsActive == nil {
		d.IsActive = core.BoolPtr(true)
	}
	d.Teachers = uniqueInts(d.Teachers)

	if err := validate.Struct(d); err != nil {
		return err
	}
	if d.EndDate.IsSet() && d.EndDate.Before(d.StartDate) {
		return core.NewValidationError(
			errEndBeforeStart,
			core.FieldError{Field: "end_date", Error: errEndBeforeStart.Error()},
		)
	}
	return nil
}

// StudentData contains the information needed to create or update a Student.
type StudentData struct {
	StudentID       string    `json:"student_id" validate:"required,notblank,max=50"`
	FirstName       string    `json:"first_name" validate:"required,notblank,max=100"`
	LastName        string    `json:"last_name" validate:"required,notblank,max=100"`
	Nickname        string    `json:"nickname" validate:"max=100"`
	CurrentClass    null.Int  `json:"current_class"`
	StartDate       core.Date `json:"start_date"` // defaults to today
	Participation   string    `json:"participation"`
	TeacherComments string    `json:"teacher_comments"`
	IsActive        *bool     `json:"is_active"`
}

func (d *StudentData) Validate(validate *validator.Validate) error {
	d.StudentID = core.CleanString(d.StudentID)
	d.FirstName = core.CleanString(d.FirstName)
	d.LastName = core.CleanString(d.LastName)
	d.Nickname = core.CleanString(d.Nickname)
	d.Participation = core.CleanString(d.Participation)
	d.TeacherComments = core.CleanString(d.TeacherComments)
	if !d.StartDate.IsSet() {
		d.StartDate = core.Today()
	}
	if d.IsActive == nil {
		d.IsActive = core.BoolPtr(true)
	}
	return validate.Struct(d)
}

func uniqueInts(vals []int) []int {
	if vals == nil {
		return []int{}
	}
	seen := make(map[int]bool, len(vals))
	uniq := make([]int, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			uniq = append(uniq, v)
		}
	}
	return uniq
}
