package assessment

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
)

// Data contains the information needed to create or update an assessment.
// The kind of assessment is Kind when set, else the kind of the Skill.
type Data struct {
	Kind     string `json:"kind" validate:"omitempty,oneof=numeric graded"`
	Student  int    `json:"student" validate:"required"`
	Skill    string `json:"skill" validate:"required,oneof=G V L R W S P"`
	Week     int    `json:"week" validate:"min=1,max=10"`
	Status   string `json:"status" validate:"oneof=COM NA HOL ABS DNS"` // defaults to COM
	Comments string `json:"comments"`

	// numeric
	Score          null.Float64 `json:"score" validate:"omitempty,min=0,max=100"`
	TotalQuestions int          `json:"total_questions"`
	CorrectAnswers int          `json:"correct_answers" validate:"min=0"`

	// graded
	Grade null.String `json:"grade" validate:"omitempty,oneof=A B C D E"`
}

// Validate cleans the data and checks the field rules, it returns the resolved kind.
func (d *Data) Validate(validate *validator.Validate) (string, error) {
	d.Kind = core.CleanString(d.Kind, true)
	d.Skill = core.CleanString(d.Skill)
	d.Status = core.CleanString(d.Status)
	if d.Status == "" {
		d.Status = StatusCompleted
	}
	d.Comments = core.CleanString(d.Comments)
	if d.Grade.Valid {
		d.Grade.String = core.CleanString(d.Grade.String)
		if d.Grade.String == "" {
			d.Grade = null.String{}
		}
	}
	if d.Score.Valid {
		d.Score.Float64 = core.Round2(d.Score.Float64)
	}

	if err := validate.Struct(d); err != nil {
		return "", err
	}

	kind := KindOf(d.Skill)
	if d.Kind != "" && d.Kind != kind {
		msg := fmt.Sprintf("%s is not a %s skill", d.Skill, d.Kind)
		return "", core.NewValidationError(errors.New(msg), core.FieldError{Field: "skill", Error: msg})
	}
	d.Kind = kind

	if kind == KindNumeric && d.TotalQuestions < 1 {
		msg := "total_questions must be 1 or greater"
		return "", core.NewValidationError(errors.New(msg), core.FieldError{Field: "total_questions", Error: msg})
	}
	return kind, nil
}

// record returns the assessment described by the data; the data must be valid.
func (d Data) record(base Assessment) Record {
	base.StudentID = d.Student
	base.Skill = d.Skill
	base.Week = d.Week
	base.Status = d.Status
	base.Comments = d.Comments

	if d.Kind == KindGraded {
		return &Graded{Assessment: base, Grade: d.Grade}
	}
	return &Numeric{
		Assessment:     base,
		Score:          d.Score,
		TotalQuestions: d.TotalQuestions,
		CorrectAnswers: d.CorrectAnswers,
	}
}
