package assessment

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
)

var (
	OrderingFields  = []string{"id", "student", "skill", "week", "status", "score", "grade", "submission_date"}
	DefaultOrdering = []core.DBOrdering{
		{Field: "student", Ascending: true},
		{Field: "week", Ascending: true},
		{Field: "skill", Ascending: true},
	}
)

// Submission periods
const (
	PeriodToday     = "today"
	PeriodPast7Days = "past_7_days"
	PeriodThisMonth = "this_month"
	PeriodThisYear  = "this_year"
)

// Filter applies AND operation on its set fields.
// Search does a case-insensitive match on the student ID, first name or last name of the Student, or the comments.
// The date hierarchy & the submission range apply to the submission date.
type Filter struct {
	core.Page
	core.DateHierarchy
	Kind          string    `query:"kind"`
	Search        string    `query:"search"`
	Student       int       `query:"student"`
	Skill         string    `query:"skill"`
	Status        string    `query:"status"`
	Grade         string    `query:"grade"`
	Week          int       `query:"week"`
	SubmittedFrom core.Date `query:"submitted_from"`
	SubmittedTo   core.Date `query:"submitted_to"` // inclusive
}

func (f *Filter) Clean() {
	f.Kind = core.CleanString(f.Kind, true)
	f.Search = core.CleanString(f.Search)
	f.Skill = core.CleanString(f.Skill)
	f.Status = core.CleanString(f.Status)
	f.Grade = core.CleanString(f.Grade)
}

// SubmittedRange returns the [from, to) interval of the submission range, zero times are unbounded.
func (f *Filter) SubmittedRange() (from, to time.Time) {
	if f.SubmittedFrom.IsSet() {
		from = f.SubmittedFrom.Time
	}
	if f.SubmittedTo.IsSet() {
		to = f.SubmittedTo.AddDate(0, 0, 1)
	}
	return from, to
}

// SetPeriod sets the submission range to one of the submission periods, relative to today.
func (f *Filter) SetPeriod(period string, today core.Date) error {
	switch period {
	case PeriodToday:
		f.SubmittedFrom = today
	case PeriodPast7Days:
		f.SubmittedFrom = core.DateOf(today.AddDate(0, 0, -7))
	case PeriodThisMonth:
		f.SubmittedFrom = core.NewDate(today.Year(), today.Month(), 1)
	case PeriodThisYear:
		f.SubmittedFrom = core.NewDate(today.Year(), time.January, 1)
	default:
		return errors.Errorf("invalid submission period %q", period)
	}
	f.SubmittedTo = today
	return nil
}
