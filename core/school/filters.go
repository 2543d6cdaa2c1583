package school

import (
	"github.com/trezcool/rors/core"
)

// Orderable fields & default orderings
var (
	TeacherOrderingFields = []string{"id", "is_active", "first_name", "last_name", "email"}
	CourseOrderingFields  = []string{"id", "name", "is_active"}
	ClassOrderingFields   = []string{"id", "name", "course", "start_date", "end_date", "is_active"}
	StudentOrderingFields = []string{"id", "student_id", "first_name", "last_name", "nickname", "current_class", "start_date", "is_active"}

	DefaultTeacherOrdering = []core.DBOrdering{{Field: "id", Ascending: true}}
	DefaultCourseOrdering  = []core.DBOrdering{{Field: "id", Ascending: true}}
	DefaultClassOrdering   = []core.DBOrdering{{Field: "start_date", Ascending: true}, {Field: "name", Ascending: true}}
	DefaultStudentOrdering = []core.DBOrdering{{Field: "student_id", Ascending: true}}
)

// TeacherFilter applies AND operation on its set fields.
// Search does a case-insensitive match on the first name, last name or email of the Teacher's User.
type TeacherFilter struct {
	core.Page
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
	IDs      []int  `query:"id"`
}

func (f *TeacherFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

// CourseFilter applies AND operation on its set fields. Search matches the course name code or label.
type CourseFilter struct {
	core.Page
	Search   string `query:"search"`
	Name     string `query:"name"`
	IsActive *bool  `query:"is_active"`
}

func (f *CourseFilter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Name = core.CleanString(f.Name)
}

// SearchNames returns the course codes whose code or label match Search.
func (f *CourseFilter) SearchNames() []string {
	var names []string
	for _, c := range CourseChoices {
		if core.ContainsFold(f.Search, c.Value, c.Label) {
			names = append(names, c.Value)
		}
	}
	return names
}

// ClassFilter applies AND operation on its set fields. Search matches the class name.
// The date hierarchy & the start date range apply to the start date.
type ClassFilter struct {
	core.Page
	core.DateHierarchy
	Search        string    `query:"search"`
	Course        int       `query:"course"`
	Teacher       int       `query:"teacher"`
	IsActive      *bool     `query:"is_active"`
	StartDateFrom core.Date `query:"start_date_from"`
	StartDateTo   core.Date `query:"start_date_to"`
}

func (f *ClassFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

// StudentFilter applies AND operation on its set fields.
// Search matches the student ID, first name, last name or nickname.
// The date hierarchy & the start date range apply to the start date.
type StudentFilter struct {
	core.Page
	core.DateHierarchy
	Search        string    `query:"search"`
	CurrentClass  int       `query:"current_class"`
	Course        int       `query:"course"`
	IsActive      *bool     `query:"is_active"`
	StartDateFrom core.Date `query:"start_date_from"`
	StartDateTo   core.Date `query:"start_date_to"`
}

func (f *StudentFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}
