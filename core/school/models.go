package school

import (
	"fmt"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
)

// Course names
const (
	CourseGeneralEnglish = "GE"
	CourseExtremeEnglish = "EE"
)

var CourseChoices = []core.Choice{
	{Value: CourseGeneralEnglish, Label: "General English"},
	{Value: CourseExtremeEnglish, Label: "Extreme English"},
}

type Teacher struct {
	ID       int    `json:"id" db:"id"`
	UserID   string `json:"user" db:"user_id"`
	IsActive bool   `json:"is_active" db:"is_active"`

	// from the User, read-only
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"`
}

func (t Teacher) String() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

func (t Teacher) Data() TeacherData {
	return TeacherData{User: t.UserID, IsActive: core.BoolPtr(t.IsActive)}
}

type Course struct {
	ID       int    `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

// DisplayName returns the human readable name of the course.
func (c Course) DisplayName() string {
	return core.ChoiceLabel(CourseChoices, c.Name)
}

func (c Course) String() string { return c.DisplayName() }

func (c Course) Data() CourseData {
	return CourseData{Name: c.Name, IsActive: core.BoolPtr(c.IsActive)}
}

type Class struct {
	ID         int       `json:"id" db:"id"`
	CourseID   int       `json:"course" db:"course_id"`
	Name       string    `json:"name" db:"name"`
	TeacherIDs []int     `json:"teachers" db:"-"`
	StartDate  core.Date `json:"start_date" db:"start_date"`
	EndDate    core.Date `json:"end_date" db:"end_date"` // optional
	IsActive   bool      `json:"is_active" db:"is_active"`

	Course Course `json:"-" db:"-"` // loaded by repositories
}

func (c Class) String() string {
	return fmt.Sprintf("%s - %s", c.Course, c.Name)
}

func (c Class) Data() ClassData {
	teachers := make([]int, len(c.TeacherIDs))
	copy(teachers, c.TeacherIDs)
	return ClassData{
		Course:    c.CourseID,
		Name:      c.Name,
		Teachers:  teachers,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		IsActive:  core.BoolPtr(c.IsActive),
	}
}

type Student struct {
	ID              int       `json:"id" db:"id"`
	StudentID       string    `json:"student_id" db:"student_id"`
	FirstName       string    `json:"first_name" db:"first_name"`
	LastName        string    `json:"last_name" db:"last_name"`
	Nickname        string    `json:"nickname" db:"nickname"`
	CurrentClassID  null.Int  `json:"current_class" db:"current_class_id"`
	StartDate       core.Date `json:"start_date" db:"start_date"`
	Participation   string    `json:"participation" db:"participation"`
	TeacherComments string    `json:"teacher_comments" db:"teacher_comments"`
	IsActive        bool      `json:"is_active" db:"is_active"`

	CurrentClass *Class `json:"-" db:"-"` // loaded by repositories
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s Student) String() string {
	return fmt.Sprintf("%s - %s", s.StudentID, s.FullName())
}

func (s Student) Data() StudentData {
	return StudentData{
		StudentID:       s.StudentID,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		Nickname:        s.Nickname,
		CurrentClass:    s.CurrentClassID,
		StartDate:       s.StartDate,
		Participation:   s.Participation,
		TeacherComments: s.TeacherComments,
		IsActive:        core.BoolPtr(s.IsActive),
	}
}
