package assessment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/school"
)

// Kinds
const (
	KindNumeric = "numeric"
	KindGraded  = "graded"
)

// Statuses
const (
	StatusCompleted    = "COM"
	StatusNotGiven     = "NA"
	StatusHoliday      = "HOL"
	StatusAbsent       = "ABS"
	StatusDidNotSubmit = "DNS"
)

// Skills
const (
	SkillGrammar    = "G"
	SkillVocabulary = "V"
	SkillListening  = "L"
	SkillReading    = "R"

	SkillWriting       = "W"
	SkillSpeaking      = "S"
	SkillPronunciation = "P"
)

const (
	MinWeek = 1
	MaxWeek = 10
)

var (
	StatusChoices = []core.Choice{
		{Value: StatusCompleted, Label: "Completed"},
		{Value: StatusNotGiven, Label: "Not Given"},
		{Value: StatusHoliday, Label: "Holiday"},
		{Value: StatusAbsent, Label: "Absent"},
		{Value: StatusDidNotSubmit, Label: "Did Not Submit"},
	}

	NumericSkillChoices = []core.Choice{
		{Value: SkillGrammar, Label: "Grammar"},
		{Value: SkillVocabulary, Label: "Vocabulary"},
		{Value: SkillListening, Label: "Listening"},
		{Value: SkillReading, Label: "Reading"},
	}

	GradedSkillChoices = []core.Choice{
		{Value: SkillWriting, Label: "Writing"},
		{Value: SkillSpeaking, Label: "Speaking"},
		{Value: SkillPronunciation, Label: "Pronunciation"},
	}

	GradeChoices = []core.Choice{
		{Value: "A", Label: "A - Excellent"},
		{Value: "B", Label: "B - Good"},
		{Value: "C", Label: "C - Developing"},
		{Value: "D", Label: "D - Needs Improvement"},
		{Value: "E", Label: "E - Unsatisfactory"},
	}
)

// KindOf returns the kind of assessment that evaluates skill, or "" for unknown skills.
func KindOf(skill string) string {
	for _, c := range NumericSkillChoices {
		if c.Value == skill {
			return KindNumeric
		}
	}
	for _, c := range GradedSkillChoices {
		if c.Value == skill {
			return KindGraded
		}
	}
	return ""
}

// SkillLabel returns the human readable name of skill.
func SkillLabel(skill string) string {
	if KindOf(skill) == KindGraded {
		return core.ChoiceLabel(GradedSkillChoices, skill)
	}
	return core.ChoiceLabel(NumericSkillChoices, skill)
}

// Record is either a *Numeric or a *Graded assessment.
type Record interface {
	fmt.Stringer

	Kind() string
	Base() *Assessment
	Data() Data
	// Clean enforces the status rules of the assessment and returns the fields it set.
	Clean() ([]string, error)
}

// Assessment holds the fields shared by all kinds of assessments.
type Assessment struct {
	ID             int         `json:"id" db:"id"`
	StudentID      int         `json:"student" db:"student_id"`
	Skill          string      `json:"skill" db:"skill"`
	Week           int         `json:"week" db:"week"`
	Status         string      `json:"status" db:"status"`
	SubmissionDate time.Time   `json:"submission_date" db:"submission_date"` // set once, at creation
	SubmittedByID  null.String `json:"submitted_by" db:"submitted_by_id"`
	Comments       string      `json:"comments" db:"comments"`

	Student *school.Student `json:"-" db:"-"` // loaded by repositories
}

func (a Assessment) String() string {
	student := fmt.Sprintf("Student #%d", a.StudentID)
	if a.Student != nil {
		student = a.Student.String()
	}
	return fmt.Sprintf("%s - %s Week %d", student, SkillLabel(a.Skill), a.Week)
}

func (a Assessment) StatusDisplay() string {
	return core.ChoiceLabel(StatusChoices, a.Status)
}

func (a Assessment) IsCompleted() bool { return a.Status == StatusCompleted }

func (a Assessment) data(kind string) Data {
	return Data{
		Kind:     kind,
		Student:  a.StudentID,
		Skill:    a.Skill,
		Week:     a.Week,
		Status:   a.Status,
		Comments: a.Comments,
	}
}

// Numeric is an assessment scored from 0 to 100, derived from the answers to its questions.
type Numeric struct {
	Assessment
	Score          null.Float64 `json:"score" db:"score"` // 2 decimal places
	TotalQuestions int          `json:"total_questions" db:"total_questions"`
	CorrectAnswers int          `json:"correct_answers" db:"correct_answers"`
}

var _ Record = (*Numeric)(nil)

func (Numeric) Kind() string { return KindNumeric }

func (n *Numeric) Base() *Assessment { return &n.Assessment }

func (n Numeric) Data() Data {
	d := n.Assessment.data(KindNumeric)
	d.Score = n.Score
	d.TotalQuestions = n.TotalQuestions
	d.CorrectAnswers = n.CorrectAnswers
	return d
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	type numeric Numeric
	return json.Marshal(struct {
		Kind string `json:"kind"`
		numeric
	}{KindNumeric, numeric(n)})
}

// Graded is an assessment scored with a letter grade.
type Graded struct {
	Assessment
	Grade null.String `json:"grade" db:"grade"`
}

var _ Record = (*Graded)(nil)

func (Graded) Kind() string { return KindGraded }

func (g *Graded) Base() *Assessment { return &g.Assessment }

func (g Graded) Data() Data {
	d := g.Assessment.data(KindGraded)
	d.Grade = g.Grade
	return d
}

func (g Graded) GradeDisplay() string {
	if !g.Grade.Valid {
		return ""
	}
	return core.ChoiceLabel(GradeChoices, g.Grade.String)
}

func (g Graded) MarshalJSON() ([]byte, error) {
	type graded Graded
	return json.Marshal(struct {
		Kind string `json:"kind"`
		graded
	}{KindGraded, graded(g)})
}
