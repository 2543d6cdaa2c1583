package testutil

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/assessment"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
	"github.com/trezcool/rors/storage/database"
)

// Logger discards the logs.
type Logger struct {
	std *log.Logger
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{std: log.New(io.Discard, "TEST : ", log.LstdFlags)}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.std.Println(append([]interface{}{msg}, args...)...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.std.Println(append([]interface{}{msg}, args...)...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.std.Println(append([]interface{}{msg}, args...)...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.std.Println(append([]interface{}{msg}, args...)...) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.std.Println(append([]interface{}{msg}, args...)...) }

// NewValidator returns a validator with all the custom validations & translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// NewConfig returns the configuration of the test environment.
func NewConfig() *core.Config {
	_ = os.Setenv("ENV", "TEST")
	return core.NewConfig()
}

// OpenDB opens & migrates the test database. The test is skipped when TEST_DATABASE_HOST is not set.
func OpenDB(t *testing.T) *sqlx.DB {
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST is not set")
	}

	conf := NewConfig()
	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("database.CreateIfNotExist(): %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	if err = database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	t.Cleanup(func() {
		if _, err := db.Exec(`TRUNCATE "user", course, student RESTART IDENTITY CASCADE`); err != nil {
			t.Errorf("truncating tables: %v", err)
		}
		_ = db.Close()
	})
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, uname, email, pwd string,
	role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FirstName: firstName,
		LastName:  "Test",
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTeacher(t *testing.T, repo school.Repository, usr user.User) school.Teacher {
	teacher, err := repo.CreateTeacher(context.Background(), school.Teacher{UserID: usr.ID, IsActive: true})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return teacher
}

func CreateCourse(t *testing.T, repo school.Repository, name string) school.Course {
	course, err := repo.CreateCourse(context.Background(), school.Course{Name: name, IsActive: true})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return course
}

func CreateClass(t *testing.T, repo school.Repository, course school.Course, name string, start core.Date, teachers ...int) school.Class {
	class, err := repo.CreateClass(context.Background(), school.Class{
		CourseID:   course.ID,
		Name:       name,
		TeacherIDs: teachers,
		StartDate:  start,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

func CreateStudent(t *testing.T, repo school.Repository, studentID, firstName, lastName string, class *school.Class) school.Student {
	s := school.Student{
		StudentID: studentID,
		FirstName: firstName,
		LastName:  lastName,
		StartDate: core.NewDate(2024, time.January, 8),
		IsActive:  true,
	}
	if class != nil {
		s.CurrentClassID = null.IntFrom(class.ID)
	}
	student, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return student
}

func CreateNumeric(t *testing.T, repo assessment.Repository, student school.Student, skill string, week, correct, total int) *assessment.Numeric {
	n := &assessment.Numeric{
		Assessment: assessment.Assessment{
			StudentID:      student.ID,
			Skill:          skill,
			Week:           week,
			Status:         assessment.StatusCompleted,
			SubmissionDate: time.Now().UTC().Truncate(time.Microsecond),
		},
		TotalQuestions: total,
		CorrectAnswers: correct,
	}
	if _, err := n.Clean(); err != nil {
		t.Fatalf("CreateNumeric() failed: %v", err)
	}
	rec, err := repo.Create(context.Background(), n)
	if err != nil {
		t.Fatalf("CreateNumeric() failed: %v", err)
	}
	return rec.(*assessment.Numeric)
}

func CreateGraded(t *testing.T, repo assessment.Repository, student school.Student, skill string, week int, grade string) *assessment.Graded {
	g := &assessment.Graded{
		Assessment: assessment.Assessment{
			StudentID:      student.ID,
			Skill:          skill,
			Week:           week,
			Status:         assessment.StatusCompleted,
			SubmissionDate: time.Now().UTC().Truncate(time.Microsecond),
		},
		Grade: null.StringFrom(grade),
	}
	rec, err := repo.Create(context.Background(), g)
	if err != nil {
		t.Fatalf("CreateGraded() failed: %v", err)
	}
	return rec.(*assessment.Graded)
}
