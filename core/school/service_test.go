package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
	inmemdb "github.com/trezcool/rors/storage/database/inmem"
	testutil "github.com/trezcool/rors/tests"
)

func setUp(t *testing.T) (school.Service, school.Repository, user.Repository) {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	repo := inmemdb.NewSchoolRepository(db)
	validate, _ := testutil.NewValidator()
	usrSvc := user.NewService(nil, usrRepo, nil, testutil.NewConfig())
	return school.NewService(nil, repo, usrSvc, validate), repo, usrRepo
}

func TestService_Teachers(t *testing.T) {
	svc, _, usrRepo := setUp(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, usrRepo, "Tom", "tom", "tom@test.test", "", user.RoleTeacher, true)

	teacher, err := svc.CreateTeacher(ctx, school.TeacherData{User: usr.ID})
	require.NoError(t, err)
	assert.True(t, teacher.IsActive)
	assert.Equal(t, "Tom Test", teacher.String())

	_, err = svc.CreateTeacher(ctx, school.TeacherData{User: usr.ID})
	var uErr *core.UniqueConstraintError
	assert.ErrorAs(t, err, &uErr)

	_, err = svc.CreateTeacher(ctx, school.TeacherData{User: "unknown"})
	var vErr *core.ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, []core.FieldError{{Field: "user", Error: "user not found"}}, vErr.Fields)
	}

	teacher, err = svc.UpdateTeacher(ctx, teacher.ID, school.TeacherData{User: usr.ID, IsActive: core.BoolPtr(false)})
	require.NoError(t, err)
	assert.False(t, teacher.IsActive)

	teachers, total, err := svc.QueryTeachers(ctx, &school.TeacherFilter{Search: "TOM@"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, teacher, teachers[0])

	// a Teacher is deleted with its User
	_, err = usrRepo.DeleteUsersByID(ctx, []string{usr.ID})
	require.NoError(t, err)
	_, err = svc.GetTeacher(ctx, teacher.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Classes(t *testing.T) {
	svc, repo, usrRepo := setUp(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, repo, school.CourseGeneralEnglish)
	teacher := testutil.CreateTeacher(t, repo, testutil.CreateUser(t, usrRepo, "Tom", "tom", "tom@test.test", "", user.RoleTeacher, true))

	start := core.NewDate(2024, time.January, 8)
	tests := []struct {
		name       string
		data       school.ClassData
		wantFields []core.FieldError
	}{
		{
			name:       "end before start",
			data:       school.ClassData{Course: course.ID, Name: "A1", StartDate: start, EndDate: core.NewDate(2024, time.January, 7)},
			wantFields: []core.FieldError{{Field: "end_date", Error: "End date must be after start date"}},
		},
		{
			name:       "unknown course",
			data:       school.ClassData{Course: 999, Name: "A1", StartDate: start},
			wantFields: []core.FieldError{{Field: "course", Error: "course not found"}},
		},
		{
			name:       "unknown teacher",
			data:       school.ClassData{Course: course.ID, Name: "A1", StartDate: start, Teachers: []int{teacher.ID, 999}},
			wantFields: []core.FieldError{{Field: "teachers", Error: "one or more teachers not found"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateClass(ctx, tt.data)
			var vErr *core.ValidationError
			if assert.ErrorAs(t, err, &vErr) {
				assert.Equal(t, tt.wantFields, vErr.Fields)
			}
		})
	}

	class, err := svc.CreateClass(ctx, school.ClassData{
		Course:    course.ID,
		Name:      " A1 ",
		Teachers:  []int{teacher.ID, teacher.ID},
		StartDate: start,
		EndDate:   start,
	})
	require.NoError(t, err)
	assert.Equal(t, "A1", class.Name)
	assert.Equal(t, []int{teacher.ID}, class.TeacherIDs)
	assert.Equal(t, "General English - A1", class.String())

	classes, total, err := svc.QueryClasses(ctx, &school.ClassFilter{DateHierarchy: core.DateHierarchy{Year: 2024, Month: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, class.ID, classes[0].ID)

	_, total, err = svc.QueryClasses(ctx, &school.ClassFilter{DateHierarchy: core.DateHierarchy{Year: 2023}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// a Course cannot be deleted while a Class references it
	err = svc.DeleteCourse(ctx, course.ID)
	var riErr *core.ReferentialIntegrityError
	assert.ErrorAs(t, err, &riErr)
}

func TestService_DeleteReferencedClass(t *testing.T) {
	svc, repo, _ := setUp(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, repo, school.CourseExtremeEnglish)
	class := testutil.CreateClass(t, repo, course, "B2", core.NewDate(2024, time.February, 5))
	student := testutil.CreateStudent(t, repo, "S001", "Jane", "Doe", &class)

	err := svc.DeleteClass(ctx, class.ID)
	var riErr *core.ReferentialIntegrityError
	if assert.ErrorAs(t, err, &riErr) {
		assert.Equal(t, "cannot delete class: it is referenced by 1 students", riErr.Error())
	}

	// moving the student out of the class unblocks the deletion
	data := student.Data()
	data.CurrentClass = null.Int{}
	_, err = svc.UpdateStudent(ctx, student.ID, data)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteClass(ctx, class.ID))
	require.NoError(t, svc.DeleteCourse(ctx, course.ID))

	_, err = svc.GetCourse(ctx, course.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_Students(t *testing.T) {
	svc, repo, _ := setUp(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, repo, school.CourseGeneralEnglish)
	class := testutil.CreateClass(t, repo, course, "A1", core.NewDate(2024, time.January, 8))

	student, err := svc.CreateStudent(ctx, school.StudentData{
		StudentID:    "S001",
		FirstName:    "Jane",
		LastName:     "Doe",
		CurrentClass: null.IntFrom(class.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "S001 - Jane Doe", student.String())
	assert.Equal(t, core.Today(), student.StartDate)
	assert.True(t, student.IsActive)
	if assert.NotNil(t, student.CurrentClass) {
		assert.Equal(t, "General English - A1", student.CurrentClass.String())
	}

	_, err = svc.CreateStudent(ctx, school.StudentData{StudentID: "S001", FirstName: "John", LastName: "Doe"})
	var uErr *core.UniqueConstraintError
	if assert.ErrorAs(t, err, &uErr) {
		assert.Equal(t, "student with this student_id already exists", uErr.Error())
	}

	_, err = svc.CreateStudent(ctx, school.StudentData{StudentID: "S002", FirstName: "John", LastName: "Doe", CurrentClass: null.IntFrom(999)})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// updating a student keeps its own student ID
	data := student.Data()
	data.Nickname = "JD"
	student, err = svc.UpdateStudent(ctx, student.ID, data)
	require.NoError(t, err)
	assert.Equal(t, "JD", student.Nickname)

	students, total, err := svc.QueryStudents(ctx, &school.StudentFilter{Course: course.ID, Search: "jd"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, student.ID, students[0].ID)
}
