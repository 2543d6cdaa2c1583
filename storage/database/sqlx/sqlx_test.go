package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/assessment"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
	sqlxrepos "github.com/trezcool/rors/storage/database/sqlx"
	testutil "github.com/trezcool/rors/tests"
)

func TestUserRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := sqlxrepos.NewUserRepository(db)
	ctx := context.Background()

	created := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	admin := testutil.CreateUser(t, repo, "Admin", "admin", "admin@test.test", "pwd", user.RoleAdmin, true, created)
	teacher := testutil.CreateUser(t, repo, "Tom", "tom", "tom@test.test", "", user.RoleTeacher, false)
	_ = testutil.CreateUser(t, repo, "Anonymous", "", "", "", user.RoleTeacher, true)

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(ctx, "admin", "", nil))
		assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(ctx, "", "tom@test.test", nil))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "admin", "admin@test.test", []user.User{admin}))
		// empty usernames & emails are not unique
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "", "", nil))
		_ = testutil.CreateUser(t, repo, "Other", "", "", "", user.RoleTeacher, true)
	})

	t.Run("query", func(t *testing.T) {
		users, err := repo.QueryUsers(ctx, &user.QueryFilter{Search: "TOM"}, nil)
		require.NoError(t, err)
		if assert.Len(t, users, 1) {
			assert.Equal(t, teacher.ID, users[0].ID)
		}

		users, err = repo.QueryUsers(ctx, &user.QueryFilter{CreatedFrom: core.DateOf(created), CreatedTo: core.DateOf(created)}, nil)
		require.NoError(t, err)
		if assert.Len(t, users, 1) {
			assert.Equal(t, admin.ID, users[0].ID)
		}

		users, err = repo.QueryUsers(ctx, &user.QueryFilter{IsActive: core.BoolPtr(false)}, []core.DBOrdering{{Field: "username", Ascending: false}})
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("get & update", func(t *testing.T) {
		usr, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "admin@test.test"})
		require.NoError(t, err)
		assert.Equal(t, admin.ID, usr.ID)
		assert.NoError(t, usr.CheckPassword("pwd"))

		_, err = repo.GetUser(ctx, user.GetFilter{ID: "not-a-uuid"})
		assert.Equal(t, user.ErrNotFound, err)

		usr.FirstName = "Boss"
		_, err = repo.UpdateUser(ctx, usr)
		require.NoError(t, err)
		usr, err = repo.GetUser(ctx, user.GetFilter{ID: admin.ID})
		require.NoError(t, err)
		assert.Equal(t, "Boss", usr.FirstName)

		usr.Username = "tom"
		_, err = repo.UpdateUser(ctx, usr)
		var uErr *core.UniqueConstraintError
		assert.ErrorAs(t, err, &uErr)
	})

	t.Run("delete", func(t *testing.T) {
		n, err := repo.DeleteUsersByID(ctx, []string{teacher.ID, "not-a-uuid"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestSchoolRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewSchoolRepository(db)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Tom", "tom", "tom@test.test", "", user.RoleTeacher, true)
	teacher := testutil.CreateTeacher(t, repo, usr)
	assert.Equal(t, "Tom Test", teacher.String())

	_, err := repo.CreateTeacher(ctx, school.Teacher{UserID: usr.ID, IsActive: true})
	var uErr *core.UniqueConstraintError
	assert.ErrorAs(t, err, &uErr)

	course := testutil.CreateCourse(t, repo, school.CourseGeneralEnglish)
	class := testutil.CreateClass(t, repo, course, "A1", core.NewDate(2024, time.January, 8), teacher.ID)
	assert.Equal(t, []int{teacher.ID}, class.TeacherIDs)
	assert.Equal(t, "General English - A1", class.String())

	_, err = repo.CreateClass(ctx, school.Class{CourseID: 999, Name: "B1", StartDate: core.Today()})
	var vErr *core.ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, []core.FieldError{{Field: "course", Error: "course not found"}}, vErr.Fields)
	}

	classes, total, err := repo.QueryClasses(ctx, &school.ClassFilter{Teacher: teacher.ID, DateHierarchy: core.DateHierarchy{Year: 2024, Month: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, class.ID, classes[0].ID)

	student := testutil.CreateStudent(t, repo, "S001", "Jane", "Doe", &class)
	if assert.NotNil(t, student.CurrentClass) {
		assert.Equal(t, class.ID, student.CurrentClass.ID)
	}

	students, total, err := repo.QueryStudents(ctx, &school.StudentFilter{Course: course.ID, Search: "jane"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, student.ID, students[0].ID)

	// RESTRICT
	err = repo.DeleteClass(ctx, class.ID)
	var riErr *core.ReferentialIntegrityError
	if assert.ErrorAs(t, err, &riErr) {
		assert.Equal(t, "students", riErr.Dependents)
	}
	err = repo.DeleteCourse(ctx, course.ID)
	assert.ErrorAs(t, err, &riErr)

	// CASCADE
	_, err = usrRepo.DeleteUsersByID(ctx, []string{usr.ID})
	require.NoError(t, err)
	_, err = repo.GetTeacher(ctx, teacher.ID)
	assert.Equal(t, school.ErrTeacherNotFound, err)
	class, err = repo.GetClass(ctx, class.ID)
	require.NoError(t, err)
	assert.Empty(t, class.TeacherIDs)
}

func TestAssessmentRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	repo := sqlxrepos.NewAssessmentRepository(db)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Tom", "tom", "tom@test.test", "", user.RoleTeacher, true)
	course := testutil.CreateCourse(t, schoolRepo, school.CourseGeneralEnglish)
	class := testutil.CreateClass(t, schoolRepo, course, "A1", core.NewDate(2024, time.January, 8))
	student := testutil.CreateStudent(t, schoolRepo, "S001", "Jane", "Doe", &class)

	n := testutil.CreateNumeric(t, repo, student, assessment.SkillGrammar, 2, 2, 3)
	g := testutil.CreateGraded(t, repo, student, assessment.SkillSpeaking, 1, "B")
	assert.NotEqual(t, n.ID, g.ID)
	assert.Equal(t, null.Float64From(66.67), n.Score)
	assert.Equal(t, "S001 - Jane Doe - Grammar Week 2", n.String())

	t.Run("unique per kind", func(t *testing.T) {
		dup := *n
		_, err := repo.Create(ctx, &dup)
		var uErr *core.UniqueConstraintError
		if assert.ErrorAs(t, err, &uErr) {
			assert.Equal(t, "numeric assessment with this student, skill and week already exists", uErr.Error())
		}

		exists, err := repo.Exists(ctx, assessment.KindGraded, student.ID, assessment.SkillSpeaking, 1, 0)
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = repo.Exists(ctx, assessment.KindGraded, student.ID, assessment.SkillSpeaking, 1, g.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("query", func(t *testing.T) {
		recs, total, err := repo.Query(ctx, nil, assessment.DefaultOrdering)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, g.ID, recs[0].Base().ID)
		assert.Equal(t, assessment.KindNumeric, recs[1].Kind())

		recs, total, err = repo.Query(ctx, &assessment.Filter{Grade: "B", Search: "doe"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, g.ID, recs[0].Base().ID)

		_, total, err = repo.Query(ctx, &assessment.Filter{Page: core.Page{Limit: 1}}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("update", func(t *testing.T) {
		upd := *g
		upd.Status = assessment.StatusAbsent
		upd.Grade = null.String{}
		rec, err := repo.Update(ctx, &upd)
		require.NoError(t, err)
		assert.False(t, rec.(*assessment.Graded).Grade.Valid)
		assert.Equal(t, g.SubmissionDate, rec.Base().SubmissionDate)

		wrongKind := assessment.Numeric{Assessment: g.Assessment, TotalQuestions: 1}
		_, err = repo.Update(ctx, &wrongKind)
		assert.Equal(t, assessment.ErrNotFound, err)
	})

	t.Run("submitter deletion", func(t *testing.T) {
		sub := *n
		sub.Week = 3
		sub.SubmittedByID = null.StringFrom(usr.ID)
		rec, err := repo.Create(ctx, &sub)
		require.NoError(t, err)

		_, err = usrRepo.DeleteUsersByID(ctx, []string{usr.ID})
		require.NoError(t, err)
		rec, err = repo.Get(ctx, rec.Base().ID)
		require.NoError(t, err)
		assert.False(t, rec.Base().SubmittedByID.Valid)
	})

	t.Run("student deletion", func(t *testing.T) {
		require.NoError(t, schoolRepo.DeleteStudent(ctx, student.ID))
		_, err := repo.Get(ctx, n.ID)
		assert.Equal(t, assessment.ErrNotFound, err)
		assert.Equal(t, assessment.ErrNotFound, repo.Delete(ctx, g.ID))
	})
}
