package assessment_test

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
	inmemdb "github.com/trezcool/rors/storage/database/inmem"
	testutil "github.com/trezcool/rors/tests"
)

type fixture struct {
	svc        assessment.Service
	repo       assessment.Repository
	schoolRepo school.Repository
	student    school.Student
	teacher    user.User
}

func setUp(t *testing.T) fixture {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	schoolRepo := inmemdb.NewSchoolRepository(db)
	repo := inmemdb.NewAssessmentRepository(db)

	validate, _ := testutil.NewValidator()
	schoolSvc := school.NewService(nil, schoolRepo, user.NewService(nil, usrRepo, nil, testutil.NewConfig()), validate)

	course := testutil.CreateCourse(t, schoolRepo, school.CourseGeneralEnglish)
	class := testutil.CreateClass(t, schoolRepo, course, "A1", core.NewDate(2024, time.January, 8))
	return fixture{
		svc:        assessment.NewService(nil, repo, schoolSvc, validate, testutil.NewLogger()),
		repo:       repo,
		schoolRepo: schoolRepo,
		student:    testutil.CreateStudent(t, schoolRepo, "S001", "Jane", "Doe", &class),
		teacher:    testutil.CreateUser(t, usrRepo, "Tom", "tom", "tom@test.test", "", user.RoleTeacher, true),
	}
}

func TestService_CreateNumeric(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()
	submitted := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	assessment.NowFunc = func() time.Time { return submitted }
	defer func() { assessment.NowFunc = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) } }()

	rec, err := f.svc.Create(ctx, assessment.Data{
		Student:        f.student.ID,
		Skill:          assessment.SkillGrammar,
		Week:           3,
		Status:         assessment.StatusCompleted,
		TotalQuestions: 10,
		CorrectAnswers: 8,
	}, f.teacher)
	require.NoError(t, err)

	n, ok := rec.(*assessment.Numeric)
	require.True(t, ok)
	assert.Equal(t, null.Float64From(80), n.Score)
	assert.Equal(t, submitted, n.SubmissionDate)
	assert.Equal(t, null.StringFrom(f.teacher.ID), n.SubmittedByID)
	assert.Equal(t, "S001 - Jane Doe - Grammar Week 3", n.String())

	// update to absent
	data := n.Data()
	data.Status = assessment.StatusAbsent
	rec, err = f.svc.Update(ctx, n.ID, data)
	require.NoError(t, err)

	n = rec.(*assessment.Numeric)
	assert.False(t, n.Score.Valid)
	assert.Equal(t, 0, n.CorrectAnswers)
	assert.Equal(t, 10, n.TotalQuestions)
	assert.Equal(t, submitted, n.SubmissionDate)
	assert.Equal(t, null.StringFrom(f.teacher.ID), n.SubmittedByID)
}

func TestService_UpdateNumericRederivesScore(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, assessment.Data{
		Student:        f.student.ID,
		Skill:          assessment.SkillReading,
		Week:           1,
		TotalQuestions: 20,
		CorrectAnswers: 10,
	}, f.teacher)
	require.NoError(t, err)
	n := rec.(*assessment.Numeric)
	assert.Equal(t, assessment.StatusCompleted, n.Status)
	assert.Equal(t, null.Float64From(50), n.Score)

	data := n.Data()
	data.CorrectAnswers = 15
	rec, err = f.svc.Update(ctx, n.ID, data)
	require.NoError(t, err)
	assert.Equal(t, null.Float64From(75), rec.(*assessment.Numeric).Score)
}

func TestService_CreateGraded(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, assessment.Data{
		Student: f.student.ID,
		Skill:   assessment.SkillWriting,
		Week:    3,
		Status:  assessment.StatusCompleted,
	}, f.teacher)
	var vErr *core.ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "Grade is required for completed assessments", vErr.Error())
	}

	rec, err := f.svc.Create(ctx, assessment.Data{
		Student: f.student.ID,
		Skill:   assessment.SkillWriting,
		Week:    3,
		Status:  assessment.StatusCompleted,
		Grade:   null.StringFrom("B"),
	}, user.User{})
	require.NoError(t, err)
	g, ok := rec.(*assessment.Graded)
	require.True(t, ok)
	assert.Equal(t, null.StringFrom("B"), g.Grade)
	assert.False(t, g.SubmittedByID.Valid)

	data := g.Data()
	data.Status = assessment.StatusHoliday
	rec, err = f.svc.Update(ctx, g.ID, data)
	require.NoError(t, err)
	assert.False(t, rec.(*assessment.Graded).Grade.Valid)
}

func TestService_CreateInvalid(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	tests := []struct {
		name string
		data assessment.Data
	}{
		{"week 0", assessment.Data{Student: f.student.ID, Skill: "G", Week: 0, TotalQuestions: 10}},
		{"week 11", assessment.Data{Student: f.student.ID, Skill: "G", Week: 11, TotalQuestions: 10}},
		{"negative week", assessment.Data{Student: f.student.ID, Skill: "W", Week: -1, Grade: null.StringFrom("A")}},
		{"unknown skill", assessment.Data{Student: f.student.ID, Skill: "X", Week: 1, TotalQuestions: 10}},
		{"skill of other kind", assessment.Data{Kind: assessment.KindGraded, Student: f.student.ID, Skill: "G", Week: 1}},
		{"unknown status", assessment.Data{Student: f.student.ID, Skill: "G", Week: 1, Status: "XYZ", TotalQuestions: 10}},
		{"unknown grade", assessment.Data{Student: f.student.ID, Skill: "W", Week: 1, Grade: null.StringFrom("F")}},
		{"no questions", assessment.Data{Student: f.student.ID, Skill: "G", Week: 1}},
		{"score above 100", assessment.Data{Student: f.student.ID, Skill: "G", Week: 1, TotalQuestions: 10, Score: null.Float64From(101)}},
		{"too many correct answers", assessment.Data{Student: f.student.ID, Skill: "G", Week: 1, TotalQuestions: 10, CorrectAnswers: 11}},
		{"unknown student", assessment.Data{Student: 999, Skill: "G", Week: 1, TotalQuestions: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.data, f.teacher)
			assert.Error(t, err)
			_, total, err := f.svc.Query(ctx, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, 0, total)
		})
	}
}

func TestService_Uniqueness(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	numeric := assessment.Data{Student: f.student.ID, Skill: "V", Week: 2, TotalQuestions: 5, CorrectAnswers: 5}
	graded := assessment.Data{Student: f.student.ID, Skill: "S", Week: 2, Grade: null.StringFrom("A")}

	for _, data := range []assessment.Data{numeric, graded} {
		_, err := f.svc.Create(ctx, data, f.teacher)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, data, f.teacher)
		var uErr *core.UniqueConstraintError
		assert.ErrorAs(t, err, &uErr, data.Skill)
	}

	// same week & student, other skill
	other := numeric
	other.Skill = "L"
	rec, err := f.svc.Create(ctx, other, f.teacher)
	require.NoError(t, err)

	// moving onto an existing skill & week
	data := rec.Data()
	data.Skill = "V"
	_, err = f.svc.Update(ctx, rec.Base().ID, data)
	var uErr *core.UniqueConstraintError
	assert.ErrorAs(t, err, &uErr)
}

func TestService_UpdateKindChange(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, assessment.Data{Student: f.student.ID, Skill: "G", Week: 1, TotalQuestions: 4, CorrectAnswers: 1}, f.teacher)
	require.NoError(t, err)

	data := rec.Data()
	data.Kind = ""
	data.Skill = "W"
	data.Grade = null.StringFrom("A")
	_, err = f.svc.Update(ctx, rec.Base().ID, data)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestService_SharedIDsAndQuery(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	n := testutil.CreateNumeric(t, f.repo, f.student, "G", 2, 3, 4)
	g := testutil.CreateGraded(t, f.repo, f.student, "P", 1, "C")
	assert.NotEqual(t, n.ID, g.ID)

	rec, err := f.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, assessment.KindGraded, rec.Kind())

	recs, total, err := f.svc.Query(ctx, &assessment.Filter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	// ordered by student, week, skill
	assert.Equal(t, g.ID, recs[0].Base().ID)
	assert.Equal(t, n.ID, recs[1].Base().ID)

	recs, total, err = f.svc.Query(ctx, &assessment.Filter{Grade: "C"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, g.ID, recs[0].Base().ID)

	recs, _, err = f.svc.Query(ctx, &assessment.Filter{Search: "jane"}, []core.DBOrdering{{Field: "id", Ascending: false}})
	require.NoError(t, err)
	if assert.Len(t, recs, 2) {
		assert.Equal(t, g.ID, recs[0].Base().ID)
	}

	recs, _, err = f.svc.Query(ctx, &assessment.Filter{Kind: assessment.KindNumeric, Week: 2}, nil)
	require.NoError(t, err)
	if assert.Len(t, recs, 1) {
		assert.Equal(t, n.ID, recs[0].Base().ID)
	}

	require.NoError(t, f.svc.Delete(ctx, n.ID))
	_, err = f.svc.Get(ctx, n.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestService_StudentDeletionCascades(t *testing.T) {
	f := setUp(t)
	ctx := context.Background()

	n := testutil.CreateNumeric(t, f.repo, f.student, "G", 2, 3, 4)
	require.NoError(t, f.schoolRepo.DeleteStudent(ctx, f.student.ID))

	_, err := f.svc.Get(ctx, n.ID)
	assert.True(t, core.IsNotFound(err))
}
