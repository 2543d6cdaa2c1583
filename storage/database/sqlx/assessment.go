package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/assessment"
)

var (
	assessmentTables = map[string]string{
		assessment.KindNumeric: "numeric_assessment",
		assessment.KindGraded:  "graded_assessment",
	}

	assessmentColumns = map[string]string{
		"id":              "a.id",
		"student":         "s.student_id",
		"skill":           "a.skill",
		"week":            "a.week",
		"status":          "a.status",
		"score":           "COALESCE(a.score, -1)",
		"grade":           "COALESCE(a.grade, '')",
		"submission_date": "a.submission_date",
	}
)

// assessmentRow is a row of the assessment view, either kind.
type assessmentRow struct {
	assessment.Assessment
	Kind           string       `db:"kind"`
	Score          null.Float64 `db:"score"`
	TotalQuestions null.Int     `db:"total_questions"`
	CorrectAnswers null.Int     `db:"correct_answers"`
	Grade          null.String  `db:"grade"`
}

func (row assessmentRow) record() assessment.Record {
	if row.Kind == assessment.KindGraded {
		return &assessment.Graded{Assessment: row.Assessment, Grade: row.Grade}
	}
	return &assessment.Numeric{
		Assessment:     row.Assessment,
		Score:          row.Score,
		TotalQuestions: row.TotalQuestions.Int,
		CorrectAnswers: row.CorrectAnswers.Int,
	}
}

type assessmentRepository struct {
	repository
	students *schoolRepository
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(exec core.DBExecutor) assessment.Repository {
	return &assessmentRepository{
		repository: repository{exec: exec},
		students:   &schoolRepository{repository{exec: exec}},
	}
}

func assessmentsQuery(cols ...string) sq.SelectBuilder {
	if len(cols) == 0 {
		cols = []string{"a.*"}
	}
	return psql.Select(cols...).From("assessment a").Join("student s ON s.id = a.student_id")
}

// selectAssessments selects the assessments with their Student.
func (repo *assessmentRepository) selectAssessments(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) ([]assessment.Record, error) {
	var rows []assessmentRow
	if err := repo.selectAll(ctx, exec, &rows, q); err != nil {
		return nil, err
	}
	recs := make([]assessment.Record, 0, len(rows))
	if len(rows) == 0 {
		return recs, nil
	}

	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.StudentID)
	}
	students, err := repo.students.selectStudents(ctx, exec, studentsQuery().Where(sq.Eq{"s.id": ids}))
	if err != nil {
		return nil, err
	}
	byID := make(map[int]int, len(students))
	for i, s := range students {
		byID[s.ID] = i
	}

	for _, row := range rows {
		rec := row.record()
		if i, ok := byID[row.StudentID]; ok {
			student := students[i]
			rec.Base().Student = &student
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (repo *assessmentRepository) Create(ctx context.Context, rec assessment.Record, exec ...core.DBExecutor) (assessment.Record, error) {
	base := rec.Base()
	q := psql.Insert(assessmentTables[rec.Kind()]).
		Columns("student_id", "skill", "week", "status", "submission_date", "submitted_by_id", "comments")
	switch r := rec.(type) {
	case *assessment.Numeric:
		q = q.Columns("score", "total_questions", "correct_answers").
			Values(base.StudentID, base.Skill, base.Week, base.Status, base.SubmissionDate, base.SubmittedByID, base.Comments,
				r.Score, r.TotalQuestions, r.CorrectAnswers)
	case *assessment.Graded:
		q = q.Columns("grade").
			Values(base.StudentID, base.Skill, base.Week, base.Status, base.SubmissionDate, base.SubmittedByID, base.Comments,
				r.Grade)
	default:
		return nil, errors.Errorf("unknown assessment type %T", rec)
	}

	ex := repo.getExec(exec)
	var id int
	if err := repo.get(ctx, ex, &id, q.Suffix("RETURNING id")); err != nil {
		return nil, mapError(err, rec.Kind()+" assessment", "inserting assessment")
	}
	return repo.Get(ctx, id, ex)
}

func (repo *assessmentRepository) Query(ctx context.Context, filter *assessment.Filter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]assessment.Record, int, error) {
	if filter == nil {
		filter = new(assessment.Filter)
	}
	where := func(q sq.SelectBuilder) sq.SelectBuilder {
		if filter.Kind != "" {
			q = q.Where(sq.Eq{"a.kind": filter.Kind})
		}
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "s.student_id", "s.first_name", "s.last_name", "a.comments"))
		}
		if filter.Student != 0 {
			q = q.Where(sq.Eq{"a.student_id": filter.Student})
		}
		if filter.Skill != "" {
			q = q.Where(sq.Eq{"a.skill": filter.Skill})
		}
		if filter.Status != "" {
			q = q.Where(sq.Eq{"a.status": filter.Status})
		}
		if filter.Grade != "" {
			q = q.Where(sq.Eq{"a.grade": filter.Grade})
		}
		if filter.Week != 0 {
			q = q.Where(sq.Eq{"a.week": filter.Week})
		}
		if from, to, ok := filter.DateHierarchy.Range(); ok {
			q = q.Where(sq.GtOrEq{"a.submission_date": from}).Where(sq.Lt{"a.submission_date": to})
		}
		from, to := filter.SubmittedRange()
		if !from.IsZero() {
			q = q.Where(sq.GtOrEq{"a.submission_date": from})
		}
		if !to.IsZero() {
			q = q.Where(sq.Lt{"a.submission_date": to})
		}
		return q
	}

	ex := repo.getExec(exec)
	total, err := repo.count(ctx, ex, where(assessmentsQuery("COUNT(*)")))
	if err != nil {
		return nil, 0, mapError(err, "assessment", "counting assessments")
	}

	q := where(assessmentsQuery()).OrderBy(append(orderBy(ordering, assessmentColumns), "a.id")...)
	recs, err := repo.selectAssessments(ctx, ex, paginate(q, filter.Page))
	if err != nil {
		return nil, 0, mapError(err, "assessment", "selecting assessments")
	}
	return recs, total, nil
}

func (repo *assessmentRepository) Get(ctx context.Context, id int, exec ...core.DBExecutor) (assessment.Record, error) {
	recs, err := repo.selectAssessments(ctx, repo.getExec(exec), assessmentsQuery().Where(sq.Eq{"a.id": id}))
	if err != nil {
		return nil, mapError(err, "assessment", "selecting assessment")
	}
	if len(recs) == 0 {
		return nil, assessment.ErrNotFound
	}
	return recs[0], nil
}

func (repo *assessmentRepository) Exists(ctx context.Context, kind string, studentID int, skill string, week int, excludedID int, exec ...core.DBExecutor) (bool, error) {
	table, ok := assessmentTables[kind]
	if !ok {
		return false, errors.Errorf("unknown assessment kind %q", kind)
	}
	q := psql.Select("1").From(table).
		Where(sq.Eq{"student_id": studentID, "skill": skill, "week": week}).
		Where(sq.NotEq{"id": excludedID})
	exists, err := repo.exists(ctx, repo.getExec(exec), q)
	return exists, mapError(err, kind+" assessment", "checking assessment existence")
}

// Update updates the assessment in place; its kind, submission date & submitter are kept.
func (repo *assessmentRepository) Update(ctx context.Context, rec assessment.Record, exec ...core.DBExecutor) (assessment.Record, error) {
	base := rec.Base()
	values := map[string]interface{}{
		"student_id": base.StudentID,
		"skill":      base.Skill,
		"week":       base.Week,
		"status":     base.Status,
		"comments":   base.Comments,
	}
	switch r := rec.(type) {
	case *assessment.Numeric:
		values["score"] = r.Score
		values["total_questions"] = r.TotalQuestions
		values["correct_answers"] = r.CorrectAnswers
	case *assessment.Graded:
		values["grade"] = r.Grade
	default:
		return nil, errors.Errorf("unknown assessment type %T", rec)
	}

	ex := repo.getExec(exec)
	q := psql.Update(assessmentTables[rec.Kind()]).SetMap(values).Where(sq.Eq{"id": base.ID})
	n, err := repo.execute(ctx, ex, q)
	if err != nil {
		return nil, mapError(err, rec.Kind()+" assessment", "updating assessment")
	}
	if n == 0 {
		return nil, assessment.ErrNotFound
	}
	return repo.Get(ctx, base.ID, ex)
}

func (repo *assessmentRepository) Delete(ctx context.Context, id int, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	var deleted int
	for _, table := range []string{"numeric_assessment", "graded_assessment"} {
		n, err := repo.execute(ctx, ex, psql.Delete(table).Where(sq.Eq{"id": id}))
		if err != nil {
			return mapError(err, "assessment", "deleting assessment")
		}
		deleted += n
	}
	if deleted == 0 {
		return assessment.ErrNotFound
	}
	return nil
}
