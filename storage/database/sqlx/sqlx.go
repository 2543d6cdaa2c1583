// Package sqlxrepos implements the repositories on PostgreSQL with sqlx & squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgreSQL error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
	checkViolation      = "23514"
)

var (
	// fields of the unique constraints
	uniqueFields = map[string][]string{
		"user_username_key":                         {"username"},
		"user_email_key":                            {"email"},
		"teacher_user_id_key":                       {"user"},
		"student_student_id_key":                    {"student_id"},
		"numeric_assessment_student_skill_week_key": {"student", "skill", "week"},
		"graded_assessment_student_skill_week_key":  {"student", "skill", "week"},
	}

	// foreign keys: the referencing field & the dependents blocking a deletion
	foreignKeys = map[string]foreignKey{
		"teacher_user_id_fkey":                    {field: "user", dependents: "teachers"},
		"class_course_id_fkey":                    {field: "course", dependents: "classes"},
		"class_teacher_class_id_fkey":             {field: "class", dependents: "classes"},
		"class_teacher_teacher_id_fkey":           {field: "teachers", dependents: "classes"},
		"student_current_class_id_fkey":           {field: "current_class", dependents: "students"},
		"numeric_assessment_student_id_fkey":      {field: "student", dependents: "numeric assessments"},
		"graded_assessment_student_id_fkey":       {field: "student", dependents: "graded assessments"},
		"numeric_assessment_submitted_by_id_fkey": {field: "submitted_by", dependents: "numeric assessments"},
		"graded_assessment_submitted_by_id_fkey":  {field: "submitted_by", dependents: "graded assessments"},
	}
)

type foreignKey struct {
	field      string
	dependents string
}

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if exec := core.ExecArg(svcExec); exec != nil {
		return exec
	}
	return repo.exec
}

func (repo repository) get(ctx context.Context, exec core.DBExecutor, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, query, args...)
}

func (repo repository) selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, query, args...)
}

// execute runs the statement & returns the number of rows affected.
func (repo repository) execute(ctx context.Context, exec core.DBExecutor, q sq.Sqlizer) (int, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (repo repository) exists(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) (bool, error) {
	var exists bool
	err := repo.get(ctx, exec, &exists, q.Prefix("SELECT EXISTS (").Suffix(")"))
	return exists, err
}

func (repo repository) count(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) (int, error) {
	var cnt int
	err := repo.get(ctx, exec, &cnt, q)
	return cnt, err
}

// trapNoRowsErr maps sql.ErrNoRows to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// mapError maps the constraint violations of PostgreSQL to domain errors.
func mapError(err error, entity, msg string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return errors.Wrap(err, msg)
	}

	switch pqErr.Code {
	case uniqueViolation:
		return core.NewUniqueConstraintError(entity, uniqueFields[pqErr.Constraint]...)
	case foreignKeyViolation:
		fk, ok := foreignKeys[pqErr.Constraint]
		if !ok {
			break
		}
		if strings.HasPrefix(msg, "deleting") {
			return core.NewReferentialIntegrityError(entity, fk.dependents, 0)
		}
		return core.NewValidationError(pqErr, core.FieldError{Field: fk.field, Error: fk.field + " not found"})
	case checkViolation:
		return core.NewValidationError(pqErr)
	}
	return errors.Wrap(err, msg)
}

// orderBy returns the ORDER BY clauses of the orderings, on the columns of the fields.
func orderBy(ordering []core.DBOrdering, columns map[string]string) []string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := columns[ord.Field]; ok {
			clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	return clauses
}

// paginate applies the page to q.
func paginate(q sq.SelectBuilder, page core.Page) sq.SelectBuilder {
	if page.Limit > 0 {
		q = q.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		q = q.Offset(uint64(page.Offset))
	}
	return q
}

func ilike(search string, columns ...string) sq.Or {
	val := "%" + search + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: val})
	}
	return or
}

// dateRange filters the date column on the inclusive [from, to] range, unset bounds are open.
func dateRange(q sq.SelectBuilder, column string, from, to core.Date) sq.SelectBuilder {
	if from.IsSet() {
		q = q.Where(sq.GtOrEq{column: from.String()})
	}
	if to.IsSet() {
		q = q.Where(sq.LtOrEq{column: to.String()})
	}
	return q
}

// dateHierarchy filters the date column on the range of the hierarchy.
func dateHierarchy(q sq.SelectBuilder, column string, h core.DateHierarchy) sq.SelectBuilder {
	if from, to, ok := h.Range(); ok {
		q = q.Where(sq.GtOrEq{column: from.Format(core.DateLayout)}).Where(sq.Lt{column: to.Format(core.DateLayout)})
	}
	return q
}
