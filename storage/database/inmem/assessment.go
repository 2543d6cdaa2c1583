package inmemdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

// load copies the assessment with its Student.
func (db *DB) loadAssessment(rec assessment.Record) assessment.Record {
	var cp assessment.Record
	switch r := rec.(type) {
	case *assessment.Numeric:
		n := *r
		cp = &n
	case *assessment.Graded:
		g := *r
		cp = &g
	}
	base := cp.Base()
	base.Student = nil
	if s, ok := db.students[base.StudentID]; ok {
		student := db.loadStudent(s)
		base.Student = &student
	}
	return cp
}

func (db *DB) getAssessment(id int) (assessment.Record, bool) {
	if n, ok := db.numerics[id]; ok {
		return n, true
	}
	if g, ok := db.gradeds[id]; ok {
		return g, true
	}
	return nil, false
}

func (repo *assessmentRepository) store(rec assessment.Record) error {
	switch r := rec.(type) {
	case *assessment.Numeric:
		n := *r
		n.Student = nil
		repo.db.numerics[n.ID] = &n
	case *assessment.Graded:
		g := *r
		g.Student = nil
		repo.db.gradeds[g.ID] = &g
	default:
		return errors.Errorf("unknown assessment type %T", rec)
	}
	return nil
}

func (repo *assessmentRepository) checkReferences(base *assessment.Assessment) error {
	if _, ok := repo.db.students[base.StudentID]; !ok {
		return core.NewValidationError(
			errors.New("student not found"),
			core.FieldError{Field: "student", Error: "student not found"},
		)
	}
	return nil
}

func (repo *assessmentRepository) Create(ctx context.Context, rec assessment.Record, _ ...core.DBExecutor) (assessment.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	base := rec.Base()
	if err := repo.checkReferences(base); err != nil {
		return nil, err
	}
	if repo.db.assessmentExists(rec.Kind(), base.StudentID, base.Skill, base.Week, 0) {
		return nil, core.NewUniqueConstraintError(rec.Kind()+" assessment", "student", "skill", "week")
	}
	repo.db.assessmentSeq++
	base.ID = repo.db.assessmentSeq
	if err := repo.store(rec); err != nil {
		return nil, err
	}
	return repo.db.loadAssessment(rec), nil
}

func (repo *assessmentRepository) Query(ctx context.Context, filter *assessment.Filter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]assessment.Record, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter == nil {
		filter = new(assessment.Filter)
	}
	all := make([]assessment.Record, 0, len(repo.db.numerics)+len(repo.db.gradeds))
	if filter.Kind == "" || filter.Kind == assessment.KindNumeric {
		for _, n := range repo.db.numerics {
			all = append(all, n)
		}
	}
	if filter.Kind == "" || filter.Kind == assessment.KindGraded {
		for _, g := range repo.db.gradeds {
			all = append(all, g)
		}
	}

	from, to := filter.SubmittedRange()
	recs := make([]assessment.Record, 0, len(all))
	for _, rec := range all {
		rec = repo.db.loadAssessment(rec)
		base := rec.Base()
		if filter.Student != 0 && base.StudentID != filter.Student {
			continue
		}
		if filter.Skill != "" && base.Skill != filter.Skill {
			continue
		}
		if filter.Status != "" && base.Status != filter.Status {
			continue
		}
		if filter.Week != 0 && base.Week != filter.Week {
			continue
		}
		if filter.Grade != "" {
			if g, ok := rec.(*assessment.Graded); !ok || g.Grade.String != filter.Grade {
				continue
			}
		}
		if filter.Search != "" && !matchSearch(filter.Search, base) {
			continue
		}
		if !inHierarchy(base.SubmissionDate, filter.DateHierarchy) || !inRange(base.SubmissionDate, from, to) {
			continue
		}
		recs = append(recs, rec)
	}

	orderSlice(recs, ordering, func(i, j int, field string) int {
		a, b := recs[i].Base(), recs[j].Base()
		switch field {
		case "id":
			return cmpInt(a.ID, b.ID)
		case "student":
			return cmpStr(studentCode(a), studentCode(b))
		case "skill":
			return cmpStr(a.Skill, b.Skill)
		case "week":
			return cmpInt(a.Week, b.Week)
		case "status":
			return cmpStr(a.Status, b.Status)
		case "submission_date":
			return cmpTime(a.SubmissionDate, b.SubmissionDate)
		case "score":
			return cmpFloat(score(recs[i]), score(recs[j]))
		case "grade":
			return cmpStr(grade(recs[i]), grade(recs[j]))
		}
		return 0
	})
	start, end := filter.Page.Bounds(len(recs))
	return recs[start:end], len(recs), nil
}

func (repo *assessmentRepository) Get(ctx context.Context, id int, _ ...core.DBExecutor) (assessment.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rec, ok := repo.db.getAssessment(id); ok {
		return repo.db.loadAssessment(rec), nil
	}
	return nil, assessment.ErrNotFound
}

func (db *DB) assessmentExists(kind string, studentID int, skill string, week int, excludedID int) bool {
	var bases []*assessment.Assessment
	if kind == assessment.KindNumeric {
		for _, n := range db.numerics {
			bases = append(bases, &n.Assessment)
		}
	} else {
		for _, g := range db.gradeds {
			bases = append(bases, &g.Assessment)
		}
	}
	for _, b := range bases {
		if b.ID != excludedID && b.StudentID == studentID && b.Skill == skill && b.Week == week {
			return true
		}
	}
	return false
}

func (repo *assessmentRepository) Exists(ctx context.Context, kind string, studentID int, skill string, week int, excludedID int, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.assessmentExists(kind, studentID, skill, week, excludedID), nil
}

func (repo *assessmentRepository) Update(ctx context.Context, rec assessment.Record, _ ...core.DBExecutor) (assessment.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	base := rec.Base()
	orig, ok := repo.db.getAssessment(base.ID)
	if !ok || orig.Kind() != rec.Kind() {
		return nil, assessment.ErrNotFound
	}
	if err := repo.checkReferences(base); err != nil {
		return nil, err
	}
	if repo.db.assessmentExists(rec.Kind(), base.StudentID, base.Skill, base.Week, base.ID) {
		return nil, core.NewUniqueConstraintError(rec.Kind()+" assessment", "student", "skill", "week")
	}
	if err := repo.store(rec); err != nil {
		return nil, err
	}
	return repo.db.loadAssessment(rec), nil
}

func (repo *assessmentRepository) Delete(ctx context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.getAssessment(id); !ok {
		return assessment.ErrNotFound
	}
	delete(repo.db.numerics, id)
	delete(repo.db.gradeds, id)
	return nil
}

func matchSearch(search string, base *assessment.Assessment) bool {
	if core.ContainsFold(search, base.Comments) {
		return true
	}
	s := base.Student
	return s != nil && core.ContainsFold(search, s.StudentID, s.FirstName, s.LastName)
}

func studentCode(base *assessment.Assessment) string {
	if base.Student != nil {
		return base.Student.StudentID
	}
	return ""
}

// score orders the assessments without score first.
func score(rec assessment.Record) float64 {
	if n, ok := rec.(*assessment.Numeric); ok && n.Score.Valid {
		return n.Score.Float64
	}
	return -1
}

func grade(rec assessment.Record) string {
	if g, ok := rec.(*assessment.Graded); ok {
		return g.Grade.String
	}
	return ""
}
