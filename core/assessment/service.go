package assessment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("assessment")

	errKindChanged = errors.New("the kind of an assessment cannot be changed")

	// NowFunc returns the submission date of new assessments; it is mocked in tests.
	NowFunc = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
)

type (
	Repository interface {
		Create(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		Query(ctx context.Context, filter *Filter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Record, int, error)
		Get(ctx context.Context, id int, exec ...core.DBExecutor) (Record, error)
		// Exists reports whether an assessment of the kind, other than excludedID, already has the student, skill & week.
		Exists(ctx context.Context, kind string, studentID int, skill string, week int, excludedID int, exec ...core.DBExecutor) (bool, error)
		Update(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		Delete(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	// StudentGetter finds the Students assessed.
	StudentGetter interface {
		GetStudent(ctx context.Context, id int) (school.Student, error)
	}

	Service interface {
		// Create creates an assessment submitted by the user `by`.
		Create(ctx context.Context, data Data, by user.User) (Record, error)
		Query(ctx context.Context, filter *Filter, ordering []core.DBOrdering) ([]Record, int, error)
		Get(ctx context.Context, id int) (Record, error)
		Update(ctx context.Context, id int, data Data) (Record, error)
		Delete(ctx context.Context, id int) error
	}

	service struct {
		db       core.DB
		repo     Repository
		students StudentGetter
		validate *validator.Validate
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, students StudentGetter, validate *validator.Validate, logger core.Logger) Service {
	return &service{
		db:       db,
		repo:     repo,
		students: students,
		validate: validate,
		logger:   logger,
	}
}

func (svc *service) checkStudent(ctx context.Context, id int) error {
	if _, err := svc.students.GetStudent(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "student", Error: "student not found"})
		}
		return errors.Wrap(err, "finding student")
	}
	return nil
}

func (svc *service) checkUniqueness(ctx context.Context, exec core.DBExecutor, rec Record) error {
	base := rec.Base()
	exists, err := svc.repo.Exists(ctx, rec.Kind(), base.StudentID, base.Skill, base.Week, base.ID, exec)
	if err != nil {
		return errors.Wrap(err, "checking assessment uniqueness")
	}
	if exists {
		return core.NewUniqueConstraintError(rec.Kind()+" assessment", "student", "skill", "week")
	}
	return nil
}

func (svc *service) clean(rec Record) error {
	set, err := rec.Clean()
	if err != nil {
		return err
	}
	if len(set) > 0 {
		base := rec.Base()
		svc.logger.Debug("assessment fields set by status", map[string]interface{}{
			"id":     base.ID,
			"status": base.Status,
			"fields": set,
		})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, data Data, by user.User) (Record, error) {
	if _, err := data.Validate(svc.validate); err != nil {
		return nil, err
	}
	if err := svc.checkStudent(ctx, data.Student); err != nil {
		return nil, err
	}

	base := Assessment{SubmissionDate: NowFunc()}
	if by.ID != "" {
		base.SubmittedByID = null.StringFrom(by.ID)
	}
	rec := data.record(base)
	if err := svc.clean(rec); err != nil {
		return nil, err
	}

	var created Record
	err := core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if err := svc.checkUniqueness(ctx, exec, rec); err != nil {
			return err
		}
		var err error
		created, err = svc.repo.Create(ctx, rec, exec)
		return err
	})
	return created, err
}

func (svc *service) Query(ctx context.Context, filter *Filter, ordering []core.DBOrdering) ([]Record, int, error) {
	if filter == nil {
		filter = new(Filter)
	}
	filter.Clean()
	ord := core.CleanOrdering(ordering, OrderingFields...)
	if len(ord) == 0 {
		ord = DefaultOrdering
	}
	return svc.repo.Query(ctx, filter, ord)
}

func (svc *service) Get(ctx context.Context, id int) (Record, error) {
	return svc.repo.Get(ctx, id)
}

// Update updates the assessment; its submission date & submitter never change.
// The score of a completed numeric assessment is derived again when its answers change while its score is unchanged.
func (svc *service) Update(ctx context.Context, id int, data Data) (Record, error) {
	kind, err := data.Validate(svc.validate)
	if err != nil {
		return nil, err
	}
	if err = svc.checkStudent(ctx, data.Student); err != nil {
		return nil, err
	}

	var updated Record
	err = core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		orig, err := svc.repo.Get(ctx, id, exec)
		if err != nil {
			return err
		}
		if orig.Kind() != kind {
			return core.NewValidationError(errKindChanged, core.FieldError{Field: "skill", Error: errKindChanged.Error()})
		}

		base := *orig.Base()
		base.Student = nil
		rec := data.record(base)
		if n, ok := rec.(*Numeric); ok {
			rederiveScore(n, orig.(*Numeric))
		}
		if err = svc.clean(rec); err != nil {
			return err
		}
		if err = svc.checkUniqueness(ctx, exec, rec); err != nil {
			return err
		}
		updated, err = svc.repo.Update(ctx, rec, exec)
		return err
	})
	return updated, err
}

// rederiveScore unsets the score of n when its answers changed but its score did not.
func rederiveScore(n, orig *Numeric) {
	if !n.IsCompleted() {
		return
	}
	answersChanged := n.CorrectAnswers != orig.CorrectAnswers || n.TotalQuestions != orig.TotalQuestions
	if answersChanged && n.Score == orig.Score {
		n.Score = null.Float64{}
	}
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}
