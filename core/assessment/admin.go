package assessment

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/admin"
	"github.com/trezcool/rors/core/user"
)

// RegisterAdmin registers the numeric & graded assessments admins to the site.
func RegisterAdmin(site *admin.Site, svc Service) {
	site.Register(numericAdmin(svc))
	site.Register(gradedAdmin(svc))
}

func numericAdmin(svc Service) *admin.ModelAdmin {
	ma := newModelAdmin(svc, KindNumeric)
	ma.Name = "numeric-assessments"
	ma.VerboseName = "numeric assessment"
	ma.ListDisplay = []string{"student", "skill", "week", "score", "status", "submission_date"}
	ma.ListFilter = []string{"skill", "status", "week", "submission_date"}
	ma.SearchFields = []string{"student__first_name", "student__last_name", "student__student_id"}
	ma.ReadonlyFields = []string{"score"}
	ma.ReadonlyFieldsFunc = func(obj interface{}) []string {
		if obj.(Record).Base().IsCompleted() {
			return []string{"correct_answers", "total_questions"}
		}
		return nil
	}
	return ma
}

func gradedAdmin(svc Service) *admin.ModelAdmin {
	ma := newModelAdmin(svc, KindGraded)
	ma.Name = "graded-assessments"
	ma.VerboseName = "graded assessment"
	ma.ListDisplay = []string{"student", "skill", "week", "grade", "status", "submission_date"}
	ma.ListFilter = []string{"skill", "status", "grade", "week", "submission_date"}
	ma.SearchFields = []string{"student__first_name", "student__last_name", "student__student_id", "comments"}
	ma.ReadonlyFieldsFunc = func(obj interface{}) []string {
		if obj.(Record).Base().IsCompleted() {
			return []string{"grade"}
		}
		return nil
	}
	return ma
}

func newModelAdmin(svc Service, kind string) *admin.ModelAdmin {
	return &admin.ModelAdmin{
		DateHierarchy: "submission_date",
		Ordering:      []string{"student", "week", "skill"},
		Display:       display,
		Backend: admin.Backend{
			List: func(ctx context.Context, req admin.ListRequest) ([]interface{}, int, error) {
				filter, err := listFilter(kind, req)
				if err != nil {
					return nil, 0, err
				}
				recs, total, err := svc.Query(ctx, filter, req.Ordering)
				if err != nil {
					return nil, 0, err
				}
				objs := make([]interface{}, 0, len(recs))
				for _, rec := range recs {
					objs = append(objs, rec)
				}
				return objs, total, nil
			},
			Get: func(ctx context.Context, id int) (interface{}, error) {
				rec, err := svc.Get(ctx, id)
				if err != nil {
					return nil, err
				}
				if rec.Kind() != kind {
					return nil, ErrNotFound
				}
				return rec, nil
			},
			Create: func(ctx context.Context, raw json.RawMessage, by user.User) (interface{}, error) {
				data := Data{Kind: kind}
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				data.Kind = kind
				return svc.Create(ctx, data, by)
			},
			Update: func(ctx context.Context, obj interface{}, raw json.RawMessage, _ user.User) (interface{}, error) {
				rec := obj.(Record)
				data := rec.Data()
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				data.Kind = kind
				return svc.Update(ctx, rec.Base().ID, data)
			},
			Delete: func(ctx context.Context, id int) error {
				rec, err := svc.Get(ctx, id)
				if err != nil {
					return err
				}
				if rec.Kind() != kind {
					return ErrNotFound
				}
				return svc.Delete(ctx, id)
			},
		},
	}
}

func listFilter(kind string, req admin.ListRequest) (*Filter, error) {
	filter := &Filter{
		Page:          req.Page,
		DateHierarchy: req.Hierarchy,
		Kind:          kind,
		Search:        req.Search,
		Skill:         req.Filters.String("skill"),
		Status:        req.Filters.String("status"),
		Grade:         req.Filters.String("grade"),
	}
	var err error
	if filter.Week, err = req.Filters.Int("week"); err != nil {
		return nil, err
	}
	if period := req.Filters.String("submission_date"); period != "" {
		if err = filter.SetPeriod(period, core.Today()); err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "submission_date", Error: err.Error()})
		}
	}
	return filter, nil
}

func display(obj interface{}, field string) interface{} {
	rec := obj.(Record)
	base := rec.Base()
	switch field {
	case "student":
		if base.Student != nil {
			return base.Student.String()
		}
		return base.StudentID
	case "skill":
		return SkillLabel(base.Skill)
	case "week":
		return base.Week
	case "status":
		return base.StatusDisplay()
	case "submission_date":
		return base.SubmissionDate
	case "score":
		if n, ok := rec.(*Numeric); ok && n.Score.Valid {
			return n.Score.Float64
		}
		return ""
	case "grade":
		if g, ok := rec.(*Graded); ok {
			return g.GradeDisplay()
		}
		return ""
	}
	return nil
}

func decodeData(raw json.RawMessage, data *Data) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return core.NewValidationError(errors.Wrap(err, "invalid data"))
	}
	return nil
}
