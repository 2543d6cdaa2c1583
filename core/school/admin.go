package school

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/admin"
	"github.com/trezcool/rors/core/user"
)

// RegisterAdmin registers the teachers, courses, classes & students admins to the site.
func RegisterAdmin(site *admin.Site, svc Service) {
	site.Register(teacherAdmin(svc))
	site.Register(courseAdmin(svc))
	site.Register(classAdmin(svc))
	site.Register(studentAdmin(svc))
}

func decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return core.NewValidationError(errors.Wrap(err, "invalid data"))
	}
	return nil
}

func activeParam(req admin.ListRequest) (*bool, error) {
	return req.Filters.Bool("is_active")
}

func teacherAdmin(svc Service) *admin.ModelAdmin {
	return &admin.ModelAdmin{
		Name:         "teachers",
		VerboseName:  "teacher",
		ListDisplay:  []string{"user", "is_active"},
		ListFilter:   []string{"is_active"},
		SearchFields: []string{"user__first_name", "user__last_name", "user__email"},
		Display: func(obj interface{}, field string) interface{} {
			t := obj.(Teacher)
			switch field {
			case "user":
				return t.String()
			case "is_active":
				return t.IsActive
			}
			return nil
		},
		Backend: admin.Backend{
			List: func(ctx context.Context, req admin.ListRequest) ([]interface{}, int, error) {
				isActive, err := activeParam(req)
				if err != nil {
					return nil, 0, err
				}
				filter := &TeacherFilter{Page: req.Page, Search: req.Search, IsActive: isActive}
				teachers, total, err := svc.QueryTeachers(ctx, filter, req.Ordering)
				if err != nil {
					return nil, 0, err
				}
				objs := make([]interface{}, 0, len(teachers))
				for _, t := range teachers {
					objs = append(objs, t)
				}
				return objs, total, nil
			},
			Get: func(ctx context.Context, id int) (interface{}, error) {
				return svc.GetTeacher(ctx, id)
			},
			Create: func(ctx context.Context, raw json.RawMessage, _ user.User) (interface{}, error) {
				var data TeacherData
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.CreateTeacher(ctx, data)
			},
			Update: func(ctx context.Context, obj interface{}, raw json.RawMessage, _ user.User) (interface{}, error) {
				t := obj.(Teacher)
				data := t.Data()
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.UpdateTeacher(ctx, t.ID, data)
			},
			Delete: func(ctx context.Context, id int) error {
				return svc.DeleteTeacher(ctx, id)
			},
		},
	}
}

func courseAdmin(svc Service) *admin.ModelAdmin {
	return &admin.ModelAdmin{
		Name:         "courses",
		VerboseName:  "course",
		ListDisplay:  []string{"name", "name_display", "is_active"},
		ListFilter:   []string{"is_active"},
		SearchFields: []string{"name"},
		Labels:       map[string]string{"name_display": "Course"},
		Display: func(obj interface{}, field string) interface{} {
			c := obj.(Course)
			switch field {
			case "name":
				return c.Name
			case "name_display":
				return c.DisplayName()
			case "is_active":
				return c.IsActive
			}
			return nil
		},
		Backend: admin.Backend{
			List: func(ctx context.Context, req admin.ListRequest) ([]interface{}, int, error) {
				isActive, err := activeParam(req)
				if err != nil {
					return nil, 0, err
				}
				filter := &CourseFilter{Page: req.Page, Search: req.Search, IsActive: isActive}
				courses, total, err := svc.QueryCourses(ctx, filter, req.Ordering)
				if err != nil {
					return nil, 0, err
				}
				objs := make([]interface{}, 0, len(courses))
				for _, c := range courses {
					objs = append(objs, c)
				}
				return objs, total, nil
			},
			Get: func(ctx context.Context, id int) (interface{}, error) {
				return svc.GetCourse(ctx, id)
			},
			Create: func(ctx context.Context, raw json.RawMessage, _ user.User) (interface{}, error) {
				var data CourseData
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.CreateCourse(ctx, data)
			},
			Update: func(ctx context.Context, obj interface{}, raw json.RawMessage, _ user.User) (interface{}, error) {
				c := obj.(Course)
				data := c.Data()
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.UpdateCourse(ctx, c.ID, data)
			},
			Delete: func(ctx context.Context, id int) error {
				return svc.DeleteCourse(ctx, id)
			},
		},
	}
}

func classAdmin(svc Service) *admin.ModelAdmin {
	return &admin.ModelAdmin{
		Name:              "classes",
		VerboseName:       "class",
		VerboseNamePlural: "classes",
		ListDisplay:       []string{"name", "course", "start_date", "end_date", "is_active"},
		ListFilter:        []string{"course", "is_active"},
		SearchFields:      []string{"name"},
		DateHierarchy:     "start_date",
		Ordering:          []string{"start_date", "name"},
		Display: func(obj interface{}, field string) interface{} {
			c := obj.(Class)
			switch field {
			case "name":
				return c.Name
			case "course":
				return c.Course.String()
			case "start_date":
				return c.StartDate.String()
			case "end_date":
				return c.EndDate.String()
			case "is_active":
				return c.IsActive
			}
			return nil
		},
		Backend: admin.Backend{
			List: func(ctx context.Context, req admin.ListRequest) ([]interface{}, int, error) {
				isActive, err := activeParam(req)
				if err != nil {
					return nil, 0, err
				}
				course, err := req.Filters.Int("course")
				if err != nil {
					return nil, 0, err
				}
				filter := &ClassFilter{
					Page:          req.Page,
					DateHierarchy: req.Hierarchy,
					Search:        req.Search,
					Course:        course,
					IsActive:      isActive,
				}
				classes, total, err := svc.QueryClasses(ctx, filter, req.Ordering)
				if err != nil {
					return nil, 0, err
				}
				objs := make([]interface{}, 0, len(classes))
				for _, c := range classes {
					objs = append(objs, c)
				}
				return objs, total, nil
			},
			Get: func(ctx context.Context, id int) (interface{}, error) {
				return svc.GetClass(ctx, id)
			},
			Create: func(ctx context.Context, raw json.RawMessage, _ user.User) (interface{}, error) {
				var data ClassData
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.CreateClass(ctx, data)
			},
			Update: func(ctx context.Context, obj interface{}, raw json.RawMessage, _ user.User) (interface{}, error) {
				c := obj.(Class)
				data := c.Data()
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.UpdateClass(ctx, c.ID, data)
			},
			Delete: func(ctx context.Context, id int) error {
				return svc.DeleteClass(ctx, id)
			},
		},
	}
}

func studentAdmin(svc Service) *admin.ModelAdmin {
	return &admin.ModelAdmin{
		Name:          "students",
		VerboseName:   "student",
		ListDisplay:   []string{"student_id", "first_name", "last_name", "nickname", "current_class", "start_date", "is_active"},
		ListFilter:    []string{"current_class", "is_active"},
		SearchFields:  []string{"student_id", "first_name", "last_name", "nickname"},
		DateHierarchy: "start_date",
		Ordering:      []string{"student_id"},
		Fieldsets: []admin.Fieldset{
			{Name: "Basic Information", Fields: []string{"student_id", "first_name", "last_name", "nickname"}},
			{Name: "Class Information", Fields: []string{"current_class", "start_date", "is_active"}},
			{Name: "Additional Information", Fields: []string{"participation", "teacher_comments"}},
		},
		Labels: map[string]string{"student_id": "Student ID"},
		Display: func(obj interface{}, field string) interface{} {
			s := obj.(Student)
			switch field {
			case "student_id":
				return s.StudentID
			case "first_name":
				return s.FirstName
			case "last_name":
				return s.LastName
			case "nickname":
				return s.Nickname
			case "current_class":
				if s.CurrentClass != nil {
					return s.CurrentClass.String()
				}
				return ""
			case "start_date":
				return s.StartDate.String()
			case "is_active":
				return s.IsActive
			}
			return nil
		},
		Backend: admin.Backend{
			List: func(ctx context.Context, req admin.ListRequest) ([]interface{}, int, error) {
				isActive, err := activeParam(req)
				if err != nil {
					return nil, 0, err
				}
				class, err := req.Filters.Int("current_class")
				if err != nil {
					return nil, 0, err
				}
				filter := &StudentFilter{
					Page:          req.Page,
					DateHierarchy: req.Hierarchy,
					Search:        req.Search,
					CurrentClass:  class,
					IsActive:      isActive,
				}
				students, total, err := svc.QueryStudents(ctx, filter, req.Ordering)
				if err != nil {
					return nil, 0, err
				}
				objs := make([]interface{}, 0, len(students))
				for _, s := range students {
					objs = append(objs, s)
				}
				return objs, total, nil
			},
			Get: func(ctx context.Context, id int) (interface{}, error) {
				return svc.GetStudent(ctx, id)
			},
			Create: func(ctx context.Context, raw json.RawMessage, _ user.User) (interface{}, error) {
				var data StudentData
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.CreateStudent(ctx, data)
			},
			Update: func(ctx context.Context, obj interface{}, raw json.RawMessage, _ user.User) (interface{}, error) {
				s := obj.(Student)
				data := s.Data()
				if err := decodeData(raw, &data); err != nil {
					return nil, err
				}
				return svc.UpdateStudent(ctx, s.ID, data)
			},
			Delete: func(ctx context.Context, id int) error {
				return svc.DeleteStudent(ctx, id)
			},
		},
	}
}
