package school

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/user"
)

var (
	// errors
	ErrTeacherNotFound = core.NewNotFoundError("teacher")
	ErrCourseNotFound  = core.NewNotFoundError("course")
	ErrClassNotFound   = core.NewNotFoundError("class")
	ErrStudentNotFound = core.NewNotFoundError("student")
)

type (
	Repository interface {
		CreateTeacher(ctx context.Context, t Teacher, exec ...core.DBExecutor) (Teacher, error)
		QueryTeachers(ctx context.Context, filter *TeacherFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Teacher, int, error)
		GetTeacher(ctx context.Context, id int, exec ...core.DBExecutor) (Teacher, error)
		// TeacherExists reports whether the User already has a Teacher other than excludedID.
		TeacherExists(ctx context.Context, userID string, excludedID int, exec ...core.DBExecutor) (bool, error)
		UpdateTeacher(ctx context.Context, t Teacher, exec ...core.DBExecutor) (Teacher, error)
		DeleteTeacher(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, int, error)
		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateClass(ctx context.Context, c Class, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, filter *ClassFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Class, int, error)
		GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (Class, error)
		CountClassesByCourse(ctx context.Context, courseID int, exec ...core.DBExecutor) (int, error)
		UpdateClass(ctx context.Context, c Class, exec ...core.DBExecutor) (Class, error)
		DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, int, error)
		GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		// StudentIDExists reports whether the student ID is taken by a Student other than excludedID.
		StudentIDExists(ctx context.Context, studentID string, excludedID int, exec ...core.DBExecutor) (bool, error)
		CountStudentsByClass(ctx context.Context, classID int, exec ...core.DBExecutor) (int, error)
		UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
		DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	// UserGetter finds the Users referenced by Teachers.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service interface {
		CreateTeacher(ctx context.Context, data TeacherData) (Teacher, error)
		QueryTeachers(ctx context.Context, filter *TeacherFilter, ordering []core.DBOrdering) ([]Teacher, int, error)
		GetTeacher(ctx context.Context, id int) (Teacher, error)
		UpdateTeacher(ctx context.Context, id int, data TeacherData) (Teacher, error)
		DeleteTeacher(ctx context.Context, id int) error

		CreateCourse(ctx context.Context, data CourseData) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering) ([]Course, int, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		UpdateCourse(ctx context.Context, id int, data CourseData) (Course, error)
		DeleteCourse(ctx context.Context, id int) error

		CreateClass(ctx context.Context, data ClassData) (Class, error)
		QueryClasses(ctx context.Context, filter *ClassFilter, ordering []core.DBOrdering) ([]Class, int, error)
		GetClass(ctx context.Context, id int) (Class, error)
		UpdateClass(ctx context.Context, id int, data ClassData) (Class, error)
		DeleteClass(ctx context.Context, id int) error

		CreateStudent(ctx context.Context, data StudentData) (Student, error)
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering) ([]Student, int, error)
		GetStudent(ctx context.Context, id int) (Student, error)
		UpdateStudent(ctx context.Context, id int, data StudentData) (Student, error)
		DeleteStudent(ctx context.Context, id int) error
	}

	service struct {
		db       core.DB
		repo     Repository
		users    UserGetter
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, users UserGetter, validate *validator.Validate) Service {
	return &service{
		db:       db,
		repo:     repo,
		users:    users,
		validate: validate,
	}
}

func orderingOrDefault(ordering []core.DBOrdering, allowed []string, def []core.DBOrdering) []core.DBOrdering {
	if ord := core.CleanOrdering(ordering, allowed...); len(ord) > 0 {
		return ord
	}
	return def
}

// Teachers

func (svc *service) checkTeacher(ctx context.Context, exec core.DBExecutor, data TeacherData, excludedID int) error {
	if _, err := svc.users.GetByID(ctx, data.User); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "user", Error: "user not found"})
		}
		return errors.Wrap(err, "finding user")
	}
	exists, err := svc.repo.TeacherExists(ctx, data.User, excludedID, exec)
	if err != nil {
		return errors.Wrap(err, "checking teacher uniqueness")
	}
	if exists {
		return core.NewUniqueConstraintError("teacher", "user")
	}
	return nil
}

func (svc *service) CreateTeacher(ctx context.Context, data TeacherData) (Teacher, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}

	var t Teacher
	err := core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if err := svc.checkTeacher(ctx, exec, data, 0); err != nil {
			return err
		}
		var err error
		t, err = svc.repo.CreateTeacher(ctx, Teacher{UserID: data.User, IsActive: *data.IsActive}, exec)
		return err
	})
	return t, err
}

func (svc *service) QueryTeachers(ctx context.Context, filter *TeacherFilter, ordering []core.DBOrdering) ([]Teacher, int, error) {
	return svc.repo.QueryTeachers(ctx, filter, orderingOrDefault(ordering, TeacherOrderingFields, DefaultTeacherOrdering))
}

func (svc *service) GetTeacher(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *service) UpdateTeacher(ctx context.Context, id int, data TeacherData) (Teacher, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Teacher{}, err
	}

	var t Teacher
	err := core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		orig, err := svc.repo.GetTeacher(ctx, id, exec)
		if err != nil {
			return err
		}
		if err = svc.checkTeacher(ctx, exec, data, orig.ID); err != nil {
			return err
		}
		orig.UserID = data.User
		orig.IsActive = *data.IsActive
		t, err = svc.repo.UpdateTeacher(ctx, orig, exec)
		return err
	})
	return t, err
}

func (svc *service) DeleteTeacher(ctx context.Context, id int) error {
	return svc.repo.DeleteTeacher(ctx, id)
}

// Courses

func (svc *service) CreateCourse(ctx context.Context, data CourseData) (Course, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	return svc.repo.CreateCourse(ctx, Course{Name: data.Name, IsActive: *data.IsActive})
}

func (svc *service) QueryCourses(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering) ([]Course, int, error) {
	return svc.repo.QueryCourses(ctx, filter, orderingOrDefault(ordering, CourseOrderingFields, DefaultCourseOrdering))
}

func (svc *service) GetCourse(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) UpdateCourse(ctx context.Context, id int, data CourseData) (Course, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	return svc.repo.UpdateCourse(ctx, Course{ID: id, Name: data.Name, IsActive: *data.IsActive})
}

// DeleteCourse fails with a core.ReferentialIntegrityError while a Class references the Course.
func (svc *service) DeleteCourse(ctx context.Context, id int) error {
	return core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetCourse(ctx, id, exec); err != nil {
			return err
		}
		cnt, err := svc.repo.CountClassesByCourse(ctx, id, exec)
		if err != nil {
			return errors.Wrap(err, "counting classes")
		}
		if cnt > 0 {
			return core.NewReferentialIntegrityError("course", "classes", cnt)
		}
		return svc.repo.DeleteCourse(ctx, id, exec)
	})
}

// Classes

func (svc *service) checkClass(ctx context.Context, exec core.DBExecutor, data ClassData) error {
	if _, err := svc.repo.GetCourse(ctx, data.Course, exec); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "course", Error: "course not found"})
		}
		return errors.Wrap(err, "finding course")
	}
	if len(data.Teachers) > 0 {
		teachers, _, err := svc.repo.QueryTeachers(ctx, &TeacherFilter{IDs: data.Teachers}, nil, exec)
		if err != nil {
			return errors.Wrap(err, "finding teachers")
		}
		if len(teachers) != len(data.Teachers) {
			return core.NewValidationError(
				errors.New("unknown teachers"),
				core.FieldError{Field: "teachers", Error: "one or more teachers not found"},
			)
		}
	}
	return nil
}

func (svc *service) CreateClass(ctx context.Context, data ClassData) (Class, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Class{}, err
	}

	var c Class
	err := core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if err := svc.checkClass(ctx, exec, data); err != nil {
			return err
		}
		var err error
		c, err = svc.repo.CreateClass(ctx, Class{
			CourseID:   data.Course,
			Name:       data.Name,
			TeacherIDs: data.Teachers,
			StartDate:  data.StartDate,
			EndDate:    data.EndDate,
			IsActive:   *data.IsActive,
		}, exec)
		return err
	})
	return c, err
}

func (svc *service) QueryClasses(ctx context.Context, filter *ClassFilter, ordering []core.DBOrdering) ([]Class, int, error) {
	return svc.repo.QueryClasses(ctx, filter, orderingOrDefault(ordering, ClassOrderingFields, DefaultClassOrdering))
}

func (svc *service) GetClass(ctx context.Context, id int) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) UpdateClass(ctx context.Context, id int, data ClassData) (Class, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Class{}, err
	}

	var c Class
	err := core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetClass(ctx, id, exec); err != nil {
			return err
		}
		if err := svc.checkClass(ctx, exec, data); err != nil {
			return err
		}
		var err error
		c, err = svc.repo.UpdateClass(ctx, Class{
			ID:         id,
			CourseID:   data.Course,
			Name:       data.Name,
			TeacherIDs: data.Teachers,
			StartDate:  data.StartDate,
			EndDate:    data.EndDate,
			IsActive:   *data.IsActive,
		}, exec)
		return err
	})
	return c, err
}

// DeleteClass fails with a core.ReferentialIntegrityError while a Student references the Class as current class.
func (svc *service) DeleteClass(ctx context.Context, id int) error {
	return core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetClass(ctx, id, exec); err != nil {
			return err
		}
		cnt, err := svc.repo.CountStudentsByClass(ctx, id, exec)
		if err != nil {
			return errors.Wrap(err, "counting students")
		}
		if cnt > 0 {
			return core.NewReferentialIntegrityError("class", "students", cnt)
		}
		return svc.repo.DeleteClass(ctx, id, exec)
	})
}

// Students

func (svc *service) checkStudent(ctx context.Context, exec core.DBExecutor, data StudentData, excludedID int) error {
	if data.CurrentClass.Valid {
		if _, err := svc.repo.GetClass(ctx, data.CurrentClass.Int, exec); err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(err, core.FieldError{Field: "current_class", Error: "class not found"})
			}
			return errors.Wrap(err, "finding class")
		}
	}
	exists, err := svc.repo.StudentIDExists(ctx, data.StudentID, excludedID, exec)
	if err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if exists {
		return core.NewUniqueConstraintError("student", "student_id")
	}
	return nil
}

func (data StudentData) student(id int) Student {
	return Student{
		ID:              id,
		StudentID:       data.StudentID,
		FirstName:       data.FirstName,
		LastName:        data.LastName,
		Nickname:        data.Nickname,
		CurrentClassID:  data.CurrentClass,
		StartDate:       data.StartDate,
		Participation:   data.Participation,
		TeacherComments: data.TeacherComments,
		IsActive:        *data.IsActive,
	}
}

func (svc *service) CreateStudent(ctx context.Context, data StudentData) (Student, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Student{}, err
	}

	var s Student
	err := core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if err := svc.checkStudent(ctx, exec, data, 0); err != nil {
			return err
		}
		var err error
		s, err = svc.repo.CreateStudent(ctx, data.student(0), exec)
		return err
	})
	return s, err
}

func (svc *service) QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering) ([]Student, int, error) {
	return svc.repo.QueryStudents(ctx, filter, orderingOrDefault(ordering, StudentOrderingFields, DefaultStudentOrdering))
}

func (svc *service) GetStudent(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) UpdateStudent(ctx context.Context, id int, data StudentData) (Student, error) {
	if err := data.Validate(svc.validate); err != nil {
		return Student{}, err
	}

	var s Student
	err := core.Transact(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetStudent(ctx, id, exec); err != nil {
			return err
		}
		if err := svc.checkStudent(ctx, exec, data, id); err != nil {
			return err
		}
		var err error
		s, err = svc.repo.UpdateStudent(ctx, data.student(id), exec)
		return err
	})
	return s, err
}

// DeleteStudent deletes the Student along with their assessments.
func (svc *service) DeleteStudent(ctx context.Context, id int) error {
	return svc.repo.DeleteStudent(ctx, id)
}
