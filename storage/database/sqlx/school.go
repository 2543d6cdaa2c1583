package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/school"
)

var (
	teacherColumns = map[string]string{
		"id":         "t.id",
		"is_active":  "t.is_active",
		"first_name": "u.first_name",
		"last_name":  "u.last_name",
		"email":      "u.email",
	}
	courseColumns = map[string]string{
		"id":        "id",
		"name":      "name",
		"is_active": "is_active",
	}
	classColumns = map[string]string{
		"id":         "c.id",
		"name":       "c.name",
		"course":     "c.course_id",
		"start_date": "c.start_date",
		"end_date":   "c.end_date",
		"is_active":  "c.is_active",
	}
	studentColumns = map[string]string{
		"id":            "s.id",
		"student_id":    "s.student_id",
		"first_name":    "s.first_name",
		"last_name":     "s.last_name",
		"nickname":      "s.nickname",
		"current_class": "s.current_class_id",
		"start_date":    "s.start_date",
		"is_active":     "s.is_active",
	}
)

type schoolRepository struct {
	repository
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) school.Repository {
	return &schoolRepository{repository{exec: exec}}
}

// Teachers

func teachersQuery(cols ...string) sq.SelectBuilder {
	if len(cols) == 0 {
		cols = []string{"t.id", "t.user_id", "t.is_active", "u.first_name", "u.last_name", "u.email"}
	}
	return psql.Select(cols...).From("teacher t").Join(`"user" u ON u.id = t.user_id`)
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.Teacher, exec ...core.DBExecutor) (school.Teacher, error) {
	var id int
	q := psql.Insert("teacher").Columns("user_id", "is_active").Values(t.UserID, t.IsActive).Suffix("RETURNING id")
	if err := repo.get(ctx, repo.getExec(exec), &id, q); err != nil {
		return school.Teacher{}, mapError(err, "teacher", "inserting teacher")
	}
	return repo.GetTeacher(ctx, id, exec...)
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context, filter *school.TeacherFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Teacher, int, error) {
	if filter == nil {
		filter = new(school.TeacherFilter)
	}
	where := sq.And{}
	if filter.Search != "" {
		where = append(where, ilike(filter.Search, "u.first_name", "u.last_name", "u.email"))
	}
	if filter.IsActive != nil {
		where = append(where, sq.Eq{"t.is_active": *filter.IsActive})
	}
	if len(filter.IDs) > 0 {
		where = append(where, sq.Eq{"t.id": filter.IDs})
	}

	ex := repo.getExec(exec)
	total, err := repo.count(ctx, ex, teachersQuery("COUNT(*)").Where(where))
	if err != nil {
		return nil, 0, mapError(err, "teacher", "counting teachers")
	}

	q := teachersQuery().Where(where).OrderBy(append(orderBy(ordering, teacherColumns), "t.id")...)
	teachers := make([]school.Teacher, 0)
	if err = repo.selectAll(ctx, ex, &teachers, paginate(q, filter.Page)); err != nil {
		return nil, 0, mapError(err, "teacher", "selecting teachers")
	}
	return teachers, total, nil
}

func (repo *schoolRepository) GetTeacher(ctx context.Context, id int, exec ...core.DBExecutor) (school.Teacher, error) {
	var t school.Teacher
	if err := repo.get(ctx, repo.getExec(exec), &t, teachersQuery().Where(sq.Eq{"t.id": id})); err != nil {
		return school.Teacher{}, trapNoRowsErr(err, school.ErrTeacherNotFound, "selecting teacher")
	}
	return t, nil
}

func (repo *schoolRepository) TeacherExists(ctx context.Context, userID string, excludedID int, exec ...core.DBExecutor) (bool, error) {
	q := psql.Select("1").From("teacher").Where(sq.Eq{"user_id": userID}).Where(sq.NotEq{"id": excludedID})
	exists, err := repo.exists(ctx, repo.getExec(exec), q)
	return exists, mapError(err, "teacher", "checking teacher existence")
}

func (repo *schoolRepository) UpdateTeacher(ctx context.Context, t school.Teacher, exec ...core.DBExecutor) (school.Teacher, error) {
	q := psql.Update("teacher").Set("user_id", t.UserID).Set("is_active", t.IsActive).Where(sq.Eq{"id": t.ID})
	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return school.Teacher{}, mapError(err, "teacher", "updating teacher")
	}
	if n == 0 {
		return school.Teacher{}, school.ErrTeacherNotFound
	}
	return repo.GetTeacher(ctx, t.ID, exec...)
}

func (repo *schoolRepository) DeleteTeacher(ctx context.Context, id int, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, repo.getExec(exec), psql.Delete("teacher").Where(sq.Eq{"id": id}))
	if err != nil {
		return mapError(err, "teacher", "deleting teacher")
	}
	if n == 0 {
		return school.ErrTeacherNotFound
	}
	return nil
}

// Courses

func (repo *schoolRepository) CreateCourse(ctx context.Context, c school.Course, exec ...core.DBExecutor) (school.Course, error) {
	q := psql.Insert("course").Columns("name", "is_active").Values(c.Name, c.IsActive).Suffix("RETURNING id")
	if err := repo.get(ctx, repo.getExec(exec), &c.ID, q); err != nil {
		return school.Course{}, mapError(err, "course", "inserting course")
	}
	return c, nil
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, filter *school.CourseFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Course, int, error) {
	if filter == nil {
		filter = new(school.CourseFilter)
	}
	where := sq.And{}
	if filter.Search != "" {
		// the names are codes, Search matches their labels too
		names := filter.SearchNames()
		if len(names) == 0 {
			return []school.Course{}, 0, nil
		}
		where = append(where, sq.Eq{"name": names})
	}
	if filter.Name != "" {
		where = append(where, sq.Eq{"name": filter.Name})
	}
	if filter.IsActive != nil {
		where = append(where, sq.Eq{"is_active": *filter.IsActive})
	}

	ex := repo.getExec(exec)
	total, err := repo.count(ctx, ex, psql.Select("COUNT(*)").From("course").Where(where))
	if err != nil {
		return nil, 0, mapError(err, "course", "counting courses")
	}

	q := psql.Select("*").From("course").Where(where).OrderBy(append(orderBy(ordering, courseColumns), "id")...)
	courses := make([]school.Course, 0)
	if err = repo.selectAll(ctx, ex, &courses, paginate(q, filter.Page)); err != nil {
		return nil, 0, mapError(err, "course", "selecting courses")
	}
	return courses, total, nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (school.Course, error) {
	var c school.Course
	if err := repo.get(ctx, repo.getExec(exec), &c, psql.Select("*").From("course").Where(sq.Eq{"id": id})); err != nil {
		return school.Course{}, trapNoRowsErr(err, school.ErrCourseNotFound, "selecting course")
	}
	return c, nil
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, c school.Course, exec ...core.DBExecutor) (school.Course, error) {
	q := psql.Update("course").Set("name", c.Name).Set("is_active", c.IsActive).Where(sq.Eq{"id": c.ID})
	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return school.Course{}, mapError(err, "course", "updating course")
	}
	if n == 0 {
		return school.Course{}, school.ErrCourseNotFound
	}
	return c, nil
}

func (repo *schoolRepository) DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, repo.getExec(exec), psql.Delete("course").Where(sq.Eq{"id": id}))
	if err != nil {
		return mapError(err, "course", "deleting course")
	}
	if n == 0 {
		return school.ErrCourseNotFound
	}
	return nil
}

// Classes

// classRow is a Class joined with its Course.
type classRow struct {
	school.Class
	CourseName     string `db:"course_name"`
	CourseIsActive bool   `db:"course_is_active"`
}

func classesQuery(cols ...string) sq.SelectBuilder {
	if len(cols) == 0 {
		cols = []string{
			"c.id", "c.course_id", "c.name", "c.start_date", "c.end_date", "c.is_active",
			"co.name AS course_name", "co.is_active AS course_is_active",
		}
	}
	return psql.Select(cols...).From("class c").Join("course co ON co.id = c.course_id")
}

// selectClasses selects the Classes with their Course & Teachers.
func (repo *schoolRepository) selectClasses(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) ([]school.Class, error) {
	var rows []classRow
	if err := repo.selectAll(ctx, exec, &rows, q); err != nil {
		return nil, err
	}

	classes := make([]school.Class, 0, len(rows))
	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		c := row.Class
		c.Course = school.Course{ID: c.CourseID, Name: row.CourseName, IsActive: row.CourseIsActive}
		c.TeacherIDs = []int{}
		classes = append(classes, c)
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return classes, nil
	}

	var links []struct {
		ClassID   int `db:"class_id"`
		TeacherID int `db:"teacher_id"`
	}
	lq := psql.Select("class_id", "teacher_id").From("class_teacher").Where(sq.Eq{"class_id": ids}).OrderBy("teacher_id")
	if err := repo.selectAll(ctx, exec, &links, lq); err != nil {
		return nil, err
	}
	teachers := make(map[int][]int, len(ids))
	for _, l := range links {
		teachers[l.ClassID] = append(teachers[l.ClassID], l.TeacherID)
	}
	for i := range classes {
		if tids, ok := teachers[classes[i].ID]; ok {
			classes[i].TeacherIDs = tids
		}
	}
	return classes, nil
}

// setTeachers replaces the Teachers of the Class.
func (repo *schoolRepository) setTeachers(ctx context.Context, exec core.DBExecutor, classID int, teacherIDs []int) error {
	if _, err := repo.execute(ctx, exec, psql.Delete("class_teacher").Where(sq.Eq{"class_id": classID})); err != nil {
		return err
	}
	if len(teacherIDs) == 0 {
		return nil
	}
	q := psql.Insert("class_teacher").Columns("class_id", "teacher_id").Suffix("ON CONFLICT DO NOTHING")
	for _, tid := range teacherIDs {
		q = q.Values(classID, tid)
	}
	_, err := repo.execute(ctx, exec, q)
	return err
}

func (repo *schoolRepository) CreateClass(ctx context.Context, c school.Class, exec ...core.DBExecutor) (school.Class, error) {
	ex := repo.getExec(exec)
	q := psql.Insert("class").
		Columns("course_id", "name", "start_date", "end_date", "is_active").
		Values(c.CourseID, c.Name, c.StartDate, c.EndDate, c.IsActive).
		Suffix("RETURNING id")
	if err := repo.get(ctx, ex, &c.ID, q); err != nil {
		return school.Class{}, mapError(err, "class", "inserting class")
	}
	if err := repo.setTeachers(ctx, ex, c.ID, c.TeacherIDs); err != nil {
		return school.Class{}, mapError(err, "class", "inserting class teachers")
	}
	return repo.GetClass(ctx, c.ID, ex)
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter *school.ClassFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Class, int, error) {
	if filter == nil {
		filter = new(school.ClassFilter)
	}
	where := func(q sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "c.name"))
		}
		if filter.Course != 0 {
			q = q.Where(sq.Eq{"c.course_id": filter.Course})
		}
		if filter.Teacher != 0 {
			q = q.Where("EXISTS (SELECT 1 FROM class_teacher ct WHERE ct.class_id = c.id AND ct.teacher_id = ?)", filter.Teacher)
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"c.is_active": *filter.IsActive})
		}
		q = dateHierarchy(q, "c.start_date", filter.DateHierarchy)
		return dateRange(q, "c.start_date", filter.StartDateFrom, filter.StartDateTo)
	}

	ex := repo.getExec(exec)
	total, err := repo.count(ctx, ex, where(classesQuery("COUNT(*)")))
	if err != nil {
		return nil, 0, mapError(err, "class", "counting classes")
	}

	q := where(classesQuery()).OrderBy(append(orderBy(ordering, classColumns), "c.id")...)
	classes, err := repo.selectClasses(ctx, ex, paginate(q, filter.Page))
	if err != nil {
		return nil, 0, mapError(err, "class", "selecting classes")
	}
	return classes, total, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id int, exec ...core.DBExecutor) (school.Class, error) {
	classes, err := repo.selectClasses(ctx, repo.getExec(exec), classesQuery().Where(sq.Eq{"c.id": id}))
	if err != nil {
		return school.Class{}, mapError(err, "class", "selecting class")
	}
	if len(classes) == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return classes[0], nil
}

func (repo *schoolRepository) CountClassesByCourse(ctx context.Context, courseID int, exec ...core.DBExecutor) (int, error) {
	cnt, err := repo.count(ctx, repo.getExec(exec), psql.Select("COUNT(*)").From("class").Where(sq.Eq{"course_id": courseID}))
	return cnt, mapError(err, "class", "counting classes")
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, c school.Class, exec ...core.DBExecutor) (school.Class, error) {
	ex := repo.getExec(exec)
	q := psql.Update("class").
		SetMap(map[string]interface{}{
			"course_id":  c.CourseID,
			"name":       c.Name,
			"start_date": c.StartDate,
			"end_date":   c.EndDate,
			"is_active":  c.IsActive,
		}).
		Where(sq.Eq{"id": c.ID})
	n, err := repo.execute(ctx, ex, q)
	if err != nil {
		return school.Class{}, mapError(err, "class", "updating class")
	}
	if n == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	if err = repo.setTeachers(ctx, ex, c.ID, c.TeacherIDs); err != nil {
		return school.Class{}, mapError(err, "class", "updating class teachers")
	}
	return repo.GetClass(ctx, c.ID, ex)
}

func (repo *schoolRepository) DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, repo.getExec(exec), psql.Delete("class").Where(sq.Eq{"id": id}))
	if err != nil {
		return mapError(err, "class", "deleting class")
	}
	if n == 0 {
		return school.ErrClassNotFound
	}
	return nil
}

// Students

func studentsQuery(cols ...string) sq.SelectBuilder {
	if len(cols) == 0 {
		cols = []string{"s.*"}
	}
	return psql.Select(cols...).From("student s")
}

// selectStudents selects the Students with their current Class.
func (repo *schoolRepository) selectStudents(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) ([]school.Student, error) {
	students := make([]school.Student, 0)
	if err := repo.selectAll(ctx, exec, &students, q); err != nil {
		return nil, err
	}

	var classIDs []int
	for _, s := range students {
		if s.CurrentClassID.Valid {
			classIDs = append(classIDs, s.CurrentClassID.Int)
		}
	}
	if len(classIDs) == 0 {
		return students, nil
	}

	classes, err := repo.selectClasses(ctx, exec, classesQuery().Where(sq.Eq{"c.id": classIDs}))
	if err != nil {
		return nil, err
	}
	byID := make(map[int]school.Class, len(classes))
	for _, c := range classes {
		byID[c.ID] = c
	}
	for i, s := range students {
		if c, ok := byID[s.CurrentClassID.Int]; ok && s.CurrentClassID.Valid {
			students[i].CurrentClass = &c
		}
	}
	return students, nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, s school.Student, exec ...core.DBExecutor) (school.Student, error) {
	ex := repo.getExec(exec)
	q := psql.Insert("student").
		Columns("student_id", "first_name", "last_name", "nickname", "current_class_id", "start_date", "participation", "teacher_comments", "is_active").
		Values(s.StudentID, s.FirstName, s.LastName, s.Nickname, s.CurrentClassID, s.StartDate, s.Participation, s.TeacherComments, s.IsActive).
		Suffix("RETURNING id")
	if err := repo.get(ctx, ex, &s.ID, q); err != nil {
		return school.Student{}, mapError(err, "student", "inserting student")
	}
	return repo.GetStudent(ctx, s.ID, ex)
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter *school.StudentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Student, int, error) {
	if filter == nil {
		filter = new(school.StudentFilter)
	}
	where := func(q sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "s.student_id", "s.first_name", "s.last_name", "s.nickname"))
		}
		if filter.CurrentClass != 0 {
			q = q.Where(sq.Eq{"s.current_class_id": filter.CurrentClass})
		}
		if filter.Course != 0 {
			q = q.Where("s.current_class_id IN (SELECT id FROM class WHERE course_id = ?)", filter.Course)
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"s.is_active": *filter.IsActive})
		}
		q = dateHierarchy(q, "s.start_date", filter.DateHierarchy)
		return dateRange(q, "s.start_date", filter.StartDateFrom, filter.StartDateTo)
	}

	ex := repo.getExec(exec)
	total, err := repo.count(ctx, ex, where(studentsQuery("COUNT(*)")))
	if err != nil {
		return nil, 0, mapError(err, "student", "counting students")
	}

	q := where(studentsQuery()).OrderBy(append(orderBy(ordering, studentColumns), "s.id")...)
	students, err := repo.selectStudents(ctx, ex, paginate(q, filter.Page))
	if err != nil {
		return nil, 0, mapError(err, "student", "selecting students")
	}
	return students, total, nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (school.Student, error) {
	students, err := repo.selectStudents(ctx, repo.getExec(exec), studentsQuery().Where(sq.Eq{"s.id": id}))
	if err != nil {
		return school.Student{}, mapError(err, "student", "selecting student")
	}
	if len(students) == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return students[0], nil
}

func (repo *schoolRepository) StudentIDExists(ctx context.Context, studentID string, excludedID int, exec ...core.DBExecutor) (bool, error) {
	q := psql.Select("1").From("student").Where(sq.Eq{"student_id": studentID}).Where(sq.NotEq{"id": excludedID})
	exists, err := repo.exists(ctx, repo.getExec(exec), q)
	return exists, mapError(err, "student", "checking student ID existence")
}

func (repo *schoolRepository) CountStudentsByClass(ctx context.Context, classID int, exec ...core.DBExecutor) (int, error) {
	q := psql.Select("COUNT(*)").From("student").Where(sq.Eq{"current_class_id": classID})
	cnt, err := repo.count(ctx, repo.getExec(exec), q)
	return cnt, mapError(err, "student", "counting students")
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s school.Student, exec ...core.DBExecutor) (school.Student, error) {
	ex := repo.getExec(exec)
	q := psql.Update("student").
		SetMap(map[string]interface{}{
			"student_id":       s.StudentID,
			"first_name":       s.FirstName,
			"last_name":        s.LastName,
			"nickname":         s.Nickname,
			"current_class_id": s.CurrentClassID,
			"start_date":       s.StartDate,
			"participation":    s.Participation,
			"teacher_comments": s.TeacherComments,
			"is_active":        s.IsActive,
		}).
		Where(sq.Eq{"id": s.ID})
	n, err := repo.execute(ctx, ex, q)
	if err != nil {
		return school.Student{}, mapError(err, "student", "updating student")
	}
	if n == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return repo.GetStudent(ctx, s.ID, ex)
}

// DeleteStudent deletes the Student along with its assessments.
func (repo *schoolRepository) DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, repo.getExec(exec), psql.Delete("student").Where(sq.Eq{"id": id}))
	if err != nil {
		return mapError(err, "student", "deleting student")
	}
	if n == 0 {
		return school.ErrStudentNotFound
	}
	return nil
}
