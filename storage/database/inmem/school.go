package inmemdb

import (
	"context"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

// Teachers

// loadTeacher copies the Teacher with the names of its User.
func (db *DB) loadTeacher(t *school.Teacher) school.Teacher {
	teacher := *t
	if usr, ok := db.users[t.UserID]; ok {
		teacher.FirstName = usr.FirstName
		teacher.LastName = usr.LastName
		teacher.Email = usr.Email
	}
	return teacher
}

// deleteTeacher deletes the Teacher & unassigns it from its Classes.
func (db *DB) deleteTeacher(id int) {
	delete(db.teachers, id)
	for _, c := range db.classes {
		ids := c.TeacherIDs[:0]
		for _, tid := range c.TeacherIDs {
			if tid != id {
				ids = append(ids, tid)
			}
		}
		c.TeacherIDs = ids
	}
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.Teacher, _ ...core.DBExecutor) (school.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, other := range repo.db.teachers {
		if other.UserID == t.UserID {
			return school.Teacher{}, core.NewUniqueConstraintError("teacher", "user")
		}
	}
	repo.db.teacherSeq++
	t.ID = repo.db.teacherSeq
	repo.db.teachers[t.ID] = &t
	return repo.db.loadTeacher(&t), nil
}

func (repo *schoolRepository) QueryTeachers(ctx context.Context, filter *school.TeacherFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]school.Teacher, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter == nil {
		filter = new(school.TeacherFilter)
	}
	var ids map[int]bool
	if len(filter.IDs) > 0 {
		ids = make(map[int]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	teachers := make([]school.Teacher, 0, len(repo.db.teachers))
	for _, t := range repo.db.teachers {
		teacher := repo.db.loadTeacher(t)
		if ids != nil && !ids[teacher.ID] {
			continue
		}
		if filter.IsActive != nil && teacher.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !core.ContainsFold(filter.Search, teacher.FirstName, teacher.LastName, teacher.Email) {
			continue
		}
		teachers = append(teachers, teacher)
	}

	orderSlice(teachers, ordering, func(i, j int, field string) int {
		a, b := teachers[i], teachers[j]
		switch field {
		case "id":
			return cmpInt(a.ID, b.ID)
		case "is_active":
			return cmpBool(a.IsActive, b.IsActive)
		case "first_name":
			return cmpStr(a.FirstName, b.FirstName)
		case "last_name":
			return cmpStr(a.LastName, b.LastName)
		case "email":
			return cmpStr(a.Email, b.Email)
		}
		return 0
	})
	start, end := filter.Page.Bounds(len(teachers))
	return teachers[start:end], len(teachers), nil
}

func (repo *schoolRepository) GetTeacher(ctx context.Context, id int, _ ...core.DBExecutor) (school.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return repo.db.loadTeacher(t), nil
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (repo *schoolRepository) TeacherExists(ctx context.Context, userID string, excludedID int, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, t := range repo.db.teachers {
		if t.UserID == userID && t.ID != excludedID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *schoolRepository) UpdateTeacher(ctx context.Context, t school.Teacher, _ ...core.DBExecutor) (school.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.teachers[t.ID]; !ok {
		return school.Teacher{}, school.ErrTeacherNotFound
	}
	repo.db.teachers[t.ID] = &t
	return repo.db.loadTeacher(&t), nil
}

func (repo *schoolRepository) DeleteTeacher(ctx context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.teachers[id]; !ok {
		return school.ErrTeacherNotFound
	}
	repo.db.deleteTeacher(id)
	return nil
}

// Courses

func (repo *schoolRepository) CreateCourse(ctx context.Context, c school.Course, _ ...core.DBExecutor) (school.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.courseSeq++
	c.ID = repo.db.courseSeq
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, filter *school.CourseFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]school.Course, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter == nil {
		filter = new(school.CourseFilter)
	}
	var names []string
	if filter.Search != "" {
		names = filter.SearchNames()
	}

	courses := make([]school.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter.Search != "" && !containsStr(names, c.Name) {
			continue
		}
		if filter.Name != "" && c.Name != filter.Name {
			continue
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		courses = append(courses, *c)
	}

	orderSlice(courses, ordering, func(i, j int, field string) int {
		a, b := courses[i], courses[j]
		switch field {
		case "id":
			return cmpInt(a.ID, b.ID)
		case "name":
			return cmpStr(a.Name, b.Name)
		case "is_active":
			return cmpBool(a.IsActive, b.IsActive)
		}
		return 0
	})
	start, end := filter.Page.Bounds(len(courses))
	return courses[start:end], len(courses), nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id int, _ ...core.DBExecutor) (school.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return school.Course{}, school.ErrCourseNotFound
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, c school.Course, _ ...core.DBExecutor) (school.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return school.Course{}, school.ErrCourseNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *schoolRepository) DeleteCourse(ctx context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return school.ErrCourseNotFound
	}
	if cnt := repo.db.countClasses(id); cnt > 0 {
		return core.NewReferentialIntegrityError("course", "classes", cnt)
	}
	delete(repo.db.courses, id)
	return nil
}

// Classes

// loadClass copies the Class with its Course.
func (db *DB) loadClass(c *school.Class) school.Class {
	class := *c
	class.TeacherIDs = append([]int{}, c.TeacherIDs...)
	if course, ok := db.courses[c.CourseID]; ok {
		class.Course = *course
	}
	return class
}

func (db *DB) countClasses(courseID int) int {
	var cnt int
	for _, c := range db.classes {
		if c.CourseID == courseID {
			cnt++
		}
	}
	return cnt
}

func (repo *schoolRepository) CreateClass(ctx context.Context, c school.Class, _ ...core.DBExecutor) (school.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.classSeq++
	c.ID = repo.db.classSeq
	c.TeacherIDs = append([]int{}, c.TeacherIDs...)
	repo.db.classes[c.ID] = &c
	return repo.db.loadClass(&c), nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter *school.ClassFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]school.Class, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter == nil {
		filter = new(school.ClassFilter)
	}
	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		if filter.Search != "" && !core.ContainsFold(filter.Search, c.Name) {
			continue
		}
		if filter.Course != 0 && c.CourseID != filter.Course {
			continue
		}
		if filter.Teacher != 0 && !containsInt(c.TeacherIDs, filter.Teacher) {
			continue
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		if !inHierarchy(c.StartDate.Time, filter.DateHierarchy) || !inDateRange(c.StartDate, filter.StartDateFrom, filter.StartDateTo) {
			continue
		}
		classes = append(classes, repo.db.loadClass(c))
	}

	orderSlice(classes, ordering, func(i, j int, field string) int {
		a, b := classes[i], classes[j]
		switch field {
		case "id":
			return cmpInt(a.ID, b.ID)
		case "name":
			return cmpStr(a.Name, b.Name)
		case "course":
			return cmpInt(a.CourseID, b.CourseID)
		case "start_date":
			return cmpTime(a.StartDate.Time, b.StartDate.Time)
		case "end_date":
			return cmpTime(a.EndDate.Time, b.EndDate.Time)
		case "is_active":
			return cmpBool(a.IsActive, b.IsActive)
		}
		return 0
	})
	start, end := filter.Page.Bounds(len(classes))
	return classes[start:end], len(classes), nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id int, _ ...core.DBExecutor) (school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.classes[id]; ok {
		return repo.db.loadClass(c), nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) CountClassesByCourse(ctx context.Context, courseID int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.countClasses(courseID), nil
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, c school.Class, _ ...core.DBExecutor) (school.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classes[c.ID]; !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	c.TeacherIDs = append([]int{}, c.TeacherIDs...)
	repo.db.classes[c.ID] = &c
	return repo.db.loadClass(&c), nil
}

func (repo *schoolRepository) DeleteClass(ctx context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return school.ErrClassNotFound
	}
	if cnt := repo.db.countStudents(id); cnt > 0 {
		return core.NewReferentialIntegrityError("class", "students", cnt)
	}
	delete(repo.db.classes, id)
	return nil
}

// Students

// loadStudent copies the Student with its current Class.
func (db *DB) loadStudent(s *school.Student) school.Student {
	student := *s
	student.CurrentClass = nil
	if s.CurrentClassID.Valid {
		if c, ok := db.classes[s.CurrentClassID.Int]; ok {
			class := db.loadClass(c)
			student.CurrentClass = &class
		}
	}
	return student
}

func (db *DB) countStudents(classID int) int {
	var cnt int
	for _, s := range db.students {
		if s.CurrentClassID.Valid && s.CurrentClassID.Int == classID {
			cnt++
		}
	}
	return cnt
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, s school.Student, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, other := range repo.db.students {
		if other.StudentID == s.StudentID {
			return school.Student{}, core.NewUniqueConstraintError("student", "student_id")
		}
	}
	repo.db.studentSeq++
	s.ID = repo.db.studentSeq
	s.CurrentClass = nil
	repo.db.students[s.ID] = &s
	return repo.db.loadStudent(&s), nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter *school.StudentFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]school.Student, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter == nil {
		filter = new(school.StudentFilter)
	}
	students := make([]school.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		student := repo.db.loadStudent(s)
		if filter.Search != "" && !core.ContainsFold(filter.Search, s.StudentID, s.FirstName, s.LastName, s.Nickname) {
			continue
		}
		if filter.CurrentClass != 0 && (!s.CurrentClassID.Valid || s.CurrentClassID.Int != filter.CurrentClass) {
			continue
		}
		if filter.Course != 0 && (student.CurrentClass == nil || student.CurrentClass.CourseID != filter.Course) {
			continue
		}
		if filter.IsActive != nil && s.IsActive != *filter.IsActive {
			continue
		}
		if !inHierarchy(s.StartDate.Time, filter.DateHierarchy) || !inDateRange(s.StartDate, filter.StartDateFrom, filter.StartDateTo) {
			continue
		}
		students = append(students, student)
	}

	orderSlice(students, ordering, func(i, j int, field string) int {
		a, b := students[i], students[j]
		switch field {
		case "id":
			return cmpInt(a.ID, b.ID)
		case "student_id":
			return cmpStr(a.StudentID, b.StudentID)
		case "first_name":
			return cmpStr(a.FirstName, b.FirstName)
		case "last_name":
			return cmpStr(a.LastName, b.LastName)
		case "nickname":
			return cmpStr(a.Nickname, b.Nickname)
		case "current_class":
			return cmpInt(a.CurrentClassID.Int, b.CurrentClassID.Int)
		case "start_date":
			return cmpTime(a.StartDate.Time, b.StartDate.Time)
		case "is_active":
			return cmpBool(a.IsActive, b.IsActive)
		}
		return 0
	})
	start, end := filter.Page.Bounds(len(students))
	return students[start:end], len(students), nil
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id int, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return repo.db.loadStudent(s), nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) StudentIDExists(ctx context.Context, studentID string, excludedID int, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.students {
		if s.StudentID == studentID && s.ID != excludedID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *schoolRepository) CountStudentsByClass(ctx context.Context, classID int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.countStudents(classID), nil
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s school.Student, _ ...core.DBExecutor) (school.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[s.ID]; !ok {
		return school.Student{}, school.ErrStudentNotFound
	}
	s.CurrentClass = nil
	repo.db.students[s.ID] = &s
	return repo.db.loadStudent(&s), nil
}

// DeleteStudent deletes the Student along with their assessments.
func (repo *schoolRepository) DeleteStudent(ctx context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return school.ErrStudentNotFound
	}
	delete(repo.db.students, id)
	for aid, n := range repo.db.numerics {
		if n.StudentID == id {
			delete(repo.db.numerics, aid)
		}
	}
	for aid, g := range repo.db.gradeds {
		if g.StudentID == id {
			delete(repo.db.gradeds, aid)
		}
	}
	return nil
}

func containsInt(vals []int, val int) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}
