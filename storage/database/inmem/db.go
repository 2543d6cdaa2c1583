// Package inmemdb implements the repositories in memory. It is used by tests.
package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/assessment"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
)

// DB holds all the tables behind one lock.
type DB struct {
	mu sync.RWMutex

	users    map[string]*user.User
	teachers map[int]*school.Teacher
	courses  map[int]*school.Course
	classes  map[int]*school.Class
	students map[int]*school.Student
	numerics map[int]*assessment.Numeric
	gradeds  map[int]*assessment.Graded

	// primary key sequences
	teacherSeq, courseSeq, classSeq, studentSeq int
	assessmentSeq                               int // shared by both kinds of assessments
}

func Open() *DB {
	return &DB{
		users:    make(map[string]*user.User),
		teachers: make(map[int]*school.Teacher),
		courses:  make(map[int]*school.Course),
		classes:  make(map[int]*school.Class),
		students: make(map[int]*school.Student),
		numerics: make(map[int]*assessment.Numeric),
		gradeds:  make(map[int]*assessment.Graded),
	}
}

// Flush empties all the tables.
func (db *DB) Flush() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users = make(map[string]*user.User)
	db.teachers = make(map[int]*school.Teacher)
	db.courses = make(map[int]*school.Course)
	db.classes = make(map[int]*school.Class)
	db.students = make(map[int]*school.Student)
	db.numerics = make(map[int]*assessment.Numeric)
	db.gradeds = make(map[int]*assessment.Graded)
}

// fieldCmp compares the field of the items at i & j of a slice: <0, 0 or >0.
type fieldCmp func(i, j int, field string) int

// orderSlice sorts slice by the orderings; ties keep their order.
func orderSlice(slice interface{}, ordering []core.DBOrdering, cmp fieldCmp) {
	sort.SliceStable(slice, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(i, j, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func cmpStr(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// inRange reports whether t is within [from, to); zero bounds are unbounded.
func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// inDateRange reports whether d is within the inclusive range [from, to]; unset bounds are unbounded.
func inDateRange(d, from, to core.Date) bool {
	if from.IsSet() && d.Before(from) {
		return false
	}
	if to.IsSet() && to.Before(d) {
		return false
	}
	return true
}

func inHierarchy(t time.Time, h core.DateHierarchy) bool {
	from, to, ok := h.Range()
	if !ok {
		return true
	}
	return inRange(t, from, to)
}
