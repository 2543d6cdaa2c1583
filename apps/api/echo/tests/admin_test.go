package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/admin"
	"github.com/trezcool/rors/core/assessment"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
	testutil "github.com/trezcool/rors/tests"
)

type adminList struct {
	Data    []map[string]interface{} `json:"data"`
	Total   int                      `json:"total"`
	Limit   int                      `json:"limit"`
	Columns []string                 `json:"columns"`
	Rows    [][]interface{}          `json:"rows"`
}

func Test_adminApi(t *testing.T) {
	db.Flush()

	adm := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", user.RoleAdmin, true)
	usr := testutil.CreateUser(t, usrRepo, "Tom", "tommy", "tom@test.test", "", user.RoleTeacher, true)
	course := testutil.CreateCourse(t, schoolRepo, school.CourseGeneralEnglish)
	a1 := testutil.CreateClass(t, schoolRepo, course, "A1", core.NewDate(2024, time.January, 8))
	jane := testutil.CreateStudent(t, schoolRepo, "S001", "Jane", "Doe", &a1)
	john := testutil.CreateStudent(t, schoolRepo, "S002", "John", "Smith", nil)
	grammar := testutil.CreateNumeric(t, assessmentRepo, jane, assessment.SkillGrammar, 1, 8, 10)

	adminToken := getToken(t, adm)
	teacherToken := getToken(t, usr)

	runHTTPTests(t, []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/admin", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admins only", method: http.MethodGet, path: "/admin/classes", token: teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "unknown model", method: http.MethodGet, path: "/admin/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "invalid limit", method: http.MethodGet, path: "/admin/students?limit=all", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"limit": "limit must be an integer"}),
		},
		{
			name: "invalid period", method: http.MethodGet, path: "/admin/numeric-assessments?submission_date=lol", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"submission_date": `invalid submission period "lol"`}),
		},
		{
			name: "other kind", method: http.MethodGet, path: fmt.Sprintf("/admin/graded-assessments/%d", grammar.ID), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "assessment not found"}),
		},
	})

	t.Run("index", func(t *testing.T) {
		rec := serve(http.MethodGet, "/admin", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var models []admin.ModelAdmin
		unmarshall(t, rec, &models)
		names := make([]string, 0, len(models))
		for _, ma := range models {
			names = append(names, ma.Name)
		}
		want := []string{"teachers", "courses", "classes", "students", "numeric-assessments", "graded-assessments"}
		assert.Equal(t, want, names)
	})

	t.Run("list", func(t *testing.T) {
		rec := serve(http.MethodGet, "/admin/classes", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp adminList
		unmarshall(t, rec, &resp)
		assert.Equal(t, 1, resp.Total)
		assert.Equal(t, admin.DefaultListPerPage, resp.Limit)
		assert.Equal(t, []string{"name", "course", "start_date", "end_date", "is_active"}, resp.Columns)
		assert.Equal(t, [][]interface{}{{"A1", "General English", "2024-01-08", "", true}}, resp.Rows)

		rec = serve(http.MethodGet, fmt.Sprintf("/admin/students?current_class=%d", a1.ID), adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp = adminList{}
		unmarshall(t, rec, &resp)
		if assert.Len(t, resp.Data, 1) {
			assert.Equal(t, "S001", resp.Data[0]["student_id"])
		}
	})

	var vocabID int
	t.Run("create ignores read-only fields", func(t *testing.T) {
		body := fmt.Sprintf(`{"student": %d, "skill": "V", "week": 1, "score": 10, "total_questions": 20, "correct_answers": 15}`, jane.ID)
		rec := serve(http.MethodPost, "/admin/numeric-assessments", adminToken, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got map[string]interface{}
		unmarshall(t, rec, &got)
		assert.Equal(t, 75.0, got["score"])
		assert.Equal(t, adm.ID, got["submitted_by"])
		vocabID = int(got["id"].(float64))
	})

	t.Run("update ignores read-only fields", func(t *testing.T) {
		path := fmt.Sprintf("/admin/numeric-assessments/%d", vocabID)
		rec := serve(http.MethodPatch, path, adminToken, []byte(`{"correct_answers": 20, "comments": "good"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got map[string]interface{}
		unmarshall(t, rec, &got)
		assert.Equal(t, 15.0, got["correct_answers"])
		assert.Equal(t, 75.0, got["score"])
		assert.Equal(t, "good", got["comments"])
	})

	t.Run("export", func(t *testing.T) {
		rec := serve(http.MethodGet, "/admin/numeric-assessments/export?limit=1", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, admin.XLSXContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "numeric-assessments.xlsx")
		assert.NotEmpty(t, rec.Body.Bytes())
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(http.MethodDelete, fmt.Sprintf("/admin/students/%d", john.ID), adminToken)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = serve(http.MethodGet, fmt.Sprintf("/admin/students/%d", john.ID), adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
