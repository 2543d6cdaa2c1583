package tests

import (
	"bytes"
	"context"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/rors/apps/api/echo"
	"github.com/trezcool/rors/core/user"
	emailsvc "github.com/trezcool/rors/services/email"
	testutil "github.com/trezcool/rors/tests"
)

func Test_userApi_query(t *testing.T) {
	db.Flush()

	path := func(search, ordering string, isActive string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != "" {
			v.Add("is_active", isActive)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/users?" + v.Encode()
	}

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Tom", "tommy", "tom@test.test", "", user.RoleTeacher, true)
	naughty := testutil.CreateUser(t, usrRepo, "Jane", "janed", "jane@test.test", "", user.RoleTeacher, false)

	adminToken := getToken(t, admin)
	tests := []httpTest{
		{name: "Auth required", path: "/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", path: "/users", token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Inactive user not allowed", path: "/users", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "Get all", path: "/users", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin, naughty, teacher)},
		{name: "search (unknown)", path: path("lol", "", ""), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "search=TOM", path: path("TOM", "", ""), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, teacher)},
		{name: "role=admin", path: path("", "", "", user.RoleAdmin), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, admin)},
		{
			name: "role=teacher", path: path("", "", "", user.RoleTeacher),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, naughty, teacher),
		},
		{name: "is_active=false", path: path("", "", "false"), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, naughty)},
		{
			name: "is_active (invalid)", path: path("", "", "lol"), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid query params"}),
		},
		{
			name: "ordering=-first_name", path: path("", "-first_name", ""),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, teacher, naughty, admin),
		},
		{name: "roles", path: "/users/roles", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runHTTPTests(t, tests)
}

func Test_userApi_login(t *testing.T) {
	db.Flush()

	_ = testutil.CreateUser(t, usrRepo, "Tom", "tommy", "tom@test.test", "LolC@t123", user.RoleTeacher, true)
	_ = testutil.CreateUser(t, usrRepo, "Jane", "janed", "jane@test.test", "LolC@t123", user.RoleTeacher, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "password": reqMsg}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "tommy", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Username: "janed", Password: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/users/login"
	}
	runHTTPTests(t, tests)

	for _, uname := range []string{"tommy", "TOM@test.test"} {
		t.Run("valid credentials: "+uname, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/users/login", marchallObj(t, echoapi.LoginRequest{Username: uname, Password: "LolC@t123"}))
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp echoapi.LoginResponse
			unmarshall(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)

			usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "tommy"})
			require.NoError(t, err)
			assert.True(t, usr.LastLogin.Valid)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	db.Flush()

	naughty := testutil.CreateUser(t, usrRepo, "Jane", "janed", "jane@test.test", "", user.RoleTeacher, false)
	teacher := testutil.CreateUser(t, usrRepo, "Tom", "tommy", "tom@test.test", "", user.RoleTeacher, true)

	// older than the refresh threshold
	oriat := time.Now().Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix()
	unrefreshableToken, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, teacher, oriat))
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/users/token-refresh"
	}
	runHTTPTests(t, tests)

	t.Run("Token refreshed", func(t *testing.T) {
		rec := serve(http.MethodPost, "/users/token-refresh", getToken(t, teacher))
		require.Equal(t, http.StatusOK, rec.Code)

		// cannot guess new token.. just check that it's not empty
		var resp echoapi.LoginResponse
		unmarshall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})
}

func Test_userApi_resetPassword(t *testing.T) {
	db.Flush()

	teacher := testutil.CreateUser(t, usrRepo, "Hero", "herox", "hero@test.test", "", user.RoleTeacher, true)
	naughty := testutil.CreateUser(t, usrRepo, "Jane", "janed", "jane@test.test", "", user.RoleTeacher, false)
	successData := marchallObj(t, echoapi.SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	pathRegex := regexp.MustCompile("/password-reset/.+/.+")

	tests := []struct {
		httpTest
		emailSent bool
		to        mail.Address
	}{
		{httpTest: httpTest{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"}),
		}},
		{httpTest: httpTest{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		}},
		{httpTest: httpTest{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.test"}),
			wantData: successData,
		}},
		{httpTest: httpTest{
			name: "inactive user", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: naughty.Email}),
			wantData: successData,
		}},
		{
			httpTest: httpTest{
				name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "HERO@test.test"}),
				wantData: successData,
			},
			emailSent: true,
			to:        mail.Address{Name: teacher.FullName(), Address: teacher.Email},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()

			rec := serve(http.MethodPost, "/users/password-reset", "", tt.body)
			checkCodeAndData(t, tt.httpTest, rec)

			if !tt.emailSent {
				assert.Empty(t, emailsvc.SentMessages)
				return
			}
			require.Len(t, emailsvc.SentMessages, 1)
			msg := emailsvc.SentMessages[0]
			assert.Equal(t, tt.to, msg.To[0])
			assert.Contains(t, msg.TextContent, tt.to.Name)
			assert.Contains(t, msg.HTMLContent, tt.to.Name)
			assert.Regexp(t, pathRegex, msg.TextContent)
			assert.Regexp(t, pathRegex, msg.HTMLContent)
		})
	}
}

func Test_userApi_confirmPasswordReset(t *testing.T) {
	db.Flush()

	teacher := testutil.CreateUser(t, usrRepo, "Hero", "herox", "hero@test.test", "lol", user.RoleTeacher, true)
	validUID := user.EncodeUID(teacher)
	validToken, err := user.MakeToken(teacher, conf.SecretKey)
	require.NoError(t, err)

	// generate an expired token
	dayLate := conf.Server.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := user.MakeToken(teacher, conf.SecretKey)
	user.NowFunc = time.Now // reset
	require.NoError(t, err)

	reqMsg := "this field is required"
	invalid := "invalid value"
	newPwd := "LolC@t123"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"token":            reqMsg,
				"uid":              reqMsg,
				"password":         "password must contain at least 8 characters",
				"password_confirm": reqMsg,
			}),
		},
		{
			name: "invalid pwd: complexity", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: marchallObj(t, map[string]string{
				"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
			}),
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "bG9s", Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"uid": invalid}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"token": invalid}),
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"token": invalid}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/users/password-reset-confirm"
	}
	runHTTPTests(t, tests)

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: teacher.ID})
	require.NoError(t, err)
	assert.False(t, bytes.Equal(usr.PasswordHash, teacher.PasswordHash), "password not updated")
	assert.NoError(t, usr.CheckPassword(newPwd))
}

func Test_userApi_register(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Tom", "tommy", "tom@test.test", "", user.RoleTeacher, true)

	newUser := user.NewUser{
		FirstName:       "Jane",
		Username:        "JaneD",
		Email:           "jane@test.test",
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
	}
	existsMsg := user.ErrUserExists.Error()

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", token: getToken(t, teacher), body: marchallObj(t, newUser), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "one of username or email", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{FirstName: "Jane", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, map[string]string{
				"username": "one of username or email is required",
				"email":    "one of username or email is required",
			}),
		},
		{
			name: "invalid role", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", Username: "janed", Role: "student", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "username taken", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", Username: "TOMMY", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantData: marchallObj(t, map[string]string{"username": existsMsg, "email": existsMsg}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/users/register"
	}
	runHTTPTests(t, tests)

	t.Run("created", func(t *testing.T) {
		rec := serve(http.MethodPost, "/users/register", getToken(t, admin), marchallObj(t, newUser))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarshall(t, rec, &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "janed", usr.Username)
		assert.Equal(t, user.RoleTeacher, usr.Role)
		assert.True(t, usr.IsActive)
		assert.False(t, strings.Contains(rec.Body.String(), "password"))
	})
}

func Test_userApi_detail(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Tom", "tommy", "tom@test.test", "", user.RoleTeacher, true)
	other := testutil.CreateUser(t, usrRepo, "Jane", "janed", "jane@test.test", "", user.RoleTeacher, true)
	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	runHTTPTests(t, []httpTest{
		{name: "own account", method: http.MethodGet, path: "/users/" + teacher.ID, token: teacherToken, wantCode: http.StatusOK, wantData: marchallObj(t, teacher)},
		{name: "other account", method: http.MethodGet, path: "/users/" + other.ID, token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "admin", method: http.MethodGet, path: "/users/" + other.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{name: "unknown", method: http.MethodGet, path: "/users/lol", token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{
			name: "only admins change roles", method: http.MethodPut, path: "/users/" + teacher.ID, token: teacherToken,
			body: marchallObj(t, map[string]string{"role": user.RoleAdmin}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "delete: admin required", method: http.MethodDelete, path: "/users/" + teacher.ID, token: teacherToken, wantCode: http.StatusForbidden},
		{name: "delete: not themselves", method: http.MethodDelete, path: "/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
	})

	t.Run("update own account", func(t *testing.T) {
		rec := serve(http.MethodPut, "/users/"+teacher.ID, teacherToken, marchallObj(t, map[string]string{"first_name": " Tommy "}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		unmarshall(t, rec, &usr)
		assert.Equal(t, "Tommy", usr.FirstName)
		assert.Equal(t, teacher.Username, usr.Username)
		assert.Equal(t, user.RoleTeacher, usr.Role)
	})

	t.Run("admin deactivates", func(t *testing.T) {
		rec := serve(http.MethodPut, "/users/"+other.ID, adminToken, marchallObj(t, map[string]interface{}{"is_active": false}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		// deactivated users are locked out
		rec = serve(http.MethodGet, "/users/"+other.ID, getToken(t, other))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := serve(http.MethodDelete, "/users/"+other.ID, adminToken)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: other.ID})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func Test_userApi_destroyMultiple(t *testing.T) {
	db.Flush()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", user.RoleAdmin, true)
	usr1 := testutil.CreateUser(t, usrRepo, "Tom", "tommy", "tom@test.test", "", user.RoleTeacher, true)
	usr2 := testutil.CreateUser(t, usrRepo, "Jane", "janed", "jane@test.test", "", user.RoleTeacher, true)
	adminToken := getToken(t, admin)

	path := func(ids ...string) string {
		v := make(url.Values)
		for _, id := range ids {
			v.Add("id", id)
		}
		return "/users?" + v.Encode()
	}

	runHTTPTests(t, []httpTest{
		{name: "Admin required", method: http.MethodDelete, path: path(usr1.ID), token: getToken(t, usr2), wantCode: http.StatusForbidden},
		{name: "not themselves", method: http.MethodDelete, path: path(usr1.ID, admin.ID), token: adminToken, wantCode: http.StatusForbidden},
		{name: "no ids", method: http.MethodDelete, path: path(), token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", method: http.MethodDelete, path: path(usr1.ID, usr2.ID), token: adminToken, wantCode: http.StatusNoContent},
	})

	users, err := usrRepo.QueryUsers(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []user.User{admin}, users)
}
