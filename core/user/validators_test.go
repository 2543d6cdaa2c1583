package user

import (
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/rors/core"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, _ ...interface{}) { l.t.Log(msg) }
func (l testLogger) Info(msg string, _ ...interface{})  { l.t.Log(msg) }
func (l testLogger) Warn(msg string, _ ...interface{})  { l.t.Log(msg) }
func (l testLogger) Error(msg string, _ ...interface{}) { l.t.Error(msg) }
func (l testLogger) Fatal(msg string, _ ...interface{}) { l.t.Fatal(msg) }

func fieldErrors(t *testing.T, translator ut.Translator, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
	errs := make(map[string]string, len(vErrs))
	for _, e := range vErrs {
		errs[e.Field()] = e.Translate(translator)
	}
	return errs
}

func TestPasswordPolicy(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	LoadCommonPasswords(testLogger{t})

	if len(commonPasswords) == 0 {
		t.Fatal("common passwords not loaded")
	}

	tests := []struct {
		name     string
		data     NewUser
		wantErrs map[string]string
	}{
		{
			name: "min len",
			data: NewUser{FirstName: "Jane", Username: "janed", Password: "Ab1!", PasswordConfirm: "Ab1!"},
			wantErrs: map[string]string{"password": pwdMinLenText},
		},
		{
			name: "no whitespace",
			data: NewUser{FirstName: "Jane", Username: "janed", Password: "Ab1! xyzw", PasswordConfirm: "Ab1! xyzw"},
			wantErrs: map[string]string{"password": pwdNoSpaceText},
		},
		{
			name: "not all numeric",
			data: NewUser{FirstName: "Jane", Username: "janed", Password: "12345678", PasswordConfirm: "12345678"},
			wantErrs: map[string]string{"password": pwdNotAllNumText},
		},
		{
			name: "complexity",
			data: NewUser{FirstName: "Jane", Username: "janed", Password: "lol12345", PasswordConfirm: "lol12345"},
			wantErrs: map[string]string{"password": pwdComplexityText},
		},
		{
			name: "similar to username",
			data: NewUser{FirstName: "Jane", Username: "marguerite", Password: "Marguerite1!", PasswordConfirm: "Marguerite1!"},
			wantErrs: map[string]string{"password": pwdAttrSimText},
		},
		{
			name: "too common",
			data: NewUser{FirstName: "Jane", Username: "janed", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"},
			wantErrs: map[string]string{"password": pwdNoCommonText},
		},
		{
			name: "username or email required",
			data: NewUser{FirstName: "Jane", Password: "LolC@t123", PasswordConfirm: "LolC@t123"},
			wantErrs: map[string]string{"username": usernameOrEmailText, "email": usernameOrEmailText},
		},
		{
			name: "invalid role",
			data: NewUser{FirstName: "Jane", Username: "janed", Role: "student", Password: "LolC@t123", PasswordConfirm: "LolC@t123"},
			wantErrs: map[string]string{"role": roleText},
		},
		{
			name: "valid",
			data: NewUser{FirstName: "Jane", Username: "janed", Role: RoleAdmin, Password: "LolC@t123", PasswordConfirm: "LolC@t123"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := fieldErrors(t, translator, validate.Struct(tt.data))
			assert.Equal(t, tt.wantErrs, errs)
		})
	}
}

func TestUser_String(t *testing.T) {
	tests := []struct {
		name string
		usr  User
		want string
	}{
		{name: "full name", usr: User{FirstName: "Jane", LastName: "Doe", Username: "jane", Role: RoleTeacher}, want: "Jane Doe (teacher)"},
		{name: "username fallback", usr: User{Username: "root", Role: RoleAdmin}, want: "root (admin)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.usr.String())
		})
	}
}
