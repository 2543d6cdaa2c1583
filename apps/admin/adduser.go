package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
)

type addUserArgs struct {
	username  string
	email     string
	firstName string
	role      string
	password  string
	teacher   bool // register a Teacher for the user
}

// findUser looks the user up by username first, then by email.
func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	for _, val := range []string{uname, email} {
		if val == "" {
			continue
		}
		usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, val)
		if err == nil || !core.IsNotFound(err) {
			return usr, err
		}
	}
	return user.User{}, user.ErrNotFound
}

// addUser updates or creates an active user.User.
func (cli *commandLine) addUser(args addUserArgs) error {
	ctx := context.Background()

	usr, err := cli.findUser(ctx, args.username, args.email)
	switch {
	case err == nil:
		uu := user.UpdateUser{
			Username:        args.username,
			Email:           args.email,
			FirstName:       args.firstName,
			Role:            args.role,
			IsActive:        core.BoolPtr(true),
			Password:        args.password,
			PasswordConfirm: args.password,
		}
		if err = uu.Validate(ctx, usr, cli.validate, cli.usrSvc); err != nil {
			return err
		}
		if usr, err = cli.usrSvc.Update(ctx, usr, uu); err != nil {
			return errors.Wrap(err, "updating user")
		}
	case core.IsNotFound(err):
		nu := user.NewUser{
			FirstName:       args.firstName,
			Username:        args.username,
			Email:           args.email,
			Role:            args.role,
			Password:        args.password,
			PasswordConfirm: args.password,
		}
		if nu.FirstName == "" {
			nu.FirstName = args.username
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return err
		}
		if usr, err = cli.usrSvc.Create(ctx, nu); err != nil {
			return errors.Wrap(err, "creating user")
		}
	default:
		return errors.Wrap(err, "finding user")
	}

	if !args.teacher {
		return nil
	}
	_, err = cli.schoolSvc.CreateTeacher(ctx, school.TeacherData{User: usr.ID})
	if _, exists := errors.Cause(err).(*core.UniqueConstraintError); exists {
		return nil
	}
	return err
}
