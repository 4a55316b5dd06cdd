package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	role := user.RoleUser
	if isAdmin {
		role = user.RoleAdmin
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		nu := user.NewUser{Username: uname, Email: email, Password: pwd}
		if usr, err = cli.usrSvc.Create(ctx, nu, role, true); err != nil {
			return err
		}
		cli.printf("user %s created\n", usr.Email)
		return nil
	}

	usr.Username = core.CleanString(uname)
	usr.Role = role
	usr.IsActive = true
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err = cli.usrSvc.Update(ctx, usr); err != nil {
		return err
	}
	cli.printf("user %s updated\n", usr.Email)
	return nil
}
