package main

import (
	"context"
)

// resetPassword sets a new password on the account of email.
// Deactivated accounts keep their status unless activate is set.
func (cli *commandLine) resetPassword(email, pwd string, activate bool) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	reactivated := activate && !usr.IsActive
	if reactivated {
		usr.IsActive = true
	}
	if usr, err = cli.usrSvc.Update(ctx, usr); err != nil {
		return err
	}

	cli.printf("password of %s updated\n", usr.Email)
	if reactivated {
		cli.printf("account %s reactivated\n", usr.Email)
	} else if !usr.IsActive {
		cli.printf("account %s is deactivated (use -activate)\n", usr.Email)
	}
	return nil
}
