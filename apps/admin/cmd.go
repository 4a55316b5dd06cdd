package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/seed"
	"github.com/eduenglish/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc    user.Service
	courseSvc course.Service
	resultSvc result.Service
	seeder    *seed.Seeder
	out       io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  resetpassword -email EMAIL [-activate] - reset user's password\n")
	cli.printf("  adduser -username USERNAME -email EMAIL [-admin] - create or update a user\n")
	cli.printf("  seed [-demo] - create the admin account and the sample course (and the demo users)\n")
	cli.printf("  cleanupdemo - delete the demo users\n")
	cli.printf("  fixorphans -action report|assign|delete [-course ID] [-apply] - fix the results of deleted courses\n")
}

// readPassword prompts for a password; an empty one shows the usage of cmd.
func (cli *commandLine) readPassword(cmd *flag.FlagSet) (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")
	resetPasswordActivate := resetPasswordCmd.Bool("activate", false, "Reactivate the account if it was deactivated.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the user the admin role.")

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedDemo := seedCmd.Bool("demo", false, "Also create the demo users.")

	cleanupDemoCmd := flag.NewFlagSet("cleanupdemo", flag.ContinueOnError)

	fixOrphansCmd := flag.NewFlagSet("fixorphans", flag.ContinueOnError)
	fixOrphansAction := fixOrphansCmd.String("action", actionReport, "report, assign or delete the orphaned results.")
	fixOrphansCourse := fixOrphansCmd.String("course", "", "The course receiving the results (assign).")
	fixOrphansApply := fixOrphansCmd.Bool("apply", false, "Apply the changes; dry run otherwise.")

	for _, cmd := range []*flag.FlagSet{resetPasswordCmd, addUserCmd, seedCmd, cleanupDemoCmd, fixOrphansCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd, *resetPasswordActivate)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.seed(*seedDemo)

	case "cleanupdemo":
		if err := cleanupDemoCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.cleanupDemo()

	case "fixorphans":
		if err := fixOrphansCmd.Parse(args[2:]); err != nil {
			return err
		}
		switch *fixOrphansAction {
		case actionReport, actionDelete:
		case actionAssign:
			if *fixOrphansCourse == "" {
				fixOrphansCmd.Usage()
				return errHelp
			}
		default:
			fixOrphansCmd.Usage()
			return errHelp
		}
		return cli.fixOrphans(*fixOrphansAction, *fixOrphansCourse, *fixOrphansApply)

	default:
		cli.printUsage()
		return errHelp
	}
}
