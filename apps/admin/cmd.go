package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	stfRepo staff.Repository
	stdSvc  *student.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addstaff -username USERNAME -email EMAIL [-admin] - create or update a staff account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset a staff member's password")
	fmt.Println("  backfill - synthesize missing ledger entries for legacy student records")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ExitOnError)
	addStaffUname := addStaffCmd.String("username", "", "The staff member's username. The password will be prompted next.")
	addStaffEmail := addStaffCmd.String("email", "", "The staff member's email.")
	addStaffAdmin := addStaffCmd.Bool("admin", false, "Grant all roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The staff member's username or email. The password will be prompted next.")

	switch args[1] {
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffUname == "" && *addStaffEmail == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffUname, *addStaffEmail, pwd, *addStaffAdmin)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "backfill":
		return cli.backfill()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// addStaff updates or creates a staff.Staff with all roles when admin is set.
func (cli *commandLine) addStaff(uname, email, pwd string, admin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	var stf staff.Staff
	err := staff.ErrNotFound
	if uname != "" {
		stf, err = cli.stfRepo.GetStaffByUsernameOrEmail(ctx, uname)
	}
	if err == staff.ErrNotFound && email != "" {
		stf, err = cli.stfRepo.GetStaffByEmail(ctx, email)
	}
	create := false
	if err != nil {
		if err != staff.ErrNotFound {
			return err
		}
		create = true
		stf = staff.Staff{
			Username: uname,
			Email:    email,
		}
	}
	if admin {
		stf.Roles = staff.AllRoles
	}
	if err := stf.SetPassword(pwd); err != nil {
		return err
	}
	if create {
		stf.IsActive = true
		_, err = cli.stfRepo.CreateStaff(ctx, stf)
		return err
	}
	isActive := true
	_, err = cli.stfRepo.UpdateStaff(ctx, stf, &isActive)
	return err
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	stf, err := cli.stfRepo.GetStaffByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err := stf.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.stfRepo.UpdateStaff(ctx, stf, nil)
	return err
}

func (cli *commandLine) backfill() error {
	repaired, err := cli.stdSvc.BackfillAll(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("backfilled %d student record(s)\n", repaired)
	return nil
}
