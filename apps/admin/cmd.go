package main

import (
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/csiportal/core/session"
	"github.com/trezcool/csiportal/storage"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out      io.Writer
	storage  storage.Storage
	sessions *session.Manager
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  list - list the sessions holding a persisted user")
	fmt.Fprintln(cli.out, "  inspect -session ID - print the state of a session")
	fmt.Fprintln(cli.out, "  clear -session ID - log a session out")
	fmt.Fprintln(cli.out, "  login -session ID -email EMAIL -role ROLE [-name NAME] - log a session in, the password is prompted next")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	inspectCmd := flag.NewFlagSet("inspect", flag.ContinueOnError)
	inspectSession := inspectCmd.String("session", "", "The session handle.")

	clearCmd := flag.NewFlagSet("clear", flag.ContinueOnError)
	clearSession := clearCmd.String("session", "", "The session handle.")

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginSession := loginCmd.String("session", "", "The session handle.")
	loginEmail := loginCmd.String("email", "", "The user's email.")
	loginRole := loginCmd.String("role", "", "One of student, teacher or committee.")
	loginName := loginCmd.String("name", "", "The user's name; signs the session up when set.")

	for _, fs := range []*flag.FlagSet{inspectCmd, clearCmd, loginCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "list":
		return cli.list()
	case "inspect":
		if err := inspectCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *inspectSession == "" {
			inspectCmd.Usage()
			return errHelp
		}
		return cli.inspect(*inspectSession)
	case "clear":
		if err := clearCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *clearSession == "" {
			clearCmd.Usage()
			return errHelp
		}
		return cli.clear(*clearSession)
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginSession == "" || *loginEmail == "" || *loginRole == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginSession, *loginEmail, *loginRole, *loginName, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
