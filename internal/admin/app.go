package admin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/yamdb/internal/server/models"
)

// ErrAborted is returned when the operator declines a confirmation.
var ErrAborted = errors.New("aborted")

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// Elevator changes the staff and superuser flags of an account.
type Elevator interface {
	Elevate(ctx context.Context, username string, staff, superuser bool) (*models.User, error)
}

type App struct {
	in          *bufio.Reader
	out         io.Writer
	users       Elevator
	migrate     func(ctx context.Context) error
	interactive bool
}

// NewApp builds the tool. interactive reports whether in is a terminal;
// without one, role changes need -yes.
func NewApp(in io.Reader, out io.Writer, users Elevator, migrate func(ctx context.Context) error, interactive bool) *App {
	return &App{
		in:          bufio.NewReader(in),
		out:         out,
		users:       users,
		migrate:     migrate,
		interactive: interactive,
	}
}

const usage = `usage: yamdbctl [server flags] <command> [args]

commands:
  migrate                             apply pending schema migrations
  promote [-superuser] [-yes] <user>  grant staff (and superuser) to a user
  demote [-yes] <user>                revoke staff and superuser
  help                                show this message`

// SplitCommand skips the leading server flags and returns the command name
// with its own arguments.
func SplitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return arg, args[i+1:]
		}
		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return "", nil
}

// Run executes the command in args, usually os.Args[1:].
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := SplitCommand(args)

	switch cmd {
	case "migrate":
		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(a.out, "migrations applied")
		return nil
	case "promote":
		return a.promote(ctx, rest)
	case "demote":
		return a.demote(ctx, rest)
	case "help", "":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) promote(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	superuser := fs.Bool("superuser", false, "also grant superuser")
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: promote takes exactly one username", ErrUsage)
	}
	username := fs.Arg(0)

	what := "staff"
	if *superuser {
		what = "staff and superuser"
	}
	if err := a.confirm(*yes, fmt.Sprintf("Grant %s to %q?", what, username)); err != nil {
		return err
	}

	u, err := a.users.Elevate(ctx, username, true, *superuser)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s now resolves to %s\n", u.Username, u.EffectiveLevel())
	return nil
}

func (a *App) demote(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("demote", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: demote takes exactly one username", ErrUsage)
	}
	username := fs.Arg(0)

	if err := a.confirm(*yes, fmt.Sprintf("Revoke staff and superuser from %q?", username)); err != nil {
		return err
	}

	u, err := a.users.Elevate(ctx, username, false, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s now resolves to %s\n", u.Username, u.EffectiveLevel())
	return nil
}

func (a *App) confirm(yes bool, question string) error {
	if yes {
		return nil
	}
	if !a.interactive {
		return fmt.Errorf("%w: not a terminal, pass -yes to confirm", ErrAborted)
	}
	ok, err := Confirm(a.in, question, a.out)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}
