package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/app"
	"employeesurvey/survey-client/internal/config"
	"employeesurvey/survey-client/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("not signed in; run `surveyctl login` first")
	ErrAdminOnly        = errors.New("this command requires the admin role")
)

// AppFactory builds the application for one command run.
type AppFactory func(ctx context.Context) (*app.App, error)

type Options struct {
	Out    io.Writer
	Err    io.Writer
	NewApp AppFactory
}

type env struct {
	opts Options
	app  *app.App
	p    *message.Printer
}

// DefaultAppFactory loads config from the environment.
func DefaultAppFactory(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(ctx, cfg, nil)
}

// NewRootCommand builds the command tree. The app it opens is closed by
// Execute; callers running the command directly must close it themselves.
func NewRootCommand(opts Options) *cobra.Command {
	root, _ := newRootCommand(opts)
	return root
}

func newRootCommand(opts Options) (*cobra.Command, *env) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.NewApp == nil {
		opts.NewApp = DefaultAppFactory
	}
	e := &env{opts: opts, p: message.NewPrinter(language.English)}

	root := &cobra.Command{
		Use:           "surveyctl",
		Short:         "Command-line client for the employee survey platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.NewApp(cmd.Context())
			if err != nil {
				return err
			}
			e.app = a
			return nil
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.AddCommand(
		newLoginCommand(e),
		newLogoutCommand(e),
		newStatusCommand(e),
		newHealthCommand(e),
		newActivityCommand(e),
		newSurveysCommand(e),
		newEmployeesCommand(e),
		newUsersCommand(e),
	)
	return root, e
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	root, e := newRootCommand(opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if e.app != nil {
		if cerr := e.app.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return 0
	}
	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	fmt.Fprintln(errOut, "error:", err)
	return ExitCode(err)
}

// ExitCode maps an error onto a process exit status.
func ExitCode(err error) int {
	switch apiclient.KindOf(err) {
	case apiclient.KindNone:
		if err == nil {
			return 0
		}
		return 1
	case apiclient.KindValidation:
		return 2
	case apiclient.KindNetwork:
		return 3
	default:
		return 4
	}
}

func (e *env) out() io.Writer { return e.opts.Out }

// requireRole checks the locally stored role. The server enforces the same
// rule; this only saves a round trip.
func (e *env) requireRole(role models.Role) error {
	snap := e.app.Session.Snapshot()
	if !snap.HasToken() {
		return ErrNotAuthenticated
	}
	if role != models.RoleUnknown && models.ParseRole(snap.Role) != role {
		return ErrAdminOnly
	}
	return nil
}
