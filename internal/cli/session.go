package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"employeesurvey/survey-client/internal/models"
	"employeesurvey/survey-client/internal/session"
)

func newLoginCommand(e *env) *cobra.Command {
	var username, password string
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			user, err := e.app.Auth.SignIn(cmd.Context(), models.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out(), "Signed in as %s (%s)\n", user.Username, models.ParseRole(user.Role))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := e.app.Auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(e.out(), "Signed out")
			return nil
		},
	}
}

func newStatusCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			snap := e.app.Session.Snapshot()
			w := newTable(e.out())
			fmt.Fprintf(w, "State:\t%s\n", e.app.Auth.State())
			fmt.Fprintf(w, "View:\t%s\n", e.app.Auth.View())
			role := snap.Role
			if role == "" {
				role = "-"
			}
			fmt.Fprintf(w, "Role:\t%s\n", role)
			fmt.Fprintf(w, "Token expires:\t%s\n", tokenExpiry(snap.Token, time.Now()))
			fmt.Fprintf(w, "API:\t%s\n", e.app.API.BaseURL())
			return w.Flush()
		},
	}
}

func tokenExpiry(token string, now time.Time) string {
	if token == "" {
		return "-"
	}
	info, err := session.InspectToken(token)
	if err != nil || info.ExpiresAt.IsZero() {
		return "unknown"
	}
	if info.Expired(now) {
		return info.ExpiresAt.UTC().Format(time.RFC3339) + " (expired)"
	}
	return info.ExpiresAt.UTC().Format(time.RFC3339)
}

func newHealthCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the survey API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := e.app.Surveys.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out(), "%s %s\n", h.Status, h.Time)
			return nil
		},
	}
}

func newActivityCommand(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent sign-in activity recorded on this machine",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			events, err := e.app.Activity.Tail(limit)
			if err != nil {
				return err
			}
			w := newTable(e.out())
			fmt.Fprintln(w, "TIME\tACTOR\tACTION\tOUTCOME\tDETAIL")
			for _, ev := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ev.At, dash(ev.Actor), ev.Action, ev.Outcome, dash(ev.Detail))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}
