package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"employeesurvey/survey-client/internal/models"
)

func newEmployeesCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Employee directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List employees and their user ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireRole(models.RoleUnknown); err != nil {
				return err
			}
			users, err := e.app.Surveys.ListEmployees(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(e.out(), "No employees registered.")
				return nil
			}
			w := newTable(e.out())
			fmt.Fprintln(w, "ID\tUSERNAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.Role)
			}
			return w.Flush()
		},
	})
	return cmd
}

func newUsersCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Account management",
	}

	var in models.NewUser
	register := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := e.app.Surveys.RegisterUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out(), "Registered %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	register.Flags().StringVarP(&in.Username, "username", "u", "", "account name")
	register.Flags().StringVarP(&in.Password, "password", "p", "", "account password")
	register.Flags().StringVar(&in.Role, "role", string(models.RoleEmployee), "admin or employee")
	cmd.AddCommand(register)
	return cmd
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
