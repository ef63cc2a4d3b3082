package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/app"
	"employeesurvey/survey-client/internal/config"
	"employeesurvey/survey-client/internal/testkit/fakeapi"
)

type harness struct {
	t   *testing.T
	api *fakeapi.Server
	app *app.App
}

// newHarness shares one in-memory app across command runs so the session
// carries over the way a persisted one would.
func newHarness(t *testing.T) *harness {
	t.Helper()
	api, srv := fakeapi.Start(t, fakeapi.Config{})
	cfg := config.Config{
		API:     config.APIConfig{BaseURL: srv.URL},
		Session: config.SessionConfig{Backend: config.BackendMemory},
		Audit:   config.AuditConfig{File: filepath.Join(t.TempDir(), "activity.log")},
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("app.New() error: %v", err)
	}
	return &harness{t: t, api: api, app: a}
}

func (h *harness) run(args ...string) (string, string, int) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), args, Options{
		Out: &out,
		Err: &errOut,
		NewApp: func(context.Context) (*app.App, error) {
			return h.app, nil
		},
	})
	return out.String(), errOut.String(), code
}

func TestLoginStatusLogout(t *testing.T) {
	h := newHarness(t)
	if _, err := h.api.AddUser("alice", "pw1234", "employee"); err != nil {
		t.Fatalf("AddUser() error: %v", err)
	}

	out, errOut, code := h.run("login", "-u", "alice", "-p", "pw1234")
	if code != 0 {
		t.Fatalf("login exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Signed in as alice (employee)") {
		t.Fatalf("unexpected login output %q", out)
	}

	out, _, _ = h.run("status")
	if !strings.Contains(out, "authenticated") || !strings.Contains(out, "employee") {
		t.Fatalf("unexpected status output %q", out)
	}
	if strings.Contains(out, "unknown") {
		t.Fatalf("expected a readable token expiry, got %q", out)
	}

	if _, _, code := h.run("logout"); code != 0 {
		t.Fatalf("logout exit %d", code)
	}
	_, errOut, code = h.run("surveys", "list")
	if code != 1 || !strings.Contains(errOut, "not signed in") {
		t.Fatalf("expected not-signed-in error, got %d %q", code, errOut)
	}
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)
	_, errOut, code := h.run("login", "-u", "nobody", "-p", "secret1")
	if code != 4 || !strings.Contains(errOut, "Incorrect username or password") {
		t.Fatalf("expected API error exit, got %d %q", code, errOut)
	}

	_, errOut, code = h.run("login", "-u", "", "-p", "x")
	if code != 2 || !strings.Contains(errOut, "username") {
		t.Fatalf("expected validation exit, got %d %q", code, errOut)
	}
}

func TestAdminWorkflow(t *testing.T) {
	h := newHarness(t)
	_, _ = h.api.AddUser("admin", "admin123", "admin")
	emp, _ := h.api.AddUser("alice", "pw1234", "employee")

	if _, errOut, code := h.run("login", "-u", "admin", "-p", "admin123"); code != 0 {
		t.Fatalf("admin login failed: %s", errOut)
	}

	_, errOut, code := h.run("surveys", "create", "-t", "Pulse")
	if code != 2 || !strings.Contains(errOut, "at least one question") {
		t.Fatalf("expected validation error for empty survey, got %d %q", code, errOut)
	}

	out, errOut, code := h.run("surveys", "create", "-t", "Pulse", "-q", "How was your week?", "-q", "rating_5:Rate your workload", "-q", "yes_no:Would you recommend us?")
	if code != 0 || !strings.Contains(out, "Created survey 1: Pulse") {
		t.Fatalf("create failed: %d %q %q", code, out, errOut)
	}

	out, _, _ = h.run("employees", "list")
	if !strings.Contains(out, "alice") {
		t.Fatalf("expected alice in employee list, got %q", out)
	}

	out, errOut, code = h.run("surveys", "assign", "-s", "1", "--users", " ,"+strconv.Itoa(emp.ID)+", ")
	if code != 0 || !strings.Contains(out, "Survey assigned successfully") {
		t.Fatalf("assign failed: %d %q %q", code, out, errOut)
	}

	out, _, code = h.run("surveys", "results", "-s", "1")
	if code != 0 || !strings.Contains(out, "0 responses") {
		t.Fatalf("expected empty results, got %d %q", code, out)
	}

	if _, _, code := h.run("logout"); code != 0 {
		t.Fatalf("logout failed")
	}
	if _, errOut, code := h.run("login", "-u", "alice", "-p", "pw1234"); code != 0 {
		t.Fatalf("employee login failed: %s", errOut)
	}

	_, errOut, code = h.run("surveys", "results", "-s", "1")
	if code != 1 || !strings.Contains(errOut, "admin role") {
		t.Fatalf("expected admin-only error, got %d %q", code, errOut)
	}

	_, errOut, code = h.run("surveys", "respond", "-s", "1", "-a", "q1=Great team", "-a", "q2=9", "-a", "q3=yes")
	if code != 2 || !strings.Contains(errOut, "between 1 and 5") {
		t.Fatalf("expected rating validation, got %d %q", code, errOut)
	}
	out, errOut, code = h.run("surveys", "respond", "-s", "1", "-a", "q1=Great team", "-a", "q2=4", "-a", "q3=yes")
	if code != 0 || !strings.Contains(out, "Response submitted successfully") {
		t.Fatalf("respond failed: %d %q %q", code, out, errOut)
	}

	_, _, _ = h.run("logout")
	_, _, _ = h.run("login", "-u", "admin", "-p", "admin123")
	out, errOut, code = h.run("surveys", "report", "-s", "1", "--text")
	if code != 0 {
		t.Fatalf("report failed: %d %q", code, errOut)
	}
	for _, want := range []string{"alice", "positive", "Total responses: 1", "Great team"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report output missing %q: %q", want, out)
		}
	}

	out, _, _ = h.run("activity", "-n", "3")
	if !strings.Contains(out, "auth.login") {
		t.Fatalf("expected activity entries, got %q", out)
	}
}

func TestHealthAndNetworkFailure(t *testing.T) {
	h := newHarness(t)
	out, _, code := h.run("health")
	if code != 0 || !strings.HasPrefix(out, "ok ") {
		t.Fatalf("unexpected health output %d %q", code, out)
	}

	cfg := config.Config{
		API:     config.APIConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Session: config.SessionConfig{Backend: config.BackendMemory},
	}
	dead, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("app.New() error: %v", err)
	}
	h.app = dead
	_, errOut, code := h.run("health")
	if code != 3 || !strings.Contains(errOut, "network error") {
		t.Fatalf("expected network failure exit, got %d %q", code, errOut)
	}
}

func TestRegisterUser(t *testing.T) {
	h := newHarness(t)
	out, errOut, code := h.run("users", "register", "-u", "carol", "-p", "secret1")
	if code != 0 || !strings.Contains(out, "Registered carol (employee)") {
		t.Fatalf("register failed: %d %q %q", code, out, errOut)
	}
	_, errOut, code = h.run("users", "register", "-u", "carol", "-p", "secret1")
	if code != 4 || !strings.Contains(errOut, "Username already registered") {
		t.Fatalf("expected duplicate error, got %d %q", code, errOut)
	}
}

func TestParseQuestion(t *testing.T) {
	cases := map[string]string{
		"How are you?":         "text_input|How are you?",
		"rating_5: Rate us":    "rating_5|Rate us",
		"yes_no:Recommend?":    "yes_no|Recommend?",
		"Note: free text here": "text_input|Note: free text here",
	}
	for in, want := range cases {
		q := parseQuestion(in)
		if got := string(q.Type) + "|" + q.Text; got != want {
			t.Fatalf("parseQuestion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 || ExitCode(ErrAdminOnly) != 1 {
		t.Fatalf("unexpected exit codes for plain errors")
	}
	if ExitCode(apiclient.Invalid("x", "y")) != 2 || ExitCode(&apiclient.NetworkError{}) != 3 || ExitCode(&apiclient.APIError{}) != 4 {
		t.Fatalf("unexpected exit codes for contract errors")
	}
}

func TestFailedCommandStillClosesApp(t *testing.T) {
	_, srv := fakeapi.Start(t, fakeapi.Config{})
	cfg := config.Config{
		API:     config.APIConfig{BaseURL: srv.URL},
		Session: config.SessionConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "session.db")},
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("app.New() error: %v", err)
	}

	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"surveys", "list"}, Options{
		Out: &out,
		Err: &errOut,
		NewApp: func(context.Context) (*app.App, error) {
			return a, nil
		},
	})
	if code != 1 || !strings.Contains(errOut.String(), "not signed in") {
		t.Fatalf("expected not-signed-in failure, got %d %q", code, errOut.String())
	}
	if err := a.Session.SetToken("late"); err == nil {
		t.Fatalf("expected session database to be closed after a failed command")
	}
}

func TestLoginWithUnrecognizedRoleIsIncomplete(t *testing.T) {
	h := newHarness(t)
	if _, err := h.api.AddUser("mona", "pw1234", "manager"); err != nil {
		t.Fatalf("AddUser() error: %v", err)
	}

	out, errOut, code := h.run("login", "-u", "mona", "-p", "pw1234")
	if code != 1 || !strings.Contains(errOut, "no known role") || strings.Contains(out, "Signed in") {
		t.Fatalf("expected incomplete login, got %d %q %q", code, out, errOut)
	}
	out, _, _ = h.run("status")
	if !strings.Contains(out, "authenticating") || !strings.Contains(out, "sign-in") {
		t.Fatalf("unexpected status output %q", out)
	}
}
