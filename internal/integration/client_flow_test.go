package integration

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/auth"
	"employeesurvey/survey-client/internal/models"
	"employeesurvey/survey-client/internal/session"
	"employeesurvey/survey-client/internal/surveys"
	"employeesurvey/survey-client/internal/testkit/fakeapi"
)

type client struct {
	store   *session.Store
	auth    *auth.Service
	surveys *surveys.Service
}

func newClient(t *testing.T, baseURL string) client {
	t.Helper()
	store := session.NewMemoryStore()
	api, err := apiclient.New(apiclient.Config{BaseURL: baseURL}, store)
	if err != nil {
		t.Fatalf("apiclient.New() error: %v", err)
	}
	authSvc, err := auth.NewService(api, store, auth.ServiceConfig{})
	if err != nil {
		t.Fatalf("auth.NewService() error: %v", err)
	}
	surveySvc, err := surveys.NewService(api, surveys.ServiceConfig{})
	if err != nil {
		t.Fatalf("surveys.NewService() error: %v", err)
	}
	return client{store: store, auth: authSvc, surveys: surveySvc}
}

func TestSurveyRoundTripAgainstFakeAPI(t *testing.T) {
	api, srv := fakeapi.Start(t, fakeapi.Config{})
	_, _ = api.AddUser("admin", "admin123", "admin")
	emp, _ := api.AddUser("alice", "pw1234", "employee")
	ctx := context.Background()

	admin := newClient(t, srv.URL)
	if _, err := admin.auth.SignIn(ctx, models.Credentials{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("admin SignIn() error: %v", err)
	}
	created, err := admin.surveys.CreateSurvey(ctx, models.NewSurvey{
		Title: "Quarterly pulse",
		Questions: []models.Question{
			{Text: "What went well?", Type: models.QuestionTextInput},
			{Text: "Rate your workload", Type: models.QuestionRating5},
		},
	})
	if err != nil {
		t.Fatalf("CreateSurvey() error: %v", err)
	}

	empty, err := admin.surveys.ListResponses(ctx, created.ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no responses yet, got %v / %v", empty, err)
	}

	if _, err := admin.surveys.AssignSurvey(ctx, models.Assignment{SurveyID: created.ID, UserIDs: []string{strconv.Itoa(emp.ID)}}); err != nil {
		t.Fatalf("AssignSurvey() error: %v", err)
	}

	employee := newClient(t, srv.URL)
	if _, err := employee.auth.SignIn(ctx, models.Credentials{Username: "alice", Password: "pw1234"}); err != nil {
		t.Fatalf("employee SignIn() error: %v", err)
	}
	list, err := employee.surveys.ListSurveys(ctx)
	if err != nil || len(list) != 1 || !list[0].Published {
		t.Fatalf("unexpected survey list %+v / %v", list, err)
	}
	sheet := surveys.NewAnswerSheet(list[0])
	sheet["q1"] = "I feel exhausted and overwhelmed"
	sheet["q2"] = "1"
	if _, err := employee.surveys.SubmitResponse(ctx, list[0], sheet); err != nil {
		t.Fatalf("SubmitResponse() error: %v", err)
	}

	if _, err := employee.surveys.ListResponses(ctx, created.ID); err == nil || err.Error() != "Not authorized" {
		t.Fatalf("expected employee to be refused results, got %v", err)
	}

	responses, err := admin.surveys.ListResponses(ctx, created.ID)
	if err != nil || len(responses) != 1 {
		t.Fatalf("unexpected responses %+v / %v", responses, err)
	}
	local := surveys.Summarize(responses)
	remote, err := admin.surveys.Distribution(ctx, created.ID)
	if err != nil {
		t.Fatalf("Distribution() error: %v", err)
	}
	if local.TotalResponses != remote.TotalResponses || local.BurnoutRiskDistribution[0].Label != "high" {
		t.Fatalf("local %+v and remote %+v summaries disagree", local, remote)
	}

	if err := employee.auth.Logout(); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	_, err = employee.surveys.ListSurveys(ctx)
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %v", err)
	}
}
