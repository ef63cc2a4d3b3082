package surveys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/models"
)

type ServiceConfig struct {
	Logger *slog.Logger
}

// Service is the typed surface over the survey API. Every call except Health
// carries the stored bearer token; nothing is retried.
type Service struct {
	api apiclient.Doer
	log *slog.Logger
}

func NewService(api apiclient.Doer, cfg ServiceConfig) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{api: api, log: logger}, nil
}

func (s *Service) ListSurveys(ctx context.Context) ([]models.Survey, error) {
	out, err := apiclient.Call[[]models.Survey](ctx, s.api, get("/surveys/"))
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (s *Service) CreateSurvey(ctx context.Context, in models.NewSurvey) (models.Survey, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := ValidateSurvey(in); err != nil {
		s.log.Debug("survey rejected before send", "error", err)
		return models.Survey{}, err
	}
	return apiclient.Call[models.Survey](ctx, s.api, post("/surveys/", in))
}

func (s *Service) AssignSurvey(ctx context.Context, a models.Assignment) (models.Ack, error) {
	if a.SurveyID <= 0 {
		return models.Ack{}, apiclient.Invalid("survey_id", "must be a positive integer")
	}
	ids := cleanIDs(a.UserIDs)
	if len(ids) == 0 {
		return models.Ack{}, apiclient.Invalid("user_ids", "at least one user id is required")
	}
	a.UserIDs = ids
	return apiclient.Call[models.Ack](ctx, s.api, post("/survey-assignments/", a))
}

// SubmitResponse checks the answers against the survey's questions before
// sending them.
func (s *Service) SubmitResponse(ctx context.Context, survey models.Survey, answers map[string]string) (models.Ack, error) {
	if survey.ID <= 0 {
		return models.Ack{}, apiclient.Invalid("survey_id", "must be a positive integer")
	}
	cleaned, err := ValidateAnswers(survey, answers)
	if err != nil {
		s.log.Debug("response rejected before send", "survey_id", survey.ID, "error", err)
		return models.Ack{}, err
	}
	return apiclient.Call[models.Ack](ctx, s.api, post("/survey-responses/", models.ResponseSubmission{
		SurveyID: survey.ID,
		Answers:  cleaned,
	}))
}

// ListResponses returns the responses for a survey. No responses is an empty
// slice, not an error.
func (s *Service) ListResponses(ctx context.Context, surveyID int) ([]models.SurveyResponse, error) {
	if err := checkID(surveyID); err != nil {
		return nil, err
	}
	out, err := apiclient.Call[[]models.SurveyResponse](ctx, s.api, get("/survey-responses/"+strconv.Itoa(surveyID)))
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]models.User, error) {
	out, err := apiclient.Call[[]models.User](ctx, s.api, get("/employees/"))
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (s *Service) RegisterUser(ctx context.Context, in models.NewUser) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return models.User{}, apiclient.Invalid("username", "must not be empty")
	}
	if in.Password == "" {
		return models.User{}, apiclient.Invalid("password", "must not be empty")
	}
	role := models.ParseRole(in.Role)
	if !role.Known() {
		return models.User{}, apiclient.Invalid("role", "must be %q or %q", models.RoleAdmin, models.RoleEmployee)
	}
	in.Role = string(role)
	return apiclient.Call[models.User](ctx, s.api, post("/users/", in))
}

func (s *Service) Health(ctx context.Context) (models.Health, error) {
	return apiclient.Call[models.Health](ctx, s.api, apiclient.Request{Method: http.MethodGet, Path: "/health"})
}

func (s *Service) Distribution(ctx context.Context, surveyID int) (models.Distribution, error) {
	if err := checkID(surveyID); err != nil {
		return models.Distribution{}, err
	}
	return apiclient.Call[models.Distribution](ctx, s.api, get(analysisPath(surveyID, "distribution")))
}

func (s *Service) TextData(ctx context.Context, surveyID int) (models.TextData, error) {
	if err := checkID(surveyID); err != nil {
		return models.TextData{}, err
	}
	return apiclient.Call[models.TextData](ctx, s.api, get(analysisPath(surveyID, "text-data")))
}

func (s *Service) ReportTable(ctx context.Context, surveyID int) ([]models.ReportRow, error) {
	if err := checkID(surveyID); err != nil {
		return nil, err
	}
	out, err := apiclient.Call[[]models.ReportRow](ctx, s.api, get(analysisPath(surveyID, "report-table")))
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func get(path string) apiclient.Request {
	return apiclient.Request{Method: http.MethodGet, Path: path, Auth: true}
}

func post(path string, body any) apiclient.Request {
	return apiclient.Request{Method: http.MethodPost, Path: path, JSON: body, Auth: true}
}

func analysisPath(surveyID int, view string) string {
	return "/analysis/survey/" + strconv.Itoa(surveyID) + "/" + view
}

func checkID(id int) error {
	if id <= 0 {
		return apiclient.Invalid("survey_id", "must be a positive integer")
	}
	return nil
}

// nonNil turns a JSON null into an empty slice.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
