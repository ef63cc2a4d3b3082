// Package fakeapi is an in-memory implementation of the survey backend's HTTP
// contract, for exercising the client end to end in tests.
package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"employeesurvey/survey-client/internal/models"
)

type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	Annotate Annotator
	Logger   *slog.Logger
}

type Server struct {
	store    *store
	secret   []byte
	ttl      time.Duration
	annotate Annotator
	log      *slog.Logger
	nowFunc  func() time.Time
	handler  http.Handler
}

func New(cfg Config) *Server {
	s := &Server{
		store:    newStore(),
		secret:   cfg.Secret,
		ttl:      cfg.TokenTTL,
		annotate: cfg.Annotate,
		log:      cfg.Logger,
		nowFunc:  time.Now,
	}
	if len(s.secret) == 0 {
		s.secret = []byte(uuid.NewString())
	}
	if s.ttl <= 0 {
		s.ttl = 30 * time.Minute
	}
	if s.annotate == nil {
		s.annotate = KeywordAnnotator
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.handler = s.loggingMiddleware(s.routes())
	return s
}

// Start serves the fake API on a loopback port until the test ends.
func Start(t testing.TB, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	s := New(cfg)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// AddUser registers an account directly, bypassing the HTTP surface.
func (s *Server) AddUser(username, password, role string) (models.User, error) {
	u, err := s.store.addUser(username, password, role)
	if err != nil {
		return models.User{}, err
	}
	return u.public(), nil
}

// IssueToken signs a token for username as /token would.
func (s *Server) IssueToken(username string) (string, error) {
	now := s.nowFunc()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.Health{Status: "ok", Time: s.nowFunc().UTC().Format(time.RFC3339)})
	})

	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("POST /users/", s.handleCreateUser)
	mux.HandleFunc("GET /users/me", s.authed(false, func(w http.ResponseWriter, _ *http.Request, u userRecord) {
		writeJSON(w, http.StatusOK, models.User{Username: u.Username, Role: u.Role})
	}))
	mux.HandleFunc("GET /employees/", s.authed(false, func(w http.ResponseWriter, _ *http.Request, _ userRecord) {
		writeJSON(w, http.StatusOK, s.store.usersWithRole(string(models.RoleEmployee)))
	}))

	mux.HandleFunc("GET /surveys/", s.authed(false, func(w http.ResponseWriter, _ *http.Request, _ userRecord) {
		writeJSON(w, http.StatusOK, s.store.listSurveys())
	}))
	mux.HandleFunc("POST /surveys/", s.authed(true, s.handleCreateSurvey))
	mux.HandleFunc("POST /survey-assignments/", s.authed(true, s.handleAssign))
	mux.HandleFunc("POST /survey-responses/", s.authed(false, s.handleSubmit))
	mux.HandleFunc("GET /survey-responses/{id}", s.authed(true, s.handleResponses))

	mux.HandleFunc("GET /analysis/survey/{id}/distribution", s.authed(true, s.handleDistribution))
	mux.HandleFunc("GET /analysis/survey/{id}/text-data", s.authed(true, s.handleTextData))
	mux.HandleFunc("GET /analysis/survey/{id}/report-table", s.authed(true, s.handleReportTable))
	return mux
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form body")
		return
	}
	var missing []fieldError
	for _, f := range []string{"username", "password"} {
		if r.PostForm.Get(f) == "" {
			missing = append(missing, required("body", f))
		}
	}
	if len(missing) > 0 {
		writeValidation(w, missing)
		return
	}

	u, ok := s.store.authenticate(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Incorrect username or password")
		return
	}
	token, err := s.IssueToken(u.Username)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.NewUser
	if !decodeBody(w, r, &req) {
		return
	}
	var errs []fieldError
	if req.Username == "" {
		errs = append(errs, required("body", "username"))
	}
	switch {
	case req.Password == "":
		errs = append(errs, required("body", "password"))
	case len(req.Password) < 6:
		errs = append(errs, fieldError{Loc: []any{"body", "password"}, Msg: "ensure this value has at least 6 characters", Type: "value_error"})
	case len(req.Password) > 72:
		errs = append(errs, fieldError{Loc: []any{"body", "password"}, Msg: "Password is too long (max 72 bytes)", Type: "value_error"})
	}
	if req.Role == "" {
		errs = append(errs, required("body", "role"))
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	u, err := s.store.addUser(req.Username, req.Password, req.Role)
	if errors.Is(err, errUserExists) {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not create user")
		return
	}
	writeJSON(w, http.StatusCreated, models.User{Username: u.Username, Role: u.Role})
}

func (s *Server) handleCreateSurvey(w http.ResponseWriter, r *http.Request, _ userRecord) {
	var req struct {
		Title     *string           `json:"title"`
		Questions []models.Question `json:"questions"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	var errs []fieldError
	if req.Title == nil {
		errs = append(errs, required("body", "title"))
	}
	if req.Questions == nil {
		errs = append(errs, required("body", "questions"))
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}
	writeJSON(w, http.StatusOK, s.store.createSurvey(models.NewSurvey{Title: *req.Title, Questions: req.Questions}))
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request, _ userRecord) {
	var req models.Assignment
	if !decodeBody(w, r, &req) {
		return
	}
	ids := make([]int, 0, len(req.UserIDs))
	for i, raw := range req.UserIDs {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			writeValidation(w, []fieldError{{Loc: []any{"body", "user_ids", i}, Msg: "value is not a valid integer", Type: "type_error.integer"}})
			return
		}
		ids = append(ids, id)
	}
	if err := s.store.assign(req.SurveyID, ids); err != nil {
		writeDetail(w, http.StatusNotFound, "Survey not found")
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Detail: "Survey assigned successfully"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, u userRecord) {
	var req models.ResponseSubmission
	if !decodeBody(w, r, &req) {
		return
	}
	sentiment, burnout := s.annotate(req.Answers)
	if err := s.store.addResponse(u, req.SurveyID, req.Answers, sentiment, burnout); err != nil {
		writeDetail(w, http.StatusForbidden, "User not assigned to this survey")
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Detail: "Response submitted successfully"})
}

func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request, _ userRecord) {
	recs, ok := s.responsesFromPath(w, r)
	if !ok {
		return
	}
	out := make([]models.SurveyResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.SurveyResponse)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request, _ userRecord) {
	id, ok := surveyIDFromPath(w, r)
	if !ok {
		return
	}
	if !s.store.surveyExists(id) {
		writeDetail(w, http.StatusNotFound, "Survey not found")
		return
	}
	recs, _ := s.store.responsesFor(id)

	var sentiment, burnout []models.Bucket
	for _, rec := range recs {
		sentiment = bump(sentiment, labelOrUnknown(rec.Sentiment))
		burnout = bump(burnout, labelOrUnknown(rec.BurnoutRisk))
	}
	writeJSON(w, http.StatusOK, models.Distribution{
		SentimentDistribution:   nonNilBuckets(sentiment),
		BurnoutRiskDistribution: nonNilBuckets(burnout),
		TotalResponses:          len(recs),
	})
}

func (s *Server) handleTextData(w http.ResponseWriter, r *http.Request, _ userRecord) {
	recs, ok := s.responsesFromPath(w, r)
	if !ok {
		return
	}
	var parts []string
	for _, rec := range recs {
		for i := 1; i <= len(rec.Answers); i++ {
			if v, ok := rec.Answers["q"+strconv.Itoa(i)]; ok {
				parts = append(parts, v)
			}
		}
	}
	writeJSON(w, http.StatusOK, models.TextData{AllAnswersText: strings.Join(parts, " ")})
}

func (s *Server) handleReportTable(w http.ResponseWriter, r *http.Request, _ userRecord) {
	recs, ok := s.responsesFromPath(w, r)
	if !ok {
		return
	}
	out := make([]models.ReportRow, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.ReportRow{
			ResponseID:  rec.ID,
			UserID:      rec.UserID,
			Username:    rec.Username,
			Sentiment:   rec.Sentiment,
			BurnoutRisk: rec.BurnoutRisk,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) responsesFromPath(w http.ResponseWriter, r *http.Request) ([]responseRecord, bool) {
	id, ok := surveyIDFromPath(w, r)
	if !ok {
		return nil, false
	}
	recs, err := s.store.responsesFor(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Survey not found")
		return nil, false
	}
	return recs, true
}

// authed resolves the bearer token to a user before calling next. adminOnly
// rejects everyone else with 403.
func (s *Server) authed(adminOnly bool, next func(http.ResponseWriter, *http.Request, userRecord)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		u, err := s.userForToken(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if adminOnly && !strings.EqualFold(u.Role, string(models.RoleAdmin)) {
			writeDetail(w, http.StatusForbidden, "Not authorized")
			return
		}
		next(w, r, u)
	}
}

func (s *Server) userForToken(token string) (userRecord, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.nowFunc))
	if err != nil {
		return userRecord{}, err
	}
	if claims.Subject == "" {
		return userRecord{}, fmt.Errorf("token has no subject")
	}
	return s.store.user(claims.Subject)
}

func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func surveyIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeValidation(w, []fieldError{{Loc: []any{"path", "survey_id"}, Msg: "value is not a valid integer", Type: "type_error.integer"}})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidation(w, []fieldError{{Loc: []any{"body"}, Msg: "invalid JSON body", Type: "value_error.jsondecode"}})
		return false
	}
	return true
}

func labelOrUnknown(v *string) string {
	if v == nil || *v == "" {
		return "Unknown"
	}
	return *v
}

func bump(buckets []models.Bucket, label string) []models.Bucket {
	for i := range buckets {
		if buckets[i].Label == label {
			buckets[i].Value++
			return buckets
		}
	}
	return append(buckets, models.Bucket{Label: label, Value: 1})
}

func nonNilBuckets(b []models.Bucket) []models.Bucket {
	if b == nil {
		return []models.Bucket{}
	}
	return b
}

type fieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

func required(parts ...any) fieldError {
	return fieldError{Loc: parts, Msg: "field required", Type: "value_error.missing"}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

func writeValidation(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string][]fieldError{"detail": errs})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("fakeapi request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", reqID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
