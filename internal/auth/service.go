package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/models"
	"employeesurvey/survey-client/internal/session"
)

type ActivityLogger interface {
	Log(actor, action, outcome, detail string) error
}

type ServiceConfig struct {
	Activity ActivityLogger
	Logger   *slog.Logger
}

// Service runs the two-step sign-in: exchange credentials for a token, then
// confirm the role with that token.
type Service struct {
	api      apiclient.Doer
	session  *session.Store
	activity ActivityLogger
	log      *slog.Logger

	mu    sync.Mutex
	state State
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func NewService(api apiclient.Doer, store *session.Store, cfg ServiceConfig) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Service{
		api:      api,
		session:  store,
		activity: cfg.Activity,
		log:      logger,
	}
	s.state = stateFor(store.Snapshot())
	return s, nil
}

// stateFor derives the state of a restored session.
func stateFor(snap session.Snapshot) State {
	switch {
	case snap.HasToken() && models.ParseRole(snap.Role).Known():
		return Authenticated
	case snap.HasToken():
		return Authenticating
	default:
		return Anonymous
	}
}

// Restore re-derives the state from the session store, for when another
// process may have changed it.
func (s *Service) Restore() State {
	st := stateFor(s.session.Snapshot())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	return st
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View maps the session onto a screen. Unrecognized roles get the sign-in view.
func (s *Service) View() View {
	if s.State() != Authenticated {
		return ViewSignIn
	}
	role, _ := s.session.Role()
	switch models.ParseRole(role) {
	case models.RoleAdmin:
		return ViewAdmin
	case models.RoleEmployee:
		return ViewEmployee
	default:
		return ViewSignIn
	}
}

// Login exchanges credentials for a token and stores it. The session is not
// complete until ConfirmRole succeeds.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", apiclient.Invalid("username", "must not be empty")
	}
	if password == "" {
		return "", apiclient.Invalid("password", "must not be empty")
	}

	prev, err := s.advance(evLoginStarted)
	if err != nil {
		return "", err
	}

	tok, err := apiclient.Call[tokenResponse](ctx, s.api, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/token",
		Form:   url.Values{"username": {username}, "password": {password}},
	})
	if err == nil && strings.TrimSpace(tok.AccessToken) == "" {
		err = &apiclient.NetworkError{Message: "token response carried no access_token"}
	}
	if err != nil {
		s.reset(prev)
		s.record(username, "auth.login", "failed", err.Error())
		return "", err
	}

	// A new token invalidates whatever role belonged to the previous one.
	if err := s.session.Set(tok.AccessToken, ""); err != nil {
		s.reset(prev)
		return "", fmt.Errorf("store session token: %w", err)
	}
	if _, err := s.advance(evTokenIssued); err != nil {
		return "", err
	}
	s.record(username, "auth.login", "success", "")
	return tok.AccessToken, nil
}

// ConfirmRole fetches the identity behind the stored token and stores its
// role. Without a token the request goes out unauthenticated and the server's
// rejection is returned.
func (s *Service) ConfirmRole(ctx context.Context) (models.User, error) {
	s.adoptToken()
	user, err := apiclient.Call[models.User](ctx, s.api, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/users/me",
		Auth:   true,
	})
	if err == nil && !models.ParseRole(user.Role).Known() {
		err = fmt.Errorf("%w: %q", ErrNoRole, user.Role)
	}
	if err != nil {
		_, _ = s.advance(evRoleFailed)
		s.record(user.Username, "auth.role", "failed", err.Error())
		return models.User{}, err
	}

	if _, err := transition(s.State(), evRoleConfirmed); err != nil {
		return models.User{}, err
	}
	if err := s.session.SetRole(user.Role); err != nil {
		_, _ = s.advance(evRoleFailed)
		return models.User{}, fmt.Errorf("store session role: %w", err)
	}
	if _, err := s.advance(evRoleConfirmed); err != nil {
		return models.User{}, err
	}
	s.record(user.Username, "auth.role", "success", user.Role)
	return user, nil
}

// SignIn runs Login then ConfirmRole. It succeeds only when both do.
func (s *Service) SignIn(ctx context.Context, creds models.Credentials) (models.User, error) {
	if _, err := s.Login(ctx, creds.Username, creds.Password); err != nil {
		return models.User{}, err
	}
	user, err := s.ConfirmRole(ctx)
	if err != nil {
		return models.User{}, err
	}
	if user.Username == "" {
		user.Username = creds.Username
	}
	return user, nil
}

// Logout clears the local session. The server is not contacted.
func (s *Service) Logout() error {
	snap := s.session.Snapshot()
	err := s.session.Clear()
	_, _ = s.advance(evLoggedOut)

	actor := ""
	if info, ierr := session.InspectToken(snap.Token); ierr == nil {
		actor = info.Subject
	}
	if err != nil {
		s.record(actor, "auth.logout", "failed", err.Error())
		return fmt.Errorf("clear session: %w", err)
	}
	s.record(actor, "auth.logout", "success", "")
	return nil
}

func (s *Service) advance(ev event) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next, err := transition(prev, ev)
	if err != nil {
		return prev, err
	}
	s.state = next
	if next != prev {
		s.log.Debug("auth state changed", "from", prev.String(), "to", next.String(), "event", ev.String())
	}
	return prev, nil
}

// adoptToken moves an Anonymous service to Authenticating when the store
// already holds a token, e.g. one written by another process.
func (s *Service) adoptToken() {
	snap := s.session.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Anonymous && snap.HasToken() {
		s.state = Authenticating
	}
}

func (s *Service) reset(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func (s *Service) record(actor, action, outcome, detail string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Log(actor, action, outcome, detail); err != nil {
		s.log.Warn("activity log write failed", "action", action, "error", err)
	}
}
