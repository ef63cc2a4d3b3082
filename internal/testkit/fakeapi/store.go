package fakeapi

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"employeesurvey/survey-client/internal/models"
)

var (
	errUserExists     = errors.New("username already registered")
	errUserNotFound   = errors.New("user not found")
	errSurveyNotFound = errors.New("survey not found")
	errNotAssigned    = errors.New("user not assigned to survey")
)

type userRecord struct {
	ID           int
	Username     string
	PasswordHash []byte
	Role         string
}

func (u userRecord) public() models.User {
	return models.User{ID: u.ID, Username: u.Username, Role: u.Role}
}

type responseRecord struct {
	models.SurveyResponse
	Username string
}

// store keeps everything in memory behind one lock.
type store struct {
	mu sync.RWMutex

	users     map[string]userRecord
	usersByID map[int]string
	nextUser  int

	surveys    map[int]models.Survey
	nextSurvey int

	assignments map[int]map[int]struct{}

	responses    []responseRecord
	nextResponse int
}

func newStore() *store {
	return &store{
		users:       make(map[string]userRecord),
		usersByID:   make(map[int]string),
		surveys:     make(map[int]models.Survey),
		assignments: make(map[int]map[int]struct{}),
	}
}

func (s *store) addUser(username, password, role string) (userRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return userRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return userRecord{}, errUserExists
	}
	s.nextUser++
	u := userRecord{ID: s.nextUser, Username: username, PasswordHash: hash, Role: role}
	s.users[username] = u
	s.usersByID[u.ID] = username
	return u, nil
}

func (s *store) authenticate(username, password string) (userRecord, bool) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return userRecord{}, false
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return userRecord{}, false
	}
	return u, true
}

func (s *store) user(username string) (userRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return userRecord{}, errUserNotFound
	}
	return u, nil
}

func (s *store) usersWithRole(role string) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.User{}
	for _, u := range s.users {
		if strings.EqualFold(u.Role, role) {
			out = append(out, u.public())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) createSurvey(in models.NewSurvey) models.Survey {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSurvey++
	sv := models.Survey{ID: s.nextSurvey, Title: in.Title, Questions: in.Questions}
	s.surveys[sv.ID] = sv
	return sv
}

func (s *store) listSurveys() []models.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, sv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) surveyExists(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.surveys[id]
	return ok
}

// assign replaces the survey's assignments with the known users among ids
// and publishes it. Unknown ids are skipped.
func (s *store) assign(surveyID int, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[surveyID]
	if !ok {
		return errSurveyNotFound
	}
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, known := s.usersByID[id]; known {
			set[id] = struct{}{}
		}
	}
	s.assignments[surveyID] = set
	sv.Published = true
	s.surveys[surveyID] = sv
	return nil
}

func (s *store) addResponse(u userRecord, surveyID int, answers map[string]string, sentiment, burnout string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[surveyID][u.ID]; !ok {
		return errNotAssigned
	}
	s.nextResponse++
	s.responses = append(s.responses, responseRecord{
		SurveyResponse: models.SurveyResponse{
			ID:          s.nextResponse,
			UserID:      u.ID,
			SurveyID:    surveyID,
			Answers:     answers,
			Sentiment:   &sentiment,
			BurnoutRisk: &burnout,
		},
		Username: u.Username,
	})
	return nil
}

func (s *store) responsesFor(surveyID int) ([]responseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []responseRecord{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		if _, ok := s.surveys[surveyID]; !ok {
			return nil, errSurveyNotFound
		}
	}
	return out, nil
}
