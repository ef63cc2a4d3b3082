package session

import (
	"fmt"
	"strings"
	"sync"
)

// Fixed persistence keys for the two session values.
const (
	TokenKey = "userToken"
	RoleKey  = "userRole"
)

type Snapshot struct {
	Token string `json:"token,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (s Snapshot) HasToken() bool { return s.Token != "" }
func (s Snapshot) HasRole() bool  { return s.Role != "" }

// Persister saves the full key/value set of a session. Save always receives
// every key that should survive; missing keys are removed.
type Persister interface {
	Load() (map[string]string, error)
	Save(values map[string]string) error
}

// Store holds the bearer token and role for the current user. Token and role
// are independent: a token may be present before its role is confirmed.
type Store struct {
	persister Persister

	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns a store that is never persisted.
func NewMemoryStore() *Store {
	return &Store{values: make(map[string]string)}
}

// Open restores a store from p.
func Open(p Persister) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("session persister is required")
	}
	loaded, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s := &Store{persister: p, values: make(map[string]string)}
	putValue(s.values, TokenKey, loaded[TokenKey])
	putValue(s.values, RoleKey, loaded[RoleKey])
	return s, nil
}

func (s *Store) Set(token, role string) error {
	return s.update(func(v map[string]string) {
		putValue(v, TokenKey, token)
		putValue(v, RoleKey, role)
	})
}

func (s *Store) SetToken(token string) error {
	return s.update(func(v map[string]string) {
		putValue(v, TokenKey, token)
	})
}

func (s *Store) SetRole(role string) error {
	return s.update(func(v map[string]string) {
		putValue(v, RoleKey, role)
	})
}

// Clear removes both values. The in-memory state is cleared even when the
// persister fails, so no later request can pick up the old token.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	if err := s.persistLocked(); err != nil {
		return err
	}
	return nil
}

func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[TokenKey]
	return v, ok
}

func (s *Store) Role() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[RoleKey]
	return v, ok
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Token: s.values[TokenKey], Role: s.values[RoleKey]}
}

func (s *Store) update(fn func(map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := cloneValues(s.values)
	fn(s.values)
	if err := s.persistLocked(); err != nil {
		s.values = prev
		return err
	}
	return nil
}

func (s *Store) persistLocked() error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(cloneValues(s.values)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func putValue(m map[string]string, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		delete(m, key)
		return
	}
	m[key] = value
}

func cloneValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
