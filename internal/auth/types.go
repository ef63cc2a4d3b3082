package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid auth state transition")
	ErrNoRole            = errors.New("identity response carried no known role")
)

// State is where the client is in the two-step sign-in.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type event int

const (
	evLoginStarted event = iota
	evTokenIssued
	evRoleConfirmed
	evRoleFailed
	evLoggedOut
)

func (e event) String() string {
	switch e {
	case evLoginStarted:
		return "login_started"
	case evTokenIssued:
		return "token_issued"
	case evRoleConfirmed:
		return "role_confirmed"
	case evRoleFailed:
		return "role_failed"
	case evLoggedOut:
		return "logged_out"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var transitions = map[State]map[event]State{
	Anonymous: {
		evLoginStarted: Authenticating,
		evRoleFailed:   Anonymous,
		evLoggedOut:    Anonymous,
	},
	Authenticating: {
		evLoginStarted:  Authenticating,
		evTokenIssued:   Authenticating,
		evRoleConfirmed: Authenticated,
		evRoleFailed:    Authenticating,
		evLoggedOut:     Anonymous,
	},
	Authenticated: {
		evLoginStarted:  Authenticating,
		evRoleConfirmed: Authenticated,
		evRoleFailed:    Authenticating,
		evLoggedOut:     Anonymous,
	},
}

// transition is the only place the state changes. Authenticated is reachable
// only through evRoleConfirmed.
func transition(from State, ev event) (State, error) {
	next, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, ev)
	}
	return next, nil
}

// View is the screen a front end should show for the current session.
type View int

const (
	ViewSignIn View = iota
	ViewAdmin
	ViewEmployee
)

func (v View) String() string {
	switch v {
	case ViewAdmin:
		return "admin"
	case ViewEmployee:
		return "employee"
	default:
		return "sign-in"
	}
}
