package domain

type SessionState int

const (
	Anonymous SessionState = iota
	Authenticated
	Expired
)

func (s SessionState) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// TransitionReason tells listeners why the session moved.
type TransitionReason string

const (
	ReasonRestored TransitionReason = "restored"
	ReasonLogin    TransitionReason = "login"
	ReasonRegister TransitionReason = "register"
	ReasonExpired  TransitionReason = "expired"
	ReasonLogout   TransitionReason = "logout"
	ReasonCleared  TransitionReason = "cleared"
)

// SessionTransition is published on every session state change.
type SessionTransition struct {
	From   SessionState
	To     SessionState
	Reason TransitionReason
}
