//go:generate go run go.uber.org/mock/mockgen -source=session_service.go -destination=../mocks/mock_session_service.go -package=mocks
package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/repositories"
	"chat-sync/transport"
	"context"
	"log/slog"
	"sync"
)

// ISessionService is the single authority on whether authenticated calls
// may be made, and with which credential.
type ISessionService interface {
	Initialize()
	Register(ctx context.Context, username, password string) (domain.Credential, error)
	Login(ctx context.Context, username, password string) (domain.Credential, error)
	CurrentCredential() (domain.Credential, bool)
	State() domain.SessionState
	Invalidate()
	Logout()
	Profile(ctx context.Context) (domain.Profile, error)
	Subscribe(listener contract.Listener[domain.SessionTransition]) func()
}

type SessionService struct {
	mu          sync.RWMutex
	state       domain.SessionState
	credential  domain.Credential
	client      transport.IClient
	store       repositories.ICredentialStore
	log         *slog.Logger
	transitions Broadcaster[domain.SessionTransition]
}

func NewSessionService(client transport.IClient, store repositories.ICredentialStore, log *slog.Logger) *SessionService {
	return &SessionService{client: client, store: store, log: log, state: domain.Anonymous}
}

// Initialize restores a stored credential. Called once at process start.
func (s *SessionService) Initialize() {
	credential, ok := s.store.Load()

	s.mu.Lock()
	from := s.state
	if ok {
		s.state = domain.Authenticated
		s.credential = credential
	} else {
		s.state = domain.Anonymous
		s.credential = domain.Credential{}
	}
	to := s.state
	s.mu.Unlock()

	s.log.Debug("Session initialized", "state", to)
	if from != to {
		s.transitions.Publish(domain.SessionTransition{From: from, To: to, Reason: domain.ReasonRestored})
	}
}

func (s *SessionService) Register(ctx context.Context, username, password string) (domain.Credential, error) {
	credential, err := s.client.Register(ctx, username, password)
	if err != nil {
		s.log.Info("Registration failed", "username", username, "error", err)
		return domain.Credential{}, err
	}
	if err := s.authenticate(credential, domain.ReasonRegister); err != nil {
		return domain.Credential{}, err
	}
	return credential, nil
}

// Login stores the returned token with the username as display name.
func (s *SessionService) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.log.Info("Login failed", "username", username, "error", err)
		return domain.Credential{}, err
	}
	credential := domain.Credential{Token: token, DisplayName: username}
	if err := s.authenticate(credential, domain.ReasonLogin); err != nil {
		return domain.Credential{}, err
	}
	return credential, nil
}

// authenticate refuses a credential missing either field, leaving the
// session as it was.
func (s *SessionService) authenticate(credential domain.Credential, reason domain.TransitionReason) error {
	if !credential.Complete() {
		s.log.Warn("Backend accepted the request but returned an incomplete credential", "reason", reason)
		return errors.ServerRejected("incomplete credential in the response", 0, errors.ErrIncompleteCred)
	}
	// The in-memory copy is authoritative, the store only mirrors it.
	if err := s.store.Save(credential); err != nil {
		s.log.Warn("Unable to persist credential", "error", err)
	}

	s.mu.Lock()
	from := s.state
	s.state = domain.Authenticated
	s.credential = credential
	s.mu.Unlock()

	s.log.Info("Session authenticated", "display_name", credential.DisplayName, "reason", reason)
	s.transitions.Publish(domain.SessionTransition{From: from, To: domain.Authenticated, Reason: reason})
	return nil
}

// CurrentCredential is the only read path for authenticated calls. Callers
// must re-read it before each call rather than keep it across I/O.
func (s *SessionService) CurrentCredential() (domain.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != domain.Authenticated {
		return domain.Credential{}, false
	}
	return s.credential, true
}

func (s *SessionService) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Invalidate is the only way out of Authenticated. Idempotent.
func (s *SessionService) Invalidate() {
	s.end(domain.ReasonExpired)
}

// Logout behaves like Invalidate but is reported as user initiated.
func (s *SessionService) Logout() {
	s.end(domain.ReasonLogout)
}

func (s *SessionService) end(reason domain.TransitionReason) {
	if err := s.store.Clear(); err != nil {
		s.log.Warn("Unable to clear stored credential", "error", err)
	}

	s.mu.Lock()
	from := s.state
	s.credential = domain.Credential{}
	s.state = domain.Anonymous
	s.mu.Unlock()

	if from != domain.Authenticated {
		return
	}
	s.log.Info("Session ended", "reason", reason)
	s.transitions.Publish(domain.SessionTransition{From: domain.Authenticated, To: domain.Expired, Reason: reason})
	s.transitions.Publish(domain.SessionTransition{From: domain.Expired, To: domain.Anonymous, Reason: domain.ReasonCleared})
}

// Profile fetches the member behind the current credential. A rejected
// credential comes back as an Unauthorized feed error, left to the caller.
func (s *SessionService) Profile(ctx context.Context) (domain.Profile, error) {
	credential, ok := s.CurrentCredential()
	if !ok {
		return domain.Profile{}, errors.ErrNotAuthenticated
	}
	return s.client.Profile(ctx, credential.Token)
}

func (s *SessionService) Subscribe(listener contract.Listener[domain.SessionTransition]) func() {
	return s.transitions.Subscribe(listener)
}
