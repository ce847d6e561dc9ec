//go:generate go run go.uber.org/mock/mockgen -source=credential.go -destination=../mocks/mock_credential_store.go -package=mocks
package repositories

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"log/slog"
)

const (
	tokenKey       = "credential:token"
	displayNameKey = "credential:display_name"
)

// IKeyValue is the durable client-side storage capability. SetAll writes
// every pair or none of them.
type IKeyValue interface {
	Get(key string) (string, bool, error)
	SetAll(values map[string]string) error
	Remove(keys ...string) error
}

type ICredentialStore interface {
	Load() (domain.Credential, bool)
	Save(credential domain.Credential) error
	Clear() error
}

type CredentialStore struct {
	kv  IKeyValue
	log *slog.Logger
}

func NewCredentialStore(kv IKeyValue, log *slog.Logger) ICredentialStore {
	return &CredentialStore{kv: kv, log: log}
}

// Load never fails: storage errors are logged and reported as absence.
// A record missing either key is treated as absent.
func (s *CredentialStore) Load() (domain.Credential, bool) {
	token, okToken, err := s.kv.Get(tokenKey)
	if err != nil {
		s.log.Warn("Unable to read stored token", "error", err)
		return domain.Credential{}, false
	}
	name, okName, err := s.kv.Get(displayNameKey)
	if err != nil {
		s.log.Warn("Unable to read stored display name", "error", err)
		return domain.Credential{}, false
	}
	credential := domain.Credential{Token: token, DisplayName: name}
	if !okToken || !okName || !credential.Complete() {
		if okToken || okName {
			s.log.Debug("Ignoring partial stored credential")
		}
		return domain.Credential{}, false
	}
	return credential, true
}

func (s *CredentialStore) Save(credential domain.Credential) error {
	if !credential.Complete() {
		return errors.ErrIncompleteCred
	}
	return s.kv.SetAll(map[string]string{
		tokenKey:       credential.Token,
		displayNameKey: credential.DisplayName,
	})
}

func (s *CredentialStore) Clear() error {
	return s.kv.Remove(tokenKey, displayNameKey)
}
