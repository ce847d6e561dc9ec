//go:generate go run go.uber.org/mock/mockgen -source=member.go -destination=../mocks/mock_member_repository.go -package=mocks
package repositories

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const sequenceBandwidth = 100

type IMemberRepository interface {
	CreateMember(username, passwordHash string) (domain.Member, error)
	GetByUsername(username string) (domain.Member, error)
	GetByID(id int64) (domain.Member, error)
	UpdateTokenID(id int64, tokenID string) error
}

type MemberRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewMemberRepository(db *badger.DB) (*MemberRepository, error) {
	seq, err := db.GetSequence([]byte("seq:member"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("member sequence: %w", err)
	}
	return &MemberRepository{db: db, seq: seq}, nil
}

// Close returns the unused part of the id lease.
func (r *MemberRepository) Close() error {
	return r.seq.Release()
}

type storedMember struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	TokenID      string    `json:"token_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func memberKey(id int64) []byte {
	return []byte(fmt.Sprintf("member:id:%019d", id))
}

func usernameKey(username string) []byte {
	return []byte("member:name:" + username)
}

// CreateMember persists a member and its username index in one transaction.
func (r *MemberRepository) CreateMember(username, passwordHash string) (domain.Member, error) {
	next, err := r.seq.Next()
	if err != nil {
		return domain.Member{}, fmt.Errorf("next member id: %w", err)
	}
	member := storedMember{
		ID:           int64(next) + 1,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(member)
	if err != nil {
		return domain.Member{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(usernameKey(username), []byte(strconv.FormatInt(member.ID, 10))); err != nil {
			return err
		}
		return txn.Set(memberKey(member.ID), data)
	})
	if err != nil {
		return domain.Member{}, err
	}
	return toMember(member), nil
}

func (r *MemberRepository) GetByUsername(username string) (domain.Member, error) {
	var member storedMember
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return err
		}
		return readMember(txn, id, &member)
	})
	if err != nil {
		return domain.Member{}, notFound(err)
	}
	return toMember(member), nil
}

func (r *MemberRepository) GetByID(id int64) (domain.Member, error) {
	var member storedMember
	err := r.db.View(func(txn *badger.Txn) error {
		return readMember(txn, id, &member)
	})
	if err != nil {
		return domain.Member{}, notFound(err)
	}
	return toMember(member), nil
}

// UpdateTokenID makes tokenID the only token id accepted for the member.
func (r *MemberRepository) UpdateTokenID(id int64, tokenID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		var member storedMember
		if err := readMember(txn, id, &member); err != nil {
			return err
		}
		member.TokenID = tokenID
		data, err := json.Marshal(member)
		if err != nil {
			return err
		}
		return txn.Set(memberKey(id), data)
	})
	return notFound(err)
}

func readMember(txn *badger.Txn, id int64, member *storedMember) error {
	item, err := txn.Get(memberKey(id))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, member)
	})
}

func notFound(err error) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrUserNotFound
	}
	return err
}

func toMember(m storedMember) domain.Member {
	return domain.Member{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		TokenID:      m.TokenID,
		CreatedAt:    m.CreatedAt,
	}
}
