//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-sync/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const messagePrefix = "msg:"

type IMessageRepository interface {
	StoreMessage(memberID int64, author, text string, at time.Time) (domain.Message, error)
	GetMessages(window domain.Window) ([]domain.Message, int, error)
}

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

type storedMessage struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{id_padded}" so that a
// forward prefix scan yields messages by creation time, ties by id.
func (m *MessageRepository) StoreMessage(memberID int64, author, text string, at time.Time) (domain.Message, error) {
	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message id: %w", err)
	}
	stored := storedMessage{
		ID:        int64(next) + 1,
		MemberID:  memberID,
		Author:    author,
		Text:      text,
		CreatedAt: at.UTC(),
	}
	key := fmt.Sprintf("%s%019d:%019d", messagePrefix, stored.CreatedAt.UnixNano(), stored.ID)
	data, err := json.Marshal(stored)
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(stored), nil
}

// GetMessages returns the requested window in chronological order along
// with the total number of stored messages.
func (m *MessageRepository) GetMessages(window domain.Window) ([]domain.Message, int, error) {
	var raw [][]byte
	total := 0
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			index := total
			total++
			if index < window.Offset || len(raw) == window.Limit {
				continue
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			raw = append(raw, value)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var stored storedMessage
		if err := json.Unmarshal(b, &stored); err != nil {
			return nil, 0, err
		}
		messages = append(messages, toMessage(stored))
	}
	m.log.Debug("Messages loaded", "limit", window.Limit, "offset", window.Offset, "returned", len(messages), "total", total)
	return messages, total, nil
}

func toMessage(s storedMessage) domain.Message {
	return domain.Message{
		ID:        s.ID,
		Author:    s.Author,
		Text:      s.Text,
		CreatedAt: s.CreatedAt,
	}
}
