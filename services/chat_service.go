//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-sync/domain"
	"chat-sync/moderation"
	"chat-sync/repositories"
	"log/slog"
	"time"
)

// IChatService is the backend side of the message feed.
type IChatService interface {
	GetMessages(window domain.Window) (domain.Page, error)
	PostMessage(member domain.Member, text string) (domain.Message, error)
}

type ChatService struct {
	messages  repositories.IMessageRepository
	moderator *moderation.Moderator
	log       *slog.Logger
	now       func() time.Time
}

// NewChatService stores messages as posted when moderator is nil.
func NewChatService(messages repositories.IMessageRepository, moderator *moderation.Moderator, log *slog.Logger) *ChatService {
	return &ChatService{messages: messages, moderator: moderator, log: log, now: time.Now}
}

// GetMessages falls back to the default limit when it is out of range and
// clamps a negative offset to zero.
func (s *ChatService) GetMessages(window domain.Window) (domain.Page, error) {
	if window.Limit < 1 || window.Limit > domain.MaxLimit {
		window.Limit = domain.DefaultLimit
	}
	if window.Offset < 0 {
		window.Offset = 0
	}
	messages, total, err := s.messages.GetMessages(window)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Messages: messages, Total: total}, nil
}

func (s *ChatService) PostMessage(member domain.Member, text string) (domain.Message, error) {
	trimmed, err := ValidateText(text)
	if err != nil {
		return domain.Message{}, err
	}
	censored, words := s.moderator.Censor(trimmed)
	if len(words) > 0 {
		s.log.Info("Message censored", "member_id", member.ID, "words", len(words))
	}
	return s.messages.StoreMessage(member.ID, member.Username, censored, s.now())
}
