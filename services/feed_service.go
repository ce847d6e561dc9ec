//go:generate go run go.uber.org/mock/mockgen -source=feed_service.go -destination=../mocks/mock_feed_service.go -package=mocks
package services

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/transport"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// MergePolicy decides how a fetched window lands in the feed.
type MergePolicy int

const (
	// MergeReplace swaps the whole collection for the fetched window.
	MergeReplace MergePolicy = iota
	// MergeByID keeps known messages and adds only unseen ids.
	MergeByID
)

type IFeedService interface {
	Fetch(ctx context.Context, credential domain.Credential, window domain.Window) (domain.Page, error)
	Peek(ctx context.Context, credential domain.Credential, window domain.Window) (domain.Page, error)
	Apply(page domain.Page)
	Send(ctx context.Context, credential domain.Credential, text string) (domain.Message, error)
	Snapshot() []domain.Message
	Total() int
}

// FeedService owns the ordered message collection: unique by id, sorted by
// creation time then id. The lock is never held across a network call.
type FeedService struct {
	mu       sync.RWMutex
	messages []domain.Message
	total    int
	client   transport.IClient
	policy   MergePolicy
	validate *validator.Validate
	log      *slog.Logger
}

func NewFeedService(client transport.IClient, log *slog.Logger, policy MergePolicy) *FeedService {
	return &FeedService{
		client:   client,
		policy:   policy,
		validate: validator.New(),
		log:      log,
	}
}

// Fetch loads window and lands it in the collection.
func (f *FeedService) Fetch(ctx context.Context, credential domain.Credential, window domain.Window) (domain.Page, error) {
	page, err := f.Peek(ctx, credential, window)
	if err != nil {
		return domain.Page{}, err
	}
	f.Apply(page)
	return page, nil
}

// Peek loads window and returns it normalized without touching the collection.
func (f *FeedService) Peek(ctx context.Context, credential domain.Credential, window domain.Window) (domain.Page, error) {
	if err := f.validate.Struct(window); err != nil {
		return domain.Page{}, fmt.Errorf("%w: %v", errors.ErrInvalidWindow, err)
	}
	if credential.Token == "" {
		return domain.Page{}, errors.ErrNotAuthenticated
	}

	page, err := f.client.ListMessages(ctx, credential.Token, window)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Messages: normalize(page.Messages), Total: page.Total}, nil
}

// Apply lands a page obtained from Peek according to the merge policy.
func (f *FeedService) Apply(page domain.Page) {
	fetched := normalize(slices.Clone(page.Messages))

	f.mu.Lock()
	switch f.policy {
	case MergeByID:
		f.messages = normalize(append(slices.Clone(f.messages), fetched...))
	default:
		f.messages = fetched
	}
	f.total = page.Total
	size := len(f.messages)
	f.mu.Unlock()

	f.log.Debug("Feed fetched", "received", len(page.Messages), "kept", size, "total", page.Total)
}

// Send posts the trimmed text and inserts the created message right away.
// The caller is expected to fetch afterwards to settle the canonical order.
func (f *FeedService) Send(ctx context.Context, credential domain.Credential, text string) (domain.Message, error) {
	trimmed, err := ValidateText(text)
	if err != nil {
		return domain.Message{}, err
	}
	if credential.Token == "" {
		return domain.Message{}, errors.ErrNotAuthenticated
	}

	message, err := f.client.PostMessage(ctx, credential.Token, trimmed)
	if err != nil {
		return domain.Message{}, err
	}

	f.mu.Lock()
	if !slices.ContainsFunc(f.messages, func(m domain.Message) bool { return m.ID == message.ID }) {
		i, _ := slices.BinarySearchFunc(f.messages, message, domain.CompareMessages)
		f.messages = slices.Insert(f.messages, i, message)
		f.total++
	}
	f.mu.Unlock()

	return message, nil
}

func (f *FeedService) Snapshot() []domain.Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.messages)
}

func (f *FeedService) Total() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.total
}

// ValidateText trims text and checks it holds 1 to 1000 code points.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return "", errors.ErrEmptyMessage
	case utf8.RuneCountInString(trimmed) > domain.MaxMessageLength:
		return "", errors.ErrMessageTooLong
	}
	return trimmed, nil
}

// normalize drops repeated ids, first occurrence wins, and sorts.
func normalize(messages []domain.Message) []domain.Message {
	unique := lo.UniqBy(messages, func(m domain.Message) int64 { return m.ID })
	slices.SortStableFunc(unique, domain.CompareMessages)
	return unique
}
