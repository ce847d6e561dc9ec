package services

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/mocks"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cred = domain.Credential{Token: "tok", DisplayName: "alice"}
)

func msg(id int64, offset time.Duration) domain.Message {
	return domain.Message{ID: id, Author: "alice", Text: "hello", CreatedAt: base.Add(offset)}
}

func ids(messages []domain.Message) []int64 {
	return lo.Map(messages, func(m domain.Message, _ int) int64 { return m.ID })
}

func TestFeedService_Fetch(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx := context.Background()

	t.Run("should sort by creation time and drop repeated ids", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		client.EXPECT().ListMessages(gomock.Any(), "tok", domain.FullHistoryWindow()).Return(domain.Page{
			Messages: []domain.Message{msg(3, 2*time.Second), msg(1, 0), msg(3, 2*time.Second), msg(2, time.Second)},
			Total:    3,
		}, nil)

		page, err := feed.Fetch(ctx, cred, domain.FullHistoryWindow())

		req.NoError(err)
		req.Equal([]int64{1, 2, 3}, ids(page.Messages))
		req.Equal([]int64{1, 2, 3}, ids(feed.Snapshot()))
		req.Equal(3, feed.Total())
	})

	t.Run("should break equal timestamps by id", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Page{
			Messages: []domain.Message{msg(9, 0), msg(4, 0), msg(6, 0)},
			Total:    3,
		}, nil)

		_, err := feed.Fetch(ctx, cred, domain.DefaultWindow())

		req.NoError(err)
		req.Equal([]int64{4, 6, 9}, ids(feed.Snapshot()))
	})

	t.Run("should replace the collection on every successful fetch", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		gomock.InOrder(
			client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domain.Page{Messages: []domain.Message{msg(1, 0), msg(2, time.Second)}, Total: 2}, nil),
			client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domain.Page{Messages: []domain.Message{msg(2, time.Second)}, Total: 1}, nil),
		)

		_, err := feed.Fetch(ctx, cred, domain.DefaultWindow())
		req.NoError(err)
		_, err = feed.Fetch(ctx, cred, domain.DefaultWindow())
		req.NoError(err)

		req.Equal([]int64{2}, ids(feed.Snapshot()))
		req.Equal(1, feed.Total())
	})

	t.Run("should keep known messages under merge by id", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeByID)

		gomock.InOrder(
			client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domain.Page{Messages: []domain.Message{msg(1, 0), msg(3, 2*time.Second)}, Total: 2}, nil),
			client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domain.Page{Messages: []domain.Message{msg(2, time.Second), msg(3, 2*time.Second)}, Total: 3}, nil),
		)

		_, err := feed.Fetch(ctx, cred, domain.DefaultWindow())
		req.NoError(err)
		_, err = feed.Fetch(ctx, cred, domain.DefaultWindow())
		req.NoError(err)

		req.Equal([]int64{1, 2, 3}, ids(feed.Snapshot()))
		req.Equal(3, feed.Total())
	})

	t.Run("should leave the collection untouched on failure", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		gomock.InOrder(
			client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domain.Page{Messages: []domain.Message{msg(1, 0)}, Total: 1}, nil),
			client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domain.Page{}, errors.Transient("bad gateway", 502, nil)),
		)

		_, err := feed.Fetch(ctx, cred, domain.DefaultWindow())
		req.NoError(err)
		_, err = feed.Fetch(ctx, cred, domain.DefaultWindow())

		req.ErrorIs(err, errors.ErrTransient)
		req.Equal([]int64{1}, ids(feed.Snapshot()))
		req.Equal(1, feed.Total())
	})

	t.Run("should reject an invalid window without calling the backend", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		feed := NewFeedService(client, log, MergeReplace)

		for _, w := range []domain.Window{{Limit: 0}, {Limit: 101}, {Limit: 10, Offset: -1}} {
			_, err := feed.Fetch(ctx, cred, w)
			req.ErrorIs(err, errors.ErrInvalidWindow)
		}
	})

	t.Run("should refuse an empty credential", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		feed := NewFeedService(client, log, MergeReplace)

		_, err := feed.Fetch(ctx, domain.Credential{}, domain.DefaultWindow())

		req.ErrorIs(err, errors.ErrNotAuthenticated)
	})
}

func TestFeedService_Send(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx := context.Background()

	t.Run("should insert the created message at its sorted position", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.Page{Messages: []domain.Message{msg(1, 0), msg(3, 2*time.Second)}, Total: 2}, nil)
		client.EXPECT().PostMessage(gomock.Any(), "tok", "hi there").Return(msg(2, time.Second), nil)

		_, err := feed.Fetch(ctx, cred, domain.DefaultWindow())
		req.NoError(err)
		sent, err := feed.Send(ctx, cred, "  hi there \n")

		req.NoError(err)
		req.Equal(int64(2), sent.ID)
		req.Equal([]int64{1, 2, 3}, ids(feed.Snapshot()))
		req.Equal(3, feed.Total())
	})

	t.Run("should not duplicate a message already in the feed", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		client.EXPECT().ListMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.Page{Messages: []domain.Message{msg(1, 0)}, Total: 1}, nil)
		client.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(msg(1, 0), nil)

		_, err := feed.Fetch(ctx, cred, domain.DefaultWindow())
		req.NoError(err)
		_, err = feed.Send(ctx, cred, "hello")

		req.NoError(err)
		req.Len(feed.Snapshot(), 1)
		req.Equal(1, feed.Total())
	})

	t.Run("should never call the backend for blank text", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		client.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		feed := NewFeedService(client, log, MergeReplace)

		for _, text := range []string{"", "   ", "\n\t"} {
			_, err := feed.Send(ctx, cred, text)
			req.ErrorIs(err, errors.ErrEmptyMessage)
		}
		req.Empty(feed.Snapshot())
	})

	t.Run("should reject text above the limit", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		client.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		feed := NewFeedService(client, log, MergeReplace)

		_, err := feed.Send(ctx, cred, strings.Repeat("é", domain.MaxMessageLength+1))

		req.ErrorIs(err, errors.ErrMessageTooLong)
	})

	t.Run("should leave the feed untouched when posting fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		client.EXPECT().PostMessage(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.Message{}, errors.Unauthorized("Invalid token."))

		_, err := feed.Send(ctx, cred, "hello")

		req.True(errors.IsUnauthorized(err))
		req.Empty(feed.Snapshot())
		req.Zero(feed.Total())
	})
}

func TestValidateText(t *testing.T) {
	t.Run("should accept exactly the limit in code points", func(t *testing.T) {
		req := require.New(t)
		text := strings.Repeat("界", domain.MaxMessageLength)

		trimmed, err := ValidateText(" " + text + " ")

		req.NoError(err)
		req.Equal(text, trimmed)
	})
}

func TestFeedService_Peek(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx := context.Background()

	t.Run("should return the window without changing the collection", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		client := mocks.NewMockIClient(ctrl)
		feed := NewFeedService(client, log, MergeReplace)

		gomock.InOrder(
			client.EXPECT().ListMessages(gomock.Any(), "tok", domain.FullHistoryWindow()).
				Return(domain.Page{Messages: []domain.Message{msg(1, 0)}, Total: 1}, nil),
			client.EXPECT().ListMessages(gomock.Any(), "tok", domain.Window{Limit: 2, Offset: 1}).
				Return(domain.Page{Messages: []domain.Message{msg(3, 2*time.Second), msg(2, time.Second)}, Total: 3}, nil),
		)
		_, err := feed.Fetch(ctx, cred, domain.FullHistoryWindow())
		req.NoError(err)

		page, err := feed.Peek(ctx, cred, domain.Window{Limit: 2, Offset: 1})

		req.NoError(err)
		req.Equal([]int64{2, 3}, ids(page.Messages))
		req.Equal([]int64{1}, ids(feed.Snapshot()))
		req.Equal(1, feed.Total())

		feed.Apply(page)
		req.Equal([]int64{2, 3}, ids(feed.Snapshot()))
		req.Equal(3, feed.Total())
	})

	t.Run("should merge an applied page by id", func(t *testing.T) {
		req := require.New(t)
		feed := NewFeedService(mocks.NewMockIClient(gomock.NewController(t)), log, MergeByID)

		feed.Apply(domain.Page{Messages: []domain.Message{msg(1, 0), msg(2, time.Second)}, Total: 2})
		feed.Apply(domain.Page{Messages: []domain.Message{msg(3, 2*time.Second), msg(2, time.Second)}, Total: 3})

		req.Equal([]int64{1, 2, 3}, ids(feed.Snapshot()))
	})
}
