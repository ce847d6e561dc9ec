package main

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/mocks"
	"chat-sync/runtime"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeController struct {
	submitted []string
	snapshot  []domain.Message
}

func (f *fakeController) LoadInitial(context.Context) error { return nil }

func (f *fakeController) Submit(_ context.Context, text string) (domain.Message, error) {
	f.submitted = append(f.submitted, text)
	return domain.Message{ID: 1, Text: text}, nil
}

func (f *fakeController) Snapshot() []domain.Message { return f.snapshot }

func sized(m model) model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(model)
}

func TestModel_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse blank input without submitting", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		session := mocks.NewMockISessionService(ctrl)
		session.EXPECT().CurrentCredential().Return(domain.Credential{}, false).AnyTimes()
		fake := &fakeController{}
		m := sized(newModel(ctx, session, fake))

		updated, cmd := m.handleInput("   ")

		req.Nil(cmd)
		req.Empty(fake.submitted)
		req.Nil(updated.(model).err)
	})

	t.Run("should submit through the controller", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		session := mocks.NewMockISessionService(ctrl)
		session.EXPECT().CurrentCredential().Return(domain.Credential{}, false).AnyTimes()
		fake := &fakeController{}
		m := sized(newModel(ctx, session, fake))

		_, cmd := m.handleInput("hello")
		req.NotNil(cmd)
		done := cmd().(doneMsg)

		req.NoError(done.err)
		req.Equal([]string{"hello"}, fake.submitted)
	})

	t.Run("should render the feed with the own name highlighted", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		session := mocks.NewMockISessionService(ctrl)
		session.EXPECT().CurrentCredential().Return(domain.Credential{Token: "tok", DisplayName: "alice"}, true).AnyTimes()
		at := time.Date(2025, 3, 1, 9, 5, 0, 0, time.Local)
		fake := &fakeController{snapshot: []domain.Message{
			{ID: 1, Author: "alice", Text: "hi", CreatedAt: at},
			{ID: 2, Author: "bob", Text: "hey", CreatedAt: at},
		}}
		m := sized(newModel(ctx, session, fake))

		updated, _ := m.Update(eventMsg(runtime.Event{Type: runtime.EventFeedUpdated}))
		view := updated.(model).View()

		req.Len(updated.(model).messages, 2)
		req.Contains(view, "09:05")
		req.Contains(view, "hey")
		req.Contains(view, "alice · idle · 2 messages")
	})

	t.Run("should clear the feed when signed out", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		session := mocks.NewMockISessionService(ctrl)
		session.EXPECT().CurrentCredential().Return(domain.Credential{}, false).AnyTimes()
		fake := &fakeController{snapshot: []domain.Message{{ID: 1, Author: "alice", Text: "hi"}}}
		m := sized(newModel(ctx, session, fake))
		updated, _ := m.Update(eventMsg(runtime.Event{Type: runtime.EventFeedUpdated}))

		updated, _ = updated.(model).Update(eventMsg(runtime.Event{Type: runtime.EventSignedOut, Err: errors.Unauthorized("Invalid token.")}))

		req.Empty(updated.(model).messages)
		req.Contains(updated.(model).View(), "Signed out")
	})
}

func TestFormatMessage(t *testing.T) {
	req := require.New(t)
	at := time.Date(2025, 3, 1, 23, 59, 0, 0, time.Local)

	line := formatMessage(domain.Message{Author: "bob", Text: "late", CreatedAt: at}, "alice")

	req.Contains(line, "23:59")
	req.Contains(line, "bob")
	req.Contains(line, "late")
}
