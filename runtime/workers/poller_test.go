package workers

import (
	"chat-sync/errors"
	"chat-sync/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestPollerWorker_Run(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	t.Run("should keep polling through busy and transient failures", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		refresher := mocks.NewMockRefresher(ctrl)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gomock.InOrder(
			refresher.EXPECT().Refresh(gomock.Any()).Return(errors.ErrBusy),
			refresher.EXPECT().Refresh(gomock.Any()).Return(errors.Transient("bad gateway", 502, nil)),
			refresher.EXPECT().Refresh(gomock.Any()).DoAndReturn(func(context.Context) error {
				cancel()
				return nil
			}),
		)

		err := NewPollerWorker(log, refresher, 5*time.Millisecond).Run(ctx)

		req.ErrorIs(err, context.Canceled)
	})

	t.Run("should stop for good once the session is gone", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		refresher := mocks.NewMockRefresher(ctrl)
		refresher.EXPECT().Refresh(gomock.Any()).Return(errors.Unauthorized("Invalid token.")).Times(1)

		err := NewPollerWorker(log, refresher, 5*time.Millisecond).Run(context.Background())

		req.NoError(err)
	})

	t.Run("should stop when there is no credential", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		refresher := mocks.NewMockRefresher(ctrl)
		refresher.EXPECT().Refresh(gomock.Any()).Return(errors.ErrNotAuthenticated).Times(1)

		err := NewPollerWorker(log, refresher, 5*time.Millisecond).Run(context.Background())

		req.NoError(err)
	})
}
