package workers

import (
	"chat-sync/contract"
	"chat-sync/errors"
	"context"
	stderrors "errors"
	"log/slog"
	"time"
)

const DefaultPollInterval = 5 * time.Second

// PollerWorker refreshes the feed on a fixed interval. It gives up for good
// once the session is gone, so the supervisor does not restart it.
type PollerWorker struct {
	log       *slog.Logger
	refresher contract.Refresher
	interval  time.Duration
}

func NewPollerWorker(log *slog.Logger, refresher contract.Refresher, interval time.Duration) *PollerWorker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollerWorker{log: log, refresher: refresher, interval: interval}
}

func (w *PollerWorker) Run(ctx context.Context) error {
	w.log.Info("Starting feed poller", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := w.refresher.Refresh(ctx)
			switch {
			case err == nil:
			case stderrors.Is(err, errors.ErrBusy):
				// A send is in flight, its own refresh covers this tick.
				w.log.Debug("Skipping poll, controller busy")
			case stderrors.Is(err, errors.ErrNotAuthenticated), errors.IsUnauthorized(err):
				w.log.Info("Session ended, stopping poller")
				return nil
			default:
				w.log.Debug("Poll failed", "error", err)
			}
		}
	}
}
