package internal

import (
	"chat-sync/domain"
	"chat-sync/repositories"
	"chat-sync/runtime"
	"chat-sync/runtime/workers"
	"chat-sync/services"
	"chat-sync/transport"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ClientStack wires the transport, the session, the feed and the controller
// the way every client binary needs them.
type ClientStack struct {
	Session    *services.SessionService
	Feed       *services.FeedService
	Controller *runtime.Controller
	config     ClientConfig
	log        *slog.Logger
	db         *badger.DB
}

// NewClientStack restores the stored session before returning.
func NewClientStack(config ClientConfig, log *slog.Logger) (*ClientStack, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv repositories.IKeyValue = repositories.NewMemoryKV()
		db *badger.DB
	)
	if config.CredentialPath != "" {
		var err error
		db, err = badger.Open(badger.DefaultOptions(config.CredentialPath).WithLoggingLevel(badger.ERROR))
		if err != nil {
			return nil, fmt.Errorf("credential store opening failed: %w", err)
		}
		kv = repositories.NewBadgerKV(db)
	}

	client, err := transport.NewHTTPClient(transport.ClientConfig{
		BaseURL:    config.APIURL,
		HTTPClient: &http.Client{Timeout: config.OperationTimeout},
		Logger:     log,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	policy := services.MergeReplace
	if config.MergeByID {
		policy = services.MergeByID
	}

	session := services.NewSessionService(client, repositories.NewCredentialStore(kv, log), log)
	session.Initialize()
	feed := services.NewFeedService(client, log, policy)

	return &ClientStack{
		Session:    session,
		Feed:       feed,
		Controller: runtime.NewController(session, feed, log, config.OperationTimeout),
		config:     config,
		log:        log,
		db:         db,
	}, nil
}

// Poller returns a supervisor running periodic refreshes on the controller.
func (s *ClientStack) Poller() *workers.Supervisor {
	sup := workers.NewSupervisor(s.log, s.config.RestartInterval)
	sup.Add(workers.NewPollerWorker(s.log, s.Controller, s.config.PollInterval))
	return sup
}

// KeepPolling starts a poller now if the session is authenticated and again
// on every later sign in. Each poller is cancelled when its session ends, so
// at most one runs at a time.
func (s *ClientStack) KeepPolling(ctx context.Context) func() {
	sup := workers.NewSupervisor(s.log, s.config.RestartInterval)
	return pollWhileAuthenticated(ctx, s.Session, func(pollCtx context.Context) {
		sup.Start(pollCtx, workers.NewPollerWorker(s.log, s.Controller, s.config.PollInterval))
	})
}

func pollWhileAuthenticated(ctx context.Context, session services.ISessionService, start func(context.Context)) func() {
	var (
		mu     sync.Mutex
		cancel context.CancelFunc = func() {}
	)
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		cancel()
		cancel = func() {}
	}
	begin := func() {
		mu.Lock()
		defer mu.Unlock()
		cancel()
		var pollCtx context.Context
		pollCtx, cancel = context.WithCancel(ctx)
		start(pollCtx)
	}

	unsubscribe := session.Subscribe(func(t domain.SessionTransition) {
		switch {
		case t.To == domain.Authenticated && t.From != domain.Authenticated:
			begin()
		case t.From == domain.Authenticated && t.To != domain.Authenticated:
			stop()
		}
	})
	if _, ok := session.CurrentCredential(); ok {
		begin()
	}
	return func() {
		unsubscribe()
		stop()
	}
}

func (s *ClientStack) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
