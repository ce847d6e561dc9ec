package runtime

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/services"
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultOperationTimeout = 10 * time.Second

type State int

const (
	Idle State = iota
	Loading
	Sending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Sending:
		return "sending"
	default:
		return "unknown"
	}
}

type EventType int

const (
	// EventStateChanged is published on every Idle/Loading/Sending move.
	EventStateChanged EventType = iota
	// EventFeedUpdated means Snapshot returns something new.
	EventFeedUpdated
	// EventFailed carries an error the consumer should display.
	EventFailed
	// EventSignedOut asks the consumer to go back to an unauthenticated view.
	EventSignedOut
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state_changed"
	case EventFeedUpdated:
		return "feed_updated"
	case EventFailed:
		return "failed"
	case EventSignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

type Event struct {
	Type  EventType
	State State
	Err   error
}

// load is a fetch in flight. Callers arriving while it runs wait on done
// and share err.
type load struct {
	done chan struct{}
	err  error
}

// Controller is what a view attaches to. It is the only place that calls
// both the session and the feed, and it keeps at most one network
// operation in flight.
type Controller struct {
	id      string
	session services.ISessionService
	feed    services.IFeedService
	log     *slog.Logger
	timeout time.Duration
	window  domain.Window
	events  services.Broadcaster[Event]

	mu       sync.Mutex
	state    State
	inflight *load
}

func NewController(session services.ISessionService, feed services.IFeedService, log *slog.Logger, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	id := uuid.NewString()
	return &Controller{
		id:      id,
		session: session,
		feed:    feed,
		log:     log.With("controller", id),
		timeout: timeout,
		window:  domain.FullHistoryWindow(),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() []domain.Message {
	return c.feed.Snapshot()
}

func (c *Controller) Subscribe(listener contract.Listener[Event]) func() {
	return c.events.Subscribe(listener)
}

// LoadInitial is called when a view mounts.
func (c *Controller) LoadInitial(ctx context.Context) error {
	if _, ok := c.session.CurrentCredential(); !ok {
		c.events.Publish(Event{Type: EventSignedOut, State: c.State(), Err: errors.ErrNotAuthenticated})
		return errors.ErrNotAuthenticated
	}
	return c.Refresh(ctx)
}

// Refresh fetches the feed. A call made while a fetch is already running
// joins it instead of issuing a second request.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case Sending:
		c.mu.Unlock()
		return errors.ErrBusy
	case Loading:
		current := c.inflight
		c.mu.Unlock()
		c.log.Debug("Joining in-flight fetch")
		return wait(ctx, current)
	}
	current := &load{done: make(chan struct{})}
	c.inflight = current
	c.state = Loading
	c.mu.Unlock()

	c.publishState(Loading)
	c.fetch(ctx, current)
	return current.err
}

func (c *Controller) fetch(ctx context.Context, current *load) {
	var err error
	credential, ok := c.session.CurrentCredential()
	window := c.window
	// A send moves the tail forward; start there rather than one step behind.
	if tail := domain.TailWindow(c.feed.Total()); tail.Offset > window.Offset {
		window = tail
	}
	if !ok {
		err = errors.ErrNotAuthenticated
	} else {
		opCtx, cancel := context.WithTimeout(ctx, c.timeout)
		window, err = c.fetchTail(opCtx, credential, window)
		err = timedOut(opCtx, err)
		cancel()
	}

	c.mu.Lock()
	if err == nil {
		c.window = window
	}
	c.state = Idle
	c.inflight = nil
	current.err = err
	close(current.done)
	c.mu.Unlock()

	c.publishState(Idle)
	if err != nil {
		c.fail(err)
		return
	}
	c.events.Publish(Event{Type: EventFeedUpdated, State: Idle})
}

// fetchTail loads window and, when the history has grown or shrunk past
// it, loads the newest messages instead. Only the final page lands in the
// feed, so a failure leaves the snapshot as it was.
func (c *Controller) fetchTail(ctx context.Context, credential domain.Credential, window domain.Window) (domain.Window, error) {
	page, err := c.feed.Peek(ctx, credential, window)
	if err != nil {
		return window, err
	}
	if tail := domain.TailWindow(page.Total); tail != window {
		c.log.Debug("Moving to the newest messages", "total", page.Total, "offset", tail.Offset)
		if page, err = c.feed.Peek(ctx, credential, tail); err != nil {
			return window, err
		}
		window = tail
	}
	c.feed.Apply(page)
	return window, nil
}

// Submit sends text then refreshes the feed. Blank text is refused before
// any state change. A fetch in flight is waited for first.
func (c *Controller) Submit(ctx context.Context, text string) (domain.Message, error) {
	if _, err := services.ValidateText(text); err != nil {
		return domain.Message{}, err
	}
	if err := c.enterSending(ctx); err != nil {
		return domain.Message{}, err
	}
	c.publishState(Sending)

	var (
		message domain.Message
		err     error
	)
	credential, ok := c.session.CurrentCredential()
	if !ok {
		err = errors.ErrNotAuthenticated
	} else {
		opCtx, cancel := context.WithTimeout(ctx, c.timeout)
		message, err = c.feed.Send(opCtx, credential, text)
		err = timedOut(opCtx, err)
		cancel()
	}

	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
	c.publishState(Idle)

	if err != nil {
		c.fail(err)
		return domain.Message{}, err
	}
	c.events.Publish(Event{Type: EventFeedUpdated, State: Idle})

	// Reconcile with the canonical order. Failures reach listeners.
	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.log.Debug("Refresh after send failed", "error", refreshErr)
	}
	return message, nil
}

func (c *Controller) enterSending(ctx context.Context) error {
	for {
		c.mu.Lock()
		switch c.state {
		case Sending:
			c.mu.Unlock()
			return errors.ErrBusy
		case Loading:
			current := c.inflight
			c.mu.Unlock()
			if err := wait(ctx, current); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		c.state = Sending
		c.mu.Unlock()
		return nil
	}
}

// Profile loads the member behind the session. It does not take part in the
// Idle/Loading/Sending guard but shares the sign-out handling.
func (c *Controller) Profile(ctx context.Context) (domain.Profile, error) {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	profile, err := c.session.Profile(opCtx)
	if err = timedOut(opCtx, err); err != nil {
		c.fail(err)
		return domain.Profile{}, err
	}
	return profile, nil
}

// fail is the single place where an unauthorized answer turns into a
// sign-out.
func (c *Controller) fail(err error) {
	state := c.State()
	if errors.IsUnauthorized(err) || stderrors.Is(err, errors.ErrNotAuthenticated) {
		c.log.Info("Credential rejected, signing out", "error", err)
		c.session.Invalidate()
		c.events.Publish(Event{Type: EventSignedOut, State: state, Err: err})
		return
	}
	c.log.Warn("Operation failed", "error", err)
	c.events.Publish(Event{Type: EventFailed, State: state, Err: err})
}

func (c *Controller) publishState(state State) {
	c.events.Publish(Event{Type: EventStateChanged, State: state})
}

func wait(ctx context.Context, current *load) error {
	select {
	case <-current.done:
		return current.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// timedOut reports an expired operation deadline as a transient failure.
func timedOut(opCtx context.Context, err error) error {
	if err != nil && stderrors.Is(opCtx.Err(), context.DeadlineExceeded) && !stderrors.Is(err, errors.ErrTransient) {
		return errors.Transient("operation timed out", 0, err)
	}
	return err
}
