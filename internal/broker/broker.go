package broker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/queue"
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/sdk"
	"github.com/roach88/walletbroker/internal/store"
)

// Journal receives one entry per broker transition.
// Implemented by *store.Store.
type Journal interface {
	AppendEntry(ctx context.Context, e store.Entry) error
}

// DefaultWatchBuffer is the channel capacity of each watcher.
const DefaultWatchBuffer = 16

// Broker is the single-writer permission broker.
//
// CRITICAL: All category state is mutated only by the Run goroutine.
//
// Thread-safety model:
//   - Public methods: safe from any goroutine (they post events to the loop)
//   - Run(): must be called from exactly one goroutine
//   - Watch()/Unwatch(): safe from any goroutine
type Broker struct {
	wallet  sdk.Wallet
	focus   *focus.Dispatcher
	journal Journal
	clock   *Clock
	tokens  TokenGenerator
	logger  *slog.Logger
	runID   string

	inbox   *queue.Queue[event]
	stopped chan struct{}
	runOnce sync.Once

	// Loop-owned.
	cats map[request.Category]*categoryState

	watchMu     sync.Mutex
	watchers    map[<-chan Change]chan Change
	watchBuffer int
}

// categoryState is one category's queue and prompt state. Loop-owned.
type categoryState struct {
	category   request.Category
	queue      *queue.Queue[request.Request]
	state      State
	promptOpen bool
	episode    *focus.Episode

	// claimed is the request ID whose decision is in flight, or "".
	claimed string

	stats CategoryStats
}

// Option configures a Broker.
type Option func(*Broker)

// WithJournal records every transition to j.
func WithJournal(j Journal) Option {
	return func(b *Broker) {
		b.journal = j
	}
}

// WithLogger sets the broker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = l
	}
}

// WithTokens sets the episode token generator.
// Default: UUIDv7Generator.
func WithTokens(g TokenGenerator) Option {
	return func(b *Broker) {
		b.tokens = g
	}
}

// WithRunID sets the journal run ID. Default: a fresh UUIDv7.
func WithRunID(id string) Option {
	return func(b *Broker) {
		b.runID = id
	}
}

// WithClock sets the logical clock used for journal seq numbers.
func WithClock(c *Clock) Option {
	return func(b *Broker) {
		b.clock = c
	}
}

// WithWatchBuffer sets the capacity of each watcher channel.
func WithWatchBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.watchBuffer = n
		}
	}
}

// New creates a broker deciding through wallet and routing focus calls
// through dispatcher. The caller owns dispatcher and closes it after the
// broker stops.
//
// The broker does nothing until Run is started.
func New(wallet sdk.Wallet, dispatcher *focus.Dispatcher, opts ...Option) *Broker {
	b := &Broker{
		wallet:      wallet,
		focus:       dispatcher,
		clock:       NewClock(),
		tokens:      UUIDv7Generator{},
		logger:      slog.Default(),
		inbox:       queue.New[event](),
		stopped:     make(chan struct{}),
		cats:        make(map[request.Category]*categoryState, len(request.Categories)),
		watchers:    make(map[<-chan Change]chan Change),
		watchBuffer: DefaultWatchBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.runID == "" {
		b.runID = UUIDv7Generator{}.Generate()
	}
	for _, c := range request.Categories {
		b.cats[c] = &categoryState{
			category: c,
			queue:    queue.New[request.Request](),
		}
	}
	return b
}

// RunID returns the journal run ID.
func (b *Broker) RunID() string {
	return b.runID
}

// Run starts the single-writer event loop.
// Blocks until ctx is cancelled or Stop is called.
//
// CRITICAL: Must be called from exactly ONE goroutine, at most once.
//
// ERROR HANDLING: a failed transition (journal write, focus submission) is
// logged and processing continues.
func (b *Broker) Run(ctx context.Context) error {
	defer b.runOnce.Do(func() { close(b.stopped) })

	b.logger.Info("broker starting", "run_id", b.runID)

	for {
		if ev, ok := b.inbox.Dequeue(); ok {
			b.process(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			b.logger.Info("broker stopping: context cancelled")
			b.inbox.Close()
			return ctx.Err()

		case <-b.inbox.Wait():
			// The signal channel closes when the inbox is closed.
			if b.inbox.Closed() && b.inbox.Len() == 0 {
				b.logger.Info("broker stopping: inbox closed")
				return nil
			}
		}
	}
}

// Stop closes the inbox. Run processes events already posted, then returns.
func (b *Broker) Stop() {
	b.inbox.Close()
}

// Done returns a channel closed when Run has returned.
func (b *Broker) Done() <-chan struct{} {
	return b.stopped
}

// post hands an event to the loop without waiting.
func (b *Broker) post(ev event) bool {
	_, ok := b.inbox.Enqueue(ev)
	return ok
}

// call posts an event and waits for the loop's reply.
func (b *Broker) call(ctx context.Context, ev event) (reply, error) {
	ev.reply = make(chan reply, 1)
	if !b.post(ev) {
		return reply{}, ErrStopped
	}
	select {
	case r := <-ev.reply:
		return r, r.err
	case <-ctx.Done():
		return reply{}, ctx.Err()
	case <-b.stopped:
		// Run may have processed the event just before returning.
		select {
		case r := <-ev.reply:
			return r, r.err
		default:
			return reply{}, ErrStopped
		}
	}
}

// Settle blocks until every focus call submitted so far has completed and
// the loop has processed the results. Decision surfaces and tests use it
// to observe the state after a burst of events.
func (b *Broker) Settle(ctx context.Context) error {
	for {
		before := b.focus.Submitted()
		if err := b.focus.Drain(ctx); err != nil {
			return err
		}
		if _, err := b.call(ctx, event{kind: evSync}); err != nil {
			return err
		}
		if b.focus.Submitted() == before {
			return nil
		}
	}
}

var _ sdk.Listener = (*Broker)(nil)
