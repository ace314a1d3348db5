package credential

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/pending"
	"github.com/roach88/walletbroker/internal/sdk"
)

// Broker is the credential prompt broker.
//
// Thread-safety: all methods are safe for concurrent use.
type Broker struct {
	mu       sync.Mutex
	focus    *focus.Dispatcher
	tokens   TokenGenerator
	logger   *slog.Logger
	password *passwordSlot
	recovery *recoverySlot

	watchMu     sync.Mutex
	watchers    map[<-chan Change]chan Change
	watchBuffer int
}

type passwordSlot struct {
	op        *pending.Operation[string]
	reason    string
	validator func(candidate string) bool
	incorrect bool
	attempts  int
	episode   *focus.Episode

	// superseded is set when a newer RetrievePassword took the slot.
	superseded bool
}

type recoverySlot struct {
	op      *pending.Operation[struct{}]
	key     []byte
	episode *focus.Episode
}

// Option configures a Broker.
type Option func(*Broker)

// WithLogger sets the broker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = l
	}
}

// WithTokens sets the episode token generator.
func WithTokens(g TokenGenerator) Option {
	return func(b *Broker) {
		b.tokens = g
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

type uuidTokens struct{}

func (uuidTokens) Generate() string { return uuid.Must(uuid.NewV7()).String() }

// New creates a credential broker routing focus calls through dispatcher.
func New(dispatcher *focus.Dispatcher, opts ...Option) *Broker {
	b := &Broker{
		focus:       dispatcher,
		tokens:      uuidTokens{},
		logger:      slog.Default(),
		watchers:    make(map[<-chan Change]chan Change),
		watchBuffer: 16,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var (
	_ sdk.PasswordRetriever = (*Broker)(nil).RetrievePassword
	_ sdk.RecoveryKeySaver  = (*Broker)(nil).SaveRecoveryKey
)

// openEpisode starts a focus episode for scope and submits its check.
// The check result is applied only if the episode is still current.
// Caller holds b.mu.
func (b *Broker) openEpisode(scope Kind, current func() *focus.Episode) *focus.Episode {
	ep := focus.NewEpisode(b.tokens.Generate())
	b.focus.Check(string(scope), func(focused bool) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if current() != ep {
			b.logger.Debug("stale focus result ignored", "slot", string(scope), "episode", ep.Token())
			return
		}
		if ep.Resolve(focused) {
			b.focus.Request(string(scope))
		}
	})
	return ep
}

// closeEpisode ends ep and relinquishes focus if it was requested.
// Caller holds b.mu.
func (b *Broker) closeEpisode(scope Kind, ep *focus.Episode) {
	if ep != nil && ep.End() {
		b.focus.Relinquish(string(scope))
	}
}

// Settle blocks until every focus call submitted so far has completed,
// including requests submitted by check results.
func (b *Broker) Settle(ctx context.Context) error {
	for {
		before := b.focus.Submitted()
		if err := b.focus.Drain(ctx); err != nil {
			return err
		}
		if b.focus.Submitted() == before {
			return nil
		}
	}
}

// Watch returns a channel of slot changes. Delivery is non-blocking: when
// the channel is full the change is dropped for that watcher.
func (b *Broker) Watch() <-chan Change {
	ch := make(chan Change, b.watchBuffer)
	b.watchMu.Lock()
	b.watchers[ch] = ch
	b.watchMu.Unlock()
	return ch
}

// Unwatch stops delivery to ch and closes it.
func (b *Broker) Unwatch(ch <-chan Change) {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()
	if w, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(w)
	}
}

func (b *Broker) notify(c Change) {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()
	for _, w := range b.watchers {
		select {
		case w <- c:
		default:
		}
	}
}
