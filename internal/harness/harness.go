package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/walletbroker/internal/broker"
	"github.com/roach88/walletbroker/internal/config"
	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/sdk"
	"github.com/roach88/walletbroker/internal/store"
	"github.com/roach88/walletbroker/internal/testutil"
)

// DefaultRunID is the journal run ID used unless WithRunID is given.
const DefaultRunID = "scenario"

// settleTimeout bounds each settle between steps.
const settleTimeout = 5 * time.Second

// Step error names used by expect_error.
const (
	ErrNameQueueEmpty       = "queue_empty"
	ErrNameDecisionInFlight = "decision_in_flight"
	ErrNameDecisionFailed   = "decision_failed"
	ErrNameInvalidGrant     = "invalid_grant"
	ErrNameStopped          = "stopped"
)

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	store  *store.Store
	runID  string
	logger *slog.Logger
	cfg    *config.Config
}

// WithStore journals into st instead of a fresh in-memory database.
// Run does not close st.
func WithStore(st *store.Store) RunOption {
	return func(c *runConfig) {
		c.store = st
	}
}

// WithRunID sets the journal run ID.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithLogger sets the logger for the broker under test. Logs are
// discarded by default.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithConfig applies cfg to the broker under test. Its focus mode is used
// by scenarios that do not set focus_mode, and its focus timeout and watch
// buffer configure the dispatcher and broker.
func WithConfig(cfg config.Config) RunOption {
	return func(c *runConfig) {
		c.cfg = &cfg
	}
}

// runner holds one scenario's broker and fakes.
type runner struct {
	broker  *broker.Broker
	bridge  *sdk.Bridge
	focus   *testutil.FocusRecorder
	wallet  *testutil.FakeWallet
	release func()
}

// Run executes a scenario against a fresh broker and returns the result.
//
// Execution flow:
//  1. Start a broker over a focus recorder, a fake wallet and the journal
//  2. Execute each step, checking its error against expect_error
//  3. Settle the broker after each step unless focus checks are held
//  4. Collect the journal trace, focus calls, decisions and final views
//  5. Evaluate assertions
//
// An error is returned only when the scenario could not be run; step and
// assertion failures are reported in the Result.
func Run(ctx context.Context, s *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{runID: DefaultRunID, logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := cfg.store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	mode := s.FocusMode
	// No timeout by default: a held check must wait for its release step.
	var timeout time.Duration
	brokerOpts := []broker.Option{
		broker.WithJournal(st),
		broker.WithLogger(cfg.logger),
		broker.WithTokens(testutil.NewSequentialTokens("ep")),
		broker.WithRunID(cfg.runID),
	}
	if cfg.cfg != nil {
		if mode == "" {
			mode = cfg.cfg.Focus.Mode
		}
		timeout = cfg.cfg.Focus.Timeout()
		brokerOpts = append(brokerOpts, broker.WithWatchBuffer(cfg.cfg.WatchBuffer))
	}

	rec := testutil.NewFocusRecorder(s.Focused)
	var coord focus.Coordinator = rec
	if mode == config.FocusShared {
		coord = focus.NewShared(rec)
	}
	disp := focus.NewDispatcher(coord,
		focus.WithLogger(cfg.logger),
		focus.WithTimeout(timeout),
	)
	defer disp.Close()

	wallet := testutil.NewFakeWallet()
	b := broker.New(wallet, disp, brokerOpts...)
	runCtx, cancel := context.WithCancel(ctx)
	go b.Run(runCtx)
	defer func() {
		cancel()
		<-b.Done()
	}()

	r := &runner{
		broker: b,
		bridge: sdk.NewBridge(b, cfg.logger),
		focus:  rec,
		wallet: wallet,
	}
	defer func() {
		if r.release != nil {
			r.release()
		}
	}()

	result := NewResult()
	result.RunID = cfg.runID

	for i, step := range s.Steps {
		err := r.execute(ctx, step)
		if got := errorName(err); got != step.ExpectError {
			result.AddError(fmt.Sprintf("steps[%d]: expected error %q, got %q (%v)", i, step.ExpectError, got, err))
		}
		if r.release == nil {
			if err := settle(ctx, b); err != nil {
				return nil, fmt.Errorf("steps[%d]: settle: %w", i, err)
			}
		}
	}
	if r.release != nil {
		r.release()
		r.release = nil
		if err := settle(ctx, b); err != nil {
			return nil, fmt.Errorf("final settle: %w", err)
		}
	}

	trace, err := st.ReadEntries(ctx, store.Filter{RunID: cfg.runID})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	result.Trace = trace
	result.FocusCalls = rec.Calls()
	result.Decisions = wallet.Decisions()
	for _, c := range request.Categories {
		v, err := b.View(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("view %s: %w", c, err)
		}
		result.Views[c] = v
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func settle(ctx context.Context, b *broker.Broker) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	return b.Settle(ctx)
}

func (r *runner) execute(ctx context.Context, st Step) error {
	switch {
	case st.Request != nil:
		event := st.Request.Event
		if event == "" {
			// Validated by ParseScenario.
			c, _ := request.ParseCategory(st.Request.Category)
			event = c.EventName()
		}
		payload, err := json.Marshal(st.Request.Payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		return r.bridge.Dispatch(ctx, event, payload)

	case st.Grant != nil:
		c, _ := request.ParseCategory(st.Grant.Category)
		return r.broker.GrantHead(ctx, c, broker.Grant{Ephemeral: st.Grant.Ephemeral, Amount: st.Grant.Amount})

	case st.Deny != nil:
		c, _ := request.ParseCategory(st.Deny.Category)
		return r.broker.DenyHead(ctx, c)

	case st.Advance != nil:
		c, _ := request.ParseCategory(st.Advance.Category)
		return r.broker.Advance(ctx, c)

	case st.SetFocused != nil:
		r.focus.SetFocused(*st.SetFocused)

	case st.FailWallet != nil:
		msg := st.FailWallet.Message
		if msg == "" {
			msg = "wallet unavailable"
		}
		r.wallet.FailFor(st.FailWallet.RequestID, errors.New(msg))

	case st.HoldFocus != nil:
		if *st.HoldFocus {
			if r.release == nil {
				r.release = r.focus.Hold()
			}
		} else if r.release != nil {
			r.release()
			r.release = nil
		}
	}
	return nil
}

// errorName maps a step error to its expect_error name.
// Parse errors map to their code (E200-E204).
func errorName(err error) string {
	switch {
	case err == nil:
		return ""
	case request.IsParseError(err):
		return request.ParseErrorCode(err)
	case broker.IsDecisionError(err):
		return ErrNameDecisionFailed
	case errors.Is(err, broker.ErrQueueEmpty):
		return ErrNameQueueEmpty
	case errors.Is(err, broker.ErrDecisionInFlight):
		return ErrNameDecisionInFlight
	case errors.Is(err, broker.ErrInvalidGrant):
		return ErrNameInvalidGrant
	case errors.Is(err, broker.ErrStopped):
		return ErrNameStopped
	default:
		return "error"
	}
}
