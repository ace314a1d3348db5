package broker

import (
	"context"
	"fmt"

	"github.com/roach88/walletbroker/internal/canon"
	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/store"
)

type eventKind int

const (
	evEnqueue eventKind = iota + 1
	evFocusChecked
	evClaim
	evSettle
	evRelease
	evAdvance
	evView
	evStats
	evSync
)

// event is a unit of work for the loop.
type event struct {
	kind     eventKind
	category request.Category
	req      request.Request

	// evFocusChecked
	episode *focus.Episode
	focused bool

	// evSettle, evRelease
	requestID string
	op        string
	decideErr error

	reply chan reply
}

type reply struct {
	err   error
	head  request.Request
	view  CategoryView
	stats Stats
}

// process routes an event to its handler.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (b *Broker) process(ctx context.Context, ev event) {
	var r reply
	switch ev.kind {
	case evEnqueue:
		b.handleEnqueue(ctx, ev.req)
	case evFocusChecked:
		b.handleFocusChecked(ctx, ev.category, ev.episode, ev.focused)
	case evClaim:
		r.head, r.err = b.handleClaim(ev.category)
	case evSettle:
		b.handleSettle(ctx, ev)
	case evRelease:
		b.handleRelease(ev.category, ev.requestID)
	case evAdvance:
		r.err = b.handleAdvance(ctx, ev.category)
	case evView:
		r.view = b.view(ev.category)
	case evStats:
		r.stats = b.stats()
	case evSync:
	default:
		b.logger.Error("unknown broker event", "kind", int(ev.kind))
	}
	if ev.reply != nil {
		ev.reply <- r
	}
}

func (b *Broker) handleEnqueue(ctx context.Context, req request.Request) {
	if err := request.Validate(req); err != nil {
		var cat request.Category
		if !request.IsNil(req) {
			cat = req.Category()
		}
		if cs, ok := b.cats[cat]; ok {
			cs.stats.Dropped++
		}
		b.logger.Warn("dropped malformed permission request",
			"category", string(cat),
			"code", request.ParseErrorCode(err),
			"error", err,
		)
		return
	}

	cs, ok := b.cats[req.Category()]
	if !ok {
		b.logger.Warn("dropped permission request with unknown category",
			"category", string(req.Category()),
			"request_id", req.RequestID(),
		)
		return
	}
	wasEmpty, _ := cs.queue.Enqueue(req)
	cs.stats.Enqueued++

	if wasEmpty {
		cs.episode = focus.NewEpisode(b.tokens.Generate())
		cs.state = StateAwaitingFocus
		cs.stats.Episodes++
	}

	entry := b.entry(cs, store.KindEnqueued, req.RequestID(), "")
	payload, hash, err := canon.Fingerprint(canon.DomainRequest, req.Fields())
	if err != nil {
		b.logger.Warn("request fingerprint failed",
			"category", string(cs.category),
			"request_id", req.RequestID(),
			"error", err,
		)
	} else {
		entry.Payload = string(payload)
		entry.PayloadHash = hash
	}
	b.record(ctx, entry)
	b.notify(cs, entry)

	b.logger.Debug("permission request enqueued",
		"category", string(cs.category),
		"request_id", req.RequestID(),
		"length", cs.queue.Len(),
		"episode", cs.episode.Token(),
	)

	if wasEmpty {
		ep := cs.episode
		cat := cs.category
		b.focus.Check(string(cat), func(focused bool) {
			if !b.post(event{kind: evFocusChecked, category: cat, episode: ep, focused: focused}) {
				b.logger.Debug("focus result dropped: broker stopped",
					"category", string(cat),
					"episode", ep.Token(),
				)
			}
		})
	}
}

func (b *Broker) handleFocusChecked(ctx context.Context, cat request.Category, ep *focus.Episode, focused bool) {
	cs := b.cats[cat]
	if cs.episode != ep {
		// The episode ended before its check resolved.
		b.logger.Debug("stale focus result ignored",
			"category", string(cat),
			"episode", ep.Token(),
		)
		return
	}

	b.record(ctx, b.entry(cs, store.KindFocusChecked, "", fmt.Sprintf("focused=%t", focused)))

	if ep.Resolve(focused) {
		b.focus.Request(string(cat))
		b.record(ctx, b.entry(cs, store.KindFocusRequested, "", ""))
	}

	cs.state = StatePrompting
	cs.promptOpen = true
	opened := b.entry(cs, store.KindPromptOpened, b.headID(cs), "")
	b.record(ctx, opened)
	b.notify(cs, opened)
}

func (b *Broker) handleClaim(cat request.Category) (request.Request, error) {
	cs, ok := b.cats[cat]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", cat)
	}
	head, ok := cs.queue.PeekHead()
	if !ok {
		return nil, ErrQueueEmpty
	}
	if cs.claimed != "" {
		return nil, ErrDecisionInFlight
	}
	cs.claimed = head.RequestID()
	return head, nil
}

// handleRelease drops a claim without deciding, leaving the head in place.
func (b *Broker) handleRelease(cat request.Category, requestID string) {
	cs, ok := b.cats[cat]
	if !ok || cs.claimed != requestID {
		return
	}
	cs.claimed = ""
	b.logger.Debug("decision abandoned before the wallet call",
		"category", string(cat),
		"request_id", requestID,
	)
}

// handleSettle records a decision's outcome and advances past the decided
// request, whether or not the wallet call succeeded.
func (b *Broker) handleSettle(ctx context.Context, ev event) {
	cs := b.cats[ev.category]
	if cs.claimed == ev.requestID {
		cs.claimed = ""
	}

	kind := store.KindGranted
	detail := ""
	switch {
	case ev.decideErr != nil:
		kind = store.KindDecisionFailed
		detail = fmt.Sprintf("%s: %v", ev.op, ev.decideErr)
		cs.stats.Failed++
	case ev.op == OpDeny:
		kind = store.KindDenied
		cs.stats.Denied++
	default:
		cs.stats.Granted++
	}
	settled := b.entry(cs, kind, ev.requestID, detail)
	b.record(ctx, settled)
	b.notify(cs, settled)

	head, ok := cs.queue.PeekHead()
	if !ok || head.RequestID() != ev.requestID {
		b.logger.Warn("decided request is no longer the head",
			"category", string(cs.category),
			"request_id", ev.requestID,
		)
		return
	}
	b.advance(ctx, cs)
}

func (b *Broker) handleAdvance(ctx context.Context, cat request.Category) error {
	cs, ok := b.cats[cat]
	if !ok {
		return fmt.Errorf("unknown category %q", cat)
	}
	if cs.claimed != "" {
		return ErrDecisionInFlight
	}
	b.advance(ctx, cs)
	return nil
}

// advance pops the head and ends the episode if the queue drained.
// Advancing an empty queue is a no-op.
func (b *Broker) advance(ctx context.Context, cs *categoryState) {
	head, ok := cs.queue.PeekHead()
	if !ok {
		return
	}
	remaining := cs.queue.Advance()
	cs.stats.Advanced++

	advanced := b.entry(cs, store.KindAdvanced, head.RequestID(), fmt.Sprintf("remaining=%d", remaining))
	b.record(ctx, advanced)

	if remaining > 0 {
		b.notify(cs, advanced)
		return
	}

	ep := cs.episode
	wasOpen := cs.promptOpen
	cs.state = StateIdle
	cs.promptOpen = false

	if wasOpen {
		closed := b.entry(cs, store.KindPromptClosed, "", "")
		b.record(ctx, closed)
		b.notify(cs, closed)
	} else {
		b.notify(cs, advanced)
	}

	if ep != nil && ep.End() {
		b.focus.Relinquish(string(cs.category))
		b.record(ctx, b.entry(cs, store.KindFocusRelinquished, "", ""))
	}
	cs.episode = nil
}

func (b *Broker) view(cat request.Category) CategoryView {
	cs, ok := b.cats[cat]
	if !ok {
		return CategoryView{Category: cat}
	}
	v := CategoryView{
		Category:         cat,
		State:            cs.state,
		PromptOpen:       cs.promptOpen,
		Length:           cs.queue.Len(),
		Items:            cs.queue.Items(),
		DecisionInFlight: cs.claimed != "",
	}
	if head, ok := cs.queue.PeekHead(); ok {
		v.Head = head
	}
	if cs.episode != nil {
		v.Episode = cs.episode.Token()
	}
	return v
}

func (b *Broker) stats() Stats {
	s := Stats{Categories: make(map[request.Category]CategoryStats, len(b.cats))}
	for c, cs := range b.cats {
		s.Categories[c] = cs.stats
	}
	return s
}

func (b *Broker) headID(cs *categoryState) string {
	if head, ok := cs.queue.PeekHead(); ok {
		return head.RequestID()
	}
	return ""
}

// entry builds a journal entry stamped with the next clock value.
func (b *Broker) entry(cs *categoryState, kind store.Kind, requestID, detail string) store.Entry {
	e := store.Entry{
		RunID:     b.runID,
		Seq:       b.clock.Next(),
		Kind:      kind,
		Category:  string(cs.category),
		RequestID: requestID,
		Detail:    detail,
	}
	if cs.episode != nil {
		e.Episode = cs.episode.Token()
	}
	return e
}

// record appends to the journal. Failures are logged and absorbed.
func (b *Broker) record(ctx context.Context, e store.Entry) {
	if b.journal == nil {
		return
	}
	if err := b.journal.AppendEntry(ctx, e); err != nil {
		b.logger.Warn("journal append failed",
			"kind", string(e.Kind),
			"category", e.Category,
			"request_id", e.RequestID,
			"seq", e.Seq,
			"error", err,
		)
	}
}
