package broker

import "github.com/roach88/walletbroker/internal/store"

// Watch returns a channel of category transitions for a decision surface.
//
// Delivery is non-blocking: when the channel is full the change is dropped
// for that watcher. Surfaces re-read View after a change, so a dropped
// change never leaves them permanently stale as long as they drain the
// channel. Call Unwatch to release the channel.
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

// notify fans a transition out to watchers.
// CRITICAL: Called only from Run() goroutine.
func (b *Broker) notify(cs *categoryState, e store.Entry) {
	c := Change{
		Seq:        e.Seq,
		Category:   cs.category,
		Kind:       e.Kind,
		RequestID:  e.RequestID,
		State:      cs.state,
		PromptOpen: cs.promptOpen,
		Length:     cs.queue.Len(),
	}

	b.watchMu.Lock()
	defer b.watchMu.Unlock()
	for _, w := range b.watchers {
		select {
		case w <- c:
		default:
		}
	}
}
