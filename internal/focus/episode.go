package focus

// Episode tracks focus decisions for one queue's empty to non-empty to empty
// lifespan (or one credential prompt's open to close lifespan).
//
// The owner calls Resolve once the focus check completes and End when the
// episode is over. The return values say which coordinator call, if any,
// the owner must submit:
//
//	ep := focus.NewEpisode(token)
//	if ep.Resolve(focused) { dispatcher.Request(scope) }
//	...
//	if ep.End() { dispatcher.Relinquish(scope) }
//
// INVARIANTS:
//   - WasOriginallyFocused is recorded exactly once
//   - Resolve returns true at most once; End returns true at most once
//   - End returns true only if Resolve returned true
//   - An episode that ends before it resolves requests nothing and
//     relinquishes nothing
//
// Thread-safety: not safe for concurrent use. Each Episode is owned by a
// single broker goroutine or guarded by the broker's lock.
type Episode struct {
	token                string
	resolved             bool
	wasOriginallyFocused bool
	requested            bool
	ended                bool
}

// NewEpisode starts an episode identified by token.
func NewEpisode(token string) *Episode {
	return &Episode{token: token}
}

// Token returns the episode identifier.
func (e *Episode) Token() string {
	return e.token
}

// Resolve records the focus check result.
// Returns true if the owner must request focus.
// Calls after the first, or after End, are ignored and return false.
func (e *Episode) Resolve(focused bool) (needRequest bool) {
	if e.resolved || e.ended {
		return false
	}
	e.resolved = true
	e.wasOriginallyFocused = focused
	if !focused {
		e.requested = true
		return true
	}
	return false
}

// End closes the episode.
// Returns true if the owner must relinquish focus.
func (e *Episode) End() (needRelinquish bool) {
	if e.ended {
		return false
	}
	e.ended = true
	return e.requested
}

// Resolved reports whether the focus check has completed.
func (e *Episode) Resolved() bool { return e.resolved }

// Ended reports whether End has been called.
func (e *Episode) Ended() bool { return e.ended }

// WasOriginallyFocused reports the focus state captured at resolution.
// Meaningless until Resolved is true.
func (e *Episode) WasOriginallyFocused() bool { return e.wasOriginallyFocused }

// Requested reports whether this episode asked for focus.
func (e *Episode) Requested() bool { return e.requested }
