package credential

import (
	"context"

	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/pending"
)

// RetrievePassword opens the password prompt and blocks until the user
// submits a password the validator accepts, cancels, or ctx is done.
// A nil validator accepts any password.
//
// If a password prompt is already open, this call takes it over: the
// earlier call returns ErrPromptSuperseded.
func (b *Broker) RetrievePassword(ctx context.Context, reason string, validator func(candidate string) bool) (string, error) {
	op := pending.New[string]()

	b.mu.Lock()
	slot := &passwordSlot{op: op, reason: reason, validator: validator}
	if prev := b.password; prev != nil {
		prev.superseded = true
		prev.op.Reject(ErrPromptSuperseded)
		slot.episode = prev.episode
		b.logger.Info("password prompt superseded", "episode", slot.episode.Token())
	} else {
		slot.episode = b.openEpisode(KindPassword, func() *focus.Episode {
			if b.password == nil {
				return nil
			}
			return b.password.episode
		})
	}
	b.password = slot
	b.mu.Unlock()

	b.notify(Change{Kind: KindPassword, Open: true})

	v, err := op.Wait(ctx)
	if err != nil && ctx.Err() != nil && op.Reject(ctx.Err()) {
		// The caller gave up; close the prompt if it is still ours.
		b.mu.Lock()
		closed := b.password == slot
		if closed {
			b.closePasswordLocked()
		}
		b.mu.Unlock()
		if closed {
			b.notify(Change{Kind: KindPassword})
		}
		return "", ctx.Err()
	}
	if err != nil && ctx.Err() != nil {
		// Settled concurrently with cancellation; the settlement wins.
		return op.Wait(context.Background())
	}
	return v, err
}

// SubmitPassword offers candidate to the open prompt's validator.
//
// accepted is true if the validator approved; the waiting RetrievePassword
// then returns candidate and the prompt closes. A rejected candidate keeps
// the prompt open and sets PasswordPrompt().Incorrect.
func (b *Broker) SubmitPassword(candidate string) (accepted bool, err error) {
	b.mu.Lock()
	slot := b.password
	b.mu.Unlock()
	if slot == nil {
		return false, ErrNoPendingPrompt
	}

	ok := slot.validator == nil || slot.validator(candidate)

	b.mu.Lock()
	if b.password != slot {
		// Replaced by a newer call, or settled by another submit or cancel.
		superseded := slot.superseded
		b.mu.Unlock()
		if superseded {
			return false, ErrPromptSuperseded
		}
		return false, ErrNoPendingPrompt
	}
	if !ok {
		slot.incorrect = true
		slot.attempts++
		attempts := slot.attempts
		b.mu.Unlock()
		b.logger.Debug("password rejected by validator", "attempts", attempts)
		b.notify(Change{Kind: KindPassword, Open: true, Incorrect: true})
		return false, nil
	}
	slot.op.Resolve(candidate)
	b.closePasswordLocked()
	b.mu.Unlock()

	b.notify(Change{Kind: KindPassword})
	return true, nil
}

// CancelPassword closes the prompt; the waiting RetrievePassword returns
// ErrPasswordCancelled.
func (b *Broker) CancelPassword() error {
	b.mu.Lock()
	slot := b.password
	if slot == nil {
		b.mu.Unlock()
		return ErrNoPendingPrompt
	}
	slot.op.Reject(ErrPasswordCancelled)
	b.closePasswordLocked()
	b.mu.Unlock()

	b.notify(Change{Kind: KindPassword})
	return nil
}

// PasswordPrompt returns the password dialog's view.
func (b *Broker) PasswordPrompt() PasswordPrompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot := b.password
	if slot == nil {
		return PasswordPrompt{}
	}
	return PasswordPrompt{
		Open:      true,
		Reason:    slot.reason,
		Incorrect: slot.incorrect,
		Attempts:  slot.attempts,
		Episode:   slot.episode.Token(),
	}
}

// closePasswordLocked clears the slot and ends its episode.
// Caller holds b.mu.
func (b *Broker) closePasswordLocked() {
	slot := b.password
	b.password = nil
	b.closeEpisode(KindPassword, slot.episode)
}
