package credential

import (
	"context"

	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/pending"
)

// SaveRecoveryKey opens the recovery-key prompt showing key and blocks
// until the user confirms it is saved (nil), abandons the backup
// (ErrBackupAbandoned), or ctx is done.
//
// If a recovery-key prompt is already open, this call takes it over: the
// earlier call returns ErrPromptSuperseded.
func (b *Broker) SaveRecoveryKey(ctx context.Context, key []byte) error {
	op := pending.New[struct{}]()

	b.mu.Lock()
	slot := &recoverySlot{op: op, key: append([]byte(nil), key...)}
	if prev := b.recovery; prev != nil {
		prev.op.Reject(ErrPromptSuperseded)
		slot.episode = prev.episode
		b.logger.Info("recovery key prompt superseded", "episode", slot.episode.Token())
	} else {
		slot.episode = b.openEpisode(KindRecoveryKey, func() *focus.Episode {
			if b.recovery == nil {
				return nil
			}
			return b.recovery.episode
		})
	}
	b.recovery = slot
	b.mu.Unlock()

	b.notify(Change{Kind: KindRecoveryKey, Open: true})

	_, err := op.Wait(ctx)
	if err != nil && ctx.Err() != nil && op.Reject(ctx.Err()) {
		b.mu.Lock()
		closed := b.recovery == slot
		if closed {
			b.closeRecoveryLocked()
		}
		b.mu.Unlock()
		if closed {
			b.notify(Change{Kind: KindRecoveryKey})
		}
		return ctx.Err()
	}
	if err != nil && ctx.Err() != nil {
		_, err = op.Wait(context.Background())
	}
	return err
}

// ConfirmRecoveryKeySaved completes the open prompt if every affirmation in
// ack is given. Otherwise it returns ErrAcknowledgementIncomplete and the
// prompt stays open.
func (b *Broker) ConfirmRecoveryKeySaved(ack Acknowledgement) error {
	b.mu.Lock()
	slot := b.recovery
	if slot == nil {
		b.mu.Unlock()
		return ErrNoPendingPrompt
	}
	if !ack.Complete() {
		b.mu.Unlock()
		return ErrAcknowledgementIncomplete
	}
	slot.op.Resolve(struct{}{})
	b.closeRecoveryLocked()
	b.mu.Unlock()

	b.notify(Change{Kind: KindRecoveryKey})
	return nil
}

// AbandonRecoveryKey closes the prompt; the waiting SaveRecoveryKey returns
// ErrBackupAbandoned.
func (b *Broker) AbandonRecoveryKey() error {
	b.mu.Lock()
	slot := b.recovery
	if slot == nil {
		b.mu.Unlock()
		return ErrNoPendingPrompt
	}
	slot.op.Reject(ErrBackupAbandoned)
	b.closeRecoveryLocked()
	b.mu.Unlock()

	b.notify(Change{Kind: KindRecoveryKey})
	return nil
}

// RecoveryPrompt returns the recovery-key dialog's view.
// Key is a copy.
func (b *Broker) RecoveryPrompt() RecoveryPrompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot := b.recovery
	if slot == nil {
		return RecoveryPrompt{}
	}
	return RecoveryPrompt{
		Open:    true,
		Key:     append([]byte(nil), slot.key...),
		Episode: slot.episode.Token(),
	}
}

// closeRecoveryLocked clears the slot and ends its episode.
// Caller holds b.mu.
func (b *Broker) closeRecoveryLocked() {
	slot := b.recovery
	b.recovery = nil
	b.closeEpisode(KindRecoveryKey, slot.episode)
}
