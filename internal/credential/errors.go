package credential

import "errors"

var (
	// ErrPasswordCancelled settles a password retrieval the user cancelled.
	ErrPasswordCancelled = errors.New("password entry cancelled by user")

	// ErrBackupAbandoned settles a recovery-key save the user abandoned.
	ErrBackupAbandoned = errors.New("user abandoned recovery key backup")

	// ErrPromptSuperseded settles a call whose slot was taken by a newer call.
	ErrPromptSuperseded = errors.New("prompt superseded by a newer request")

	// ErrNoPendingPrompt is returned by dialog actions when the slot is closed.
	ErrNoPendingPrompt = errors.New("no pending prompt")

	// ErrAcknowledgementIncomplete is returned when not every backup
	// affirmation was given. The slot stays open.
	ErrAcknowledgementIncomplete = errors.New("recovery key acknowledgement incomplete")
)
