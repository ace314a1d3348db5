// Package credential implements the credential prompt broker: one password
// slot and one recovery-key slot, each turning a blocking SDK callback into
// a pending.Operation that a human completes through a dialog.
//
// Each slot is CLOSED or OPEN. Opening a slot starts a focus episode through
// the shared focus.Dispatcher; closing it ends the episode. A second call
// while a slot is open takes the slot over (last wins): the earlier caller
// fails with ErrPromptSuperseded and the focus episode carries over.
//
// Validators run outside the broker's lock, so a slow validator never
// blocks views or the other slot.
package credential
