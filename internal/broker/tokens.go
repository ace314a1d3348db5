package broker

import "github.com/google/uuid"

// TokenGenerator generates episode tokens and run IDs.
// Implemented by UUIDv7Generator (production) and
// testutil.SequentialTokens (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tokens, so run IDs sort
// by creation time in the journal.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
