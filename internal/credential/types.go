package credential

// Kind identifies a credential slot.
type Kind string

const (
	KindPassword    Kind = "password"
	KindRecoveryKey Kind = "recovery_key"
)

// Acknowledgement holds the affirmations gating "securely saved".
// All three are required.
type Acknowledgement struct {
	Recorded        bool `json:"recorded"`
	UnderstandsLoss bool `json:"understands_loss"`
	StoredSecurely  bool `json:"stored_securely"`
}

// Complete reports whether every affirmation was given.
func (a Acknowledgement) Complete() bool {
	return a.Recorded && a.UnderstandsLoss && a.StoredSecurely
}

// PasswordPrompt is what a password dialog renders.
type PasswordPrompt struct {
	Open   bool
	Reason string

	// Incorrect is true when the last submission was rejected.
	Incorrect bool
	Attempts  int
	Episode   string
}

// RecoveryPrompt is what a recovery-key dialog renders.
type RecoveryPrompt struct {
	Open    bool
	Key     []byte
	Episode string
}

// Change notifies watchers that a slot changed.
type Change struct {
	Kind      Kind
	Open      bool
	Incorrect bool
}

// TokenGenerator generates episode tokens.
type TokenGenerator interface {
	Generate() string
}
