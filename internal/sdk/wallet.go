package sdk

import (
	"context"

	"github.com/roach88/walletbroker/internal/request"
)

// GrantParams identifies the request being granted and how.
type GrantParams struct {
	RequestID string `json:"requestID"`

	// Ephemeral marks a one-time grant rather than a standing authorization.
	Ephemeral bool `json:"ephemeral,omitempty"`

	// Amount caps a spending authorization, in satoshis. Zero means the SDK
	// applies the requested amount.
	Amount int64 `json:"amount,omitempty"`
}

// Wallet is the decision half of the wallet SDK.
type Wallet interface {
	GrantPermission(ctx context.Context, params GrantParams) error
	DenyPermission(ctx context.Context, requestID string) error
}

// Listener receives permission events, one method per event name.
//
// Implementations return once the request is enqueued; they never wait for
// a human decision.
type Listener interface {
	OnBasketAccessRequested(ctx context.Context, req request.BasketAccessRequest) error
	OnCertificateAccessRequested(ctx context.Context, req request.CertificateAccessRequest) error
	OnProtocolPermissionRequested(ctx context.Context, req request.ProtocolAccessRequest) error
	OnSpendingAuthorizationRequested(ctx context.Context, req request.SpendingRequest) error
}

// PasswordRetriever is registered once with the SDK. It blocks until the
// user supplies a password the validator accepts, or cancels.
type PasswordRetriever func(ctx context.Context, reason string, validator func(candidate string) bool) (string, error)

// RecoveryKeySaver is registered once with the SDK. It blocks until the user
// confirms the key is saved (nil) or abandons the backup.
type RecoveryKeySaver func(ctx context.Context, key []byte) error
