// Package sdk defines the boundary between the wallet SDK and the brokers.
//
// The wallet SDK is an external collaborator. This package holds only the
// contracts the brokers consume (Wallet for grant/deny decisions) and expose
// (Listener for permission events, PasswordRetriever and RecoveryKeySaver
// for credential prompts), plus Bridge, which turns raw event payloads into
// typed requests before they reach a Listener.
package sdk
