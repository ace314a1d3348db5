// Package request defines the typed permission requests the wallet SDK raises.
//
// A request is one of four variants, one per category:
//   - BasketAccessRequest
//   - CertificateAccessRequest
//   - ProtocolAccessRequest
//   - SpendingRequest
//
// All variants carry a RequestID that is unique across categories while the
// request is live. Payloads arriving from the SDK boundary are parsed with
// Parse, which rejects malformed input with a *ParseError before anything
// reaches the broker.
//
// Key constraints:
//   - NO float types anywhere; amounts are int64 satoshis
//   - JSON field names follow the SDK (camelCase, "requestID")
//   - Optional strings use the empty string, optional flags use false
package request
