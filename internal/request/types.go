package request

import "fmt"

// Category identifies one of the four permission queues.
type Category string

const (
	CategoryBasket      Category = "basket"
	CategoryCertificate Category = "certificate"
	CategoryProtocol    Category = "protocol"
	CategorySpending    Category = "spending"
)

// Categories lists every category in a fixed order.
// Iteration over categories always uses this order for deterministic output.
var Categories = []Category{
	CategoryBasket,
	CategoryCertificate,
	CategoryProtocol,
	CategorySpending,
}

// SDK event names bound to each category.
const (
	EventBasketAccessRequested          = "onBasketAccessRequested"
	EventCertificateAccessRequested     = "onCertificateAccessRequested"
	EventProtocolPermissionRequested    = "onProtocolPermissionRequested"
	EventSpendingAuthorizationRequested = "onSpendingAuthorizationRequested"
)

// EventName returns the SDK callback name for the category.
func (c Category) EventName() string {
	switch c {
	case CategoryBasket:
		return EventBasketAccessRequested
	case CategoryCertificate:
		return EventCertificateAccessRequested
	case CategoryProtocol:
		return EventProtocolPermissionRequested
	case CategorySpending:
		return EventSpendingAuthorizationRequested
	default:
		return ""
	}
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	return c.EventName() != ""
}

// ParseCategory converts a category name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q: must be one of %v", s, Categories)
	}
	return c, nil
}

// CategoryForEvent maps an SDK event name to its category.
func CategoryForEvent(eventName string) (Category, bool) {
	for _, c := range Categories {
		if c.EventName() == eventName {
			return c, true
		}
	}
	return "", false
}

// Request is implemented by every permission request variant.
type Request interface {
	// RequestID is the SDK-assigned identifier used for grant/deny.
	RequestID() string

	// Category is the queue this request belongs to.
	Category() Category

	// Origin is the originator on whose behalf access is requested.
	// Protocol requests may leave it empty.
	Origin() string

	// Fields returns the request as a map of canonical values
	// (string, int64, bool, []any, map[string]any) for journaling.
	Fields() map[string]any
}

// ProtocolRequestType distinguishes the purpose of a protocol permission prompt.
type ProtocolRequestType string

const (
	ProtocolTypeIdentity ProtocolRequestType = "identity"
	ProtocolTypeProtocol ProtocolRequestType = "protocol"
	ProtocolTypeRenewal  ProtocolRequestType = "renewal"
	ProtocolTypeBasket   ProtocolRequestType = "basket"
)

func (t ProtocolRequestType) valid() bool {
	switch t {
	case ProtocolTypeIdentity, ProtocolTypeProtocol, ProtocolTypeRenewal, ProtocolTypeBasket:
		return true
	}
	return false
}

// BasketAccessRequest asks for access to an output basket.
type BasketAccessRequest struct {
	ID         string `json:"requestID"`
	Basket     string `json:"basket,omitempty"`
	Originator string `json:"originator"`
	Reason     string `json:"reason,omitempty"`
	Renewal    bool   `json:"renewal,omitempty"`
}

func (r BasketAccessRequest) RequestID() string  { return r.ID }
func (r BasketAccessRequest) Category() Category { return CategoryBasket }
func (r BasketAccessRequest) Origin() string     { return r.Originator }

func (r BasketAccessRequest) Fields() map[string]any {
	return map[string]any{
		"requestID":  r.ID,
		"basket":     r.Basket,
		"originator": r.Originator,
		"reason":     r.Reason,
		"renewal":    r.Renewal,
	}
}

// CertificateAccessRequest asks to reveal certificate fields to a verifier.
type CertificateAccessRequest struct {
	ID                string   `json:"requestID"`
	Originator        string   `json:"originator"`
	VerifierPublicKey string   `json:"verifierPublicKey,omitempty"`
	CertificateType   string   `json:"certificateType,omitempty"`
	FieldsArray       []string `json:"fieldsArray"`
	Description       string   `json:"description,omitempty"`
	Renewal           bool     `json:"renewal,omitempty"`
}

func (r CertificateAccessRequest) RequestID() string  { return r.ID }
func (r CertificateAccessRequest) Category() Category { return CategoryCertificate }
func (r CertificateAccessRequest) Origin() string     { return r.Originator }

func (r CertificateAccessRequest) Fields() map[string]any {
	fields := make([]any, len(r.FieldsArray))
	for i, f := range r.FieldsArray {
		fields[i] = f
	}
	return map[string]any{
		"requestID":         r.ID,
		"originator":        r.Originator,
		"verifierPublicKey": r.VerifierPublicKey,
		"certificateType":   r.CertificateType,
		"fieldsArray":       fields,
		"description":       r.Description,
		"renewal":           r.Renewal,
	}
}

// ProtocolAccessRequest asks to use a protocol (key derivation context).
type ProtocolAccessRequest struct {
	ID                    string              `json:"requestID"`
	ProtocolSecurityLevel int64               `json:"protocolSecurityLevel"`
	ProtocolID            string              `json:"protocolID"`
	Counterparty          string              `json:"counterparty,omitempty"`
	Originator            string              `json:"originator,omitempty"`
	Description           string              `json:"description,omitempty"`
	Renewal               bool                `json:"renewal,omitempty"`
	Type                  ProtocolRequestType `json:"type"`
}

func (r ProtocolAccessRequest) RequestID() string  { return r.ID }
func (r ProtocolAccessRequest) Category() Category { return CategoryProtocol }
func (r ProtocolAccessRequest) Origin() string     { return r.Originator }

func (r ProtocolAccessRequest) Fields() map[string]any {
	return map[string]any{
		"requestID":             r.ID,
		"protocolSecurityLevel": r.ProtocolSecurityLevel,
		"protocolID":            r.ProtocolID,
		"counterparty":          r.Counterparty,
		"originator":            r.Originator,
		"description":           r.Description,
		"renewal":               r.Renewal,
		"type":                  string(r.Type),
	}
}

// LineItem is one input, output or fee line of a spending request.
type LineItem struct {
	Type          string `json:"type"`
	Description   string `json:"description"`
	SatoshisAdded int64  `json:"satoshis,omitempty"`
}

// SpendingRequest asks to authorize spending on behalf of an originator.
type SpendingRequest struct {
	ID                         string     `json:"requestID"`
	Originator                 string     `json:"originator"`
	Description                string     `json:"description,omitempty"`
	TransactionAmount          int64      `json:"transactionAmount"`
	TotalPastSpending          int64      `json:"totalPastSpending"`
	AmountPreviouslyAuthorized int64      `json:"amountPreviouslyAuthorized"`
	AuthorizationAmount        int64      `json:"authorizationAmount"`
	Renewal                    bool       `json:"renewal,omitempty"`
	LineItems                  []LineItem `json:"lineItems"`
}

func (r SpendingRequest) RequestID() string  { return r.ID }
func (r SpendingRequest) Category() Category { return CategorySpending }
func (r SpendingRequest) Origin() string     { return r.Originator }

func (r SpendingRequest) Fields() map[string]any {
	items := make([]any, len(r.LineItems))
	for i, li := range r.LineItems {
		items[i] = map[string]any{
			"type":        li.Type,
			"description": li.Description,
			"satoshis":    li.SatoshisAdded,
		}
	}
	return map[string]any{
		"requestID":                  r.ID,
		"originator":                 r.Originator,
		"description":                r.Description,
		"transactionAmount":          r.TransactionAmount,
		"totalPastSpending":          r.TotalPastSpending,
		"amountPreviouslyAuthorized": r.AmountPreviouslyAuthorized,
		"authorizationAmount":        r.AuthorizationAmount,
		"renewal":                    r.Renewal,
		"lineItems":                  items,
	}
}
