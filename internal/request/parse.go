package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Parse decodes an SDK event payload into its typed request variant.
//
// The event name selects the variant; the payload must be a JSON object.
// Decoding is strict about types (a fractional security level or a string
// amount fails with E200) and the decoded request must pass Validate.
// Unknown JSON fields are ignored so newer SDK payloads still parse.
func Parse(eventName string, payload []byte) (Request, error) {
	category, ok := CategoryForEvent(eventName)
	if !ok {
		return nil, &ParseError{
			Code:    ErrCodeUnknownEvent,
			Event:   eventName,
			Message: "not a permission event",
		}
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{
			Code:    ErrCodeMalformedPayload,
			Event:   eventName,
			Message: "payload must be a JSON object",
		}
	}

	var (
		req Request
		err error
	)
	switch category {
	case CategoryBasket:
		var r BasketAccessRequest
		err = decode(trimmed, &r)
		req = r
	case CategoryCertificate:
		var r CertificateAccessRequest
		err = decode(trimmed, &r)
		if r.FieldsArray == nil {
			r.FieldsArray = []string{}
		}
		req = r
	case CategoryProtocol:
		var r ProtocolAccessRequest
		err = decode(trimmed, &r)
		if r.Type == "" {
			r.Type = InferProtocolType(r.ProtocolID, r.Renewal)
		}
		req = r
	case CategorySpending:
		var r SpendingRequest
		err = decode(trimmed, &r)
		if r.LineItems == nil {
			r.LineItems = []LineItem{}
		}
		req = r
	}
	if err != nil {
		return nil, &ParseError{
			Code:    ErrCodeMalformedPayload,
			Event:   eventName,
			Message: err.Error(),
			Err:     err,
		}
	}

	if err := Validate(req); err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Event = eventName
		}
		return nil, err
	}

	return req, nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("decode: trailing data after object")
	}
	return nil
}

// Validate checks the identifying and required fields of a typed request.
// Returns a *ParseError describing the first problem found, or nil.
//
// The broker runs Validate on every inbound request as well, so requests
// constructed in Go (bypassing Parse) get the same treatment.
func Validate(r Request) error {
	if IsNil(r) {
		return &ParseError{Code: ErrCodeMalformedPayload, Message: "request is nil"}
	}
	if strings.TrimSpace(r.RequestID()) == "" {
		return &ParseError{
			Code:    ErrCodeMissingRequestID,
			Field:   "requestID",
			Message: "requestID is required",
		}
	}

	// Basket and certificate requests need nothing beyond requestID.
	switch req := r.(type) {
	case *BasketAccessRequest:
		return Validate(*req)
	case *CertificateAccessRequest:
		return Validate(*req)
	case ProtocolAccessRequest:
		return validateProtocol(req)
	case *ProtocolAccessRequest:
		return Validate(*req)
	case SpendingRequest:
		return validateSpending(req)
	case *SpendingRequest:
		return Validate(*req)
	}
	return nil
}

func validateProtocol(r ProtocolAccessRequest) error {
	if r.ProtocolID == "" {
		return missingField("protocolID")
	}
	if r.ProtocolSecurityLevel < 0 || r.ProtocolSecurityLevel > 2 {
		return outOfRange("protocolSecurityLevel",
			fmt.Sprintf("security level %d must be 0, 1 or 2", r.ProtocolSecurityLevel))
	}
	// An absent type is inferred by Parse; only a supplied one is checked.
	if r.Type != "" && !r.Type.valid() {
		return outOfRange("type", fmt.Sprintf("unknown protocol request type %q", r.Type))
	}
	return nil
}

func validateSpending(r SpendingRequest) error {
	if r.Originator == "" {
		return missingField("originator")
	}
	amounts := []struct {
		field string
		value int64
	}{
		{"transactionAmount", r.TransactionAmount},
		{"totalPastSpending", r.TotalPastSpending},
		{"amountPreviouslyAuthorized", r.AmountPreviouslyAuthorized},
		{"authorizationAmount", r.AuthorizationAmount},
	}
	for _, a := range amounts {
		if a.value < 0 {
			return outOfRange(a.field, "amount must not be negative")
		}
	}
	for i, li := range r.LineItems {
		if li.Type == "" {
			return missingField(fmt.Sprintf("lineItems[%d].type", i))
		}
	}
	return nil
}

// InferProtocolType classifies a protocol request the SDK sent without a
// type: identity resolution first, then renewals, then basket protocols.
func InferProtocolType(protocolID string, renewal bool) ProtocolRequestType {
	switch {
	case protocolID == "identity resolution":
		return ProtocolTypeIdentity
	case renewal:
		return ProtocolTypeRenewal
	case strings.Contains(protocolID, "basket"):
		return ProtocolTypeBasket
	default:
		return ProtocolTypeProtocol
	}
}

// IsNil reports whether r is nil or holds a typed nil pointer, on which the
// value-receiver methods of Request would panic.
func IsNil(r Request) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
