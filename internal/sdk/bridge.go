package sdk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/walletbroker/internal/request"
)

// Bridge parses raw SDK events and delivers them to a Listener.
//
// Payloads that fail request.Parse are logged and returned to the caller as
// a *request.ParseError; they never reach the Listener.
type Bridge struct {
	listener Listener
	logger   *slog.Logger
}

// NewBridge creates a bridge delivering to l. A nil logger uses slog.Default().
func NewBridge(l Listener, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{listener: l, logger: logger}
}

// Dispatch parses payload as the event named eventName and delivers it.
func (b *Bridge) Dispatch(ctx context.Context, eventName string, payload []byte) error {
	req, err := request.Parse(eventName, payload)
	if err != nil {
		b.logger.Warn("rejected sdk event",
			"event", eventName,
			"code", request.ParseErrorCode(err),
			"error", err,
		)
		return err
	}
	return Deliver(ctx, b.listener, req)
}

// Deliver routes a typed request to the matching Listener method.
func Deliver(ctx context.Context, l Listener, req request.Request) error {
	switch r := req.(type) {
	case request.BasketAccessRequest:
		return l.OnBasketAccessRequested(ctx, r)
	case *request.BasketAccessRequest:
		if r == nil {
			return nilRequest(req)
		}
		return l.OnBasketAccessRequested(ctx, *r)
	case request.CertificateAccessRequest:
		return l.OnCertificateAccessRequested(ctx, r)
	case *request.CertificateAccessRequest:
		if r == nil {
			return nilRequest(req)
		}
		return l.OnCertificateAccessRequested(ctx, *r)
	case request.ProtocolAccessRequest:
		return l.OnProtocolPermissionRequested(ctx, r)
	case *request.ProtocolAccessRequest:
		if r == nil {
			return nilRequest(req)
		}
		return l.OnProtocolPermissionRequested(ctx, *r)
	case request.SpendingRequest:
		return l.OnSpendingAuthorizationRequested(ctx, r)
	case *request.SpendingRequest:
		if r == nil {
			return nilRequest(req)
		}
		return l.OnSpendingAuthorizationRequested(ctx, *r)
	default:
		return fmt.Errorf("deliver: unsupported request type %T", req)
	}
}

func nilRequest(req request.Request) error {
	return &request.ParseError{
		Code:    request.ErrCodeMalformedPayload,
		Message: fmt.Sprintf("nil %T", req),
	}
}
