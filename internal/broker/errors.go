package broker

import (
	"errors"
	"fmt"

	"github.com/roach88/walletbroker/internal/request"
)

var (
	// ErrStopped is returned when the broker loop is not running.
	ErrStopped = errors.New("broker stopped")

	// ErrQueueEmpty is returned by a decision on a category with no pending request.
	ErrQueueEmpty = errors.New("no pending request")

	// ErrDecisionInFlight is returned when another decision already holds the head.
	ErrDecisionInFlight = errors.New("decision already in flight for head request")

	// ErrInvalidGrant is returned for grant options the wallet cannot honor.
	ErrInvalidGrant = errors.New("invalid grant")
)

// Decision operations reported in DecisionError.Op.
const (
	OpGrant = "grant"
	OpDeny  = "deny"
)

// DecisionError reports a wallet grant/deny failure.
// The queue has already advanced past RequestID when this is returned.
type DecisionError struct {
	Category  request.Category
	RequestID string
	Op        string
	Err       error
}

// Error implements the error interface.
func (e *DecisionError) Error() string {
	return fmt.Sprintf("%s %s request %s: %v", e.Op, e.Category, e.RequestID, e.Err)
}

func (e *DecisionError) Unwrap() error {
	return e.Err
}

// IsDecisionError reports whether err is (or wraps) a *DecisionError.
func IsDecisionError(err error) bool {
	var de *DecisionError
	return errors.As(err, &de)
}
