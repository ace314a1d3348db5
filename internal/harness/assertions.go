package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/store"
	"github.com/roach88/walletbroker/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string

	// Trace is included for debugging context.
	Trace []store.Entry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nJournal:\n")
		for _, entry := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", entry.Seq, describeEntry(entry))
		}
	}
	return buf.String()
}

func describeEntry(e store.Entry) string {
	parts := []string{e.Category, string(e.Kind)}
	if e.RequestID != "" {
		parts = append(parts, e.RequestID)
	}
	if e.Detail != "" {
		parts = append(parts, "("+e.Detail+")")
	}
	return strings.Join(parts, " ")
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertQueueLength:
		return assertQueueLength(result, a)
	case AssertPromptOpen:
		return assertPromptOpen(result, a)
	case AssertState:
		return assertState(result, a)
	case AssertHead:
		return assertHead(result, a)
	case AssertFocusCalls:
		return assertFocusCalls(result, a)
	case AssertFocusCount:
		return assertFocusCount(result, a)
	case AssertDecisions:
		return assertDecisions(result, a)
	case AssertJournalOrder:
		return assertJournalOrder(result, a)
	case AssertJournalCount:
		return assertJournalCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertQueueLength(result *Result, a Assertion) error {
	v := result.Views[request.Category(a.Category)]
	if v.Length != *a.Count {
		return &AssertionError{
			Type:     AssertQueueLength,
			Expected: fmt.Sprintf("%s queue length %d", a.Category, *a.Count),
			Actual:   fmt.Sprintf("length %d", v.Length),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertPromptOpen(result *Result, a Assertion) error {
	v := result.Views[request.Category(a.Category)]
	if v.PromptOpen != *a.Open {
		return &AssertionError{
			Type:     AssertPromptOpen,
			Expected: fmt.Sprintf("%s prompt open=%t", a.Category, *a.Open),
			Actual:   fmt.Sprintf("open=%t", v.PromptOpen),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertState(result *Result, a Assertion) error {
	v := result.Views[request.Category(a.Category)]
	if v.State.String() != a.State {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s state %s", a.Category, a.State),
			Actual:   v.State.String(),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertHead checks the head request ID; an empty head means the queue is empty.
func assertHead(result *Result, a Assertion) error {
	v := result.Views[request.Category(a.Category)]
	got := ""
	if v.Head != nil {
		got = v.Head.RequestID()
	}
	if got != a.Head {
		return &AssertionError{
			Type:     AssertHead,
			Expected: fmt.Sprintf("%s head %q", a.Category, a.Head),
			Actual:   fmt.Sprintf("%q", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertFocusCalls(result *Result, a Assertion) error {
	if !equalStrings(result.FocusCalls, a.Calls) {
		return &AssertionError{
			Type:     AssertFocusCalls,
			Expected: fmt.Sprintf("%v", a.Calls),
			Actual:   fmt.Sprintf("%v", result.FocusCalls),
		}
	}
	return nil
}

func assertFocusCount(result *Result, a Assertion) error {
	n := 0
	for _, c := range result.FocusCalls {
		if c == a.Op {
			n++
		}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertFocusCount,
			Expected: fmt.Sprintf("%d %s calls", *a.Count, a.Op),
			Actual:   fmt.Sprintf("%d calls in %v", n, result.FocusCalls),
		}
	}
	return nil
}

func assertDecisions(result *Result, a Assertion) error {
	want := make([]testutil.Decision, len(a.Decisions))
	for i, d := range a.Decisions {
		want[i] = testutil.Decision{Op: d.Op, RequestID: d.RequestID, Ephemeral: d.Ephemeral, Amount: d.Amount}
	}
	match := len(want) == len(result.Decisions)
	for i := 0; match && i < len(want); i++ {
		match = want[i] == result.Decisions[i]
	}
	if !match {
		return &AssertionError{
			Type:     AssertDecisions,
			Expected: fmt.Sprintf("%+v", want),
			Actual:   fmt.Sprintf("%+v", result.Decisions),
		}
	}
	return nil
}

// assertJournalOrder checks that kinds appear in order, optionally within
// one category. Intervening entries are allowed. A kind may be suffixed
// with " <request_id>" to match a specific request.
func assertJournalOrder(result *Result, a Assertion) error {
	next := 0
	for _, e := range result.Trace {
		if next == len(a.Kinds) {
			break
		}
		if a.Category != "" && e.Category != a.Category {
			continue
		}
		if matchKind(e, a.Kinds[next]) {
			next++
		}
	}
	if next < len(a.Kinds) {
		return &AssertionError{
			Type:     AssertJournalOrder,
			Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
			Actual:   fmt.Sprintf("missing %q after position %d", a.Kinds[next], next),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertJournalCount(result *Result, a Assertion) error {
	n := 0
	for _, e := range result.Trace {
		if a.Category != "" && e.Category != a.Category {
			continue
		}
		if matchKind(e, a.Op) {
			n++
		}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d %s entries", *a.Count, a.Op),
			Actual:   fmt.Sprintf("%d entries", n),
			Trace:    result.Trace,
		}
	}
	return nil
}

func matchKind(e store.Entry, pattern string) bool {
	kind, id, hasID := strings.Cut(pattern, " ")
	if string(e.Kind) != kind {
		return false
	}
	return !hasID || e.RequestID == id
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
