package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/walletbroker/internal/config"
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/testutil"
)

// Scenario is one broker scenario.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Focused is the host's focus state when the scenario starts.
	Focused bool `yaml:"focused"`

	// FocusMode is per_category (default) or shared.
	FocusMode string `yaml:"focus_mode,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one action field is set.
type Step struct {
	Request    *RequestStep  `yaml:"request,omitempty"`
	Grant      *DecisionStep `yaml:"grant,omitempty"`
	Deny       *DecisionStep `yaml:"deny,omitempty"`
	Advance    *DecisionStep `yaml:"advance,omitempty"`
	SetFocused *bool         `yaml:"set_focused,omitempty"`
	FailWallet *FailStep     `yaml:"fail_wallet,omitempty"`

	// HoldFocus blocks focus checks (true) or releases them (false).
	// While held the broker is not settled between steps.
	HoldFocus *bool `yaml:"hold_focus,omitempty"`

	// ExpectError names the error the step must return; see errorName.
	// Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// RequestStep delivers an SDK event.
type RequestStep struct {
	Category string `yaml:"category"`

	// Event overrides the event name derived from Category.
	Event string `yaml:"event,omitempty"`

	Payload map[string]any `yaml:"payload"`
}

// DecisionStep grants, denies or advances a category's head.
type DecisionStep struct {
	Category  string `yaml:"category"`
	Ephemeral bool   `yaml:"ephemeral,omitempty"`
	Amount    int64  `yaml:"amount,omitempty"`
}

// FailStep makes the wallet fail decisions for one request.
type FailStep struct {
	RequestID string `yaml:"request_id"`
	Message   string `yaml:"message"`
}

// Assertion checks the scenario's final result.
type Assertion struct {
	Type string `yaml:"type"`

	Category string `yaml:"category,omitempty"`
	Count    *int   `yaml:"count,omitempty"`
	Open     *bool  `yaml:"open,omitempty"`
	State    string `yaml:"state,omitempty"`
	Head     string `yaml:"head,omitempty"`

	// Op is a focus op (focus_count) or a journal kind (journal_count).
	Op string `yaml:"op,omitempty"`

	Calls     []string         `yaml:"calls,omitempty"`
	Kinds     []string         `yaml:"kinds,omitempty"`
	Decisions []DecisionExpect `yaml:"decisions,omitempty"`
}

// DecisionExpect is one expected wallet decision.
type DecisionExpect struct {
	Op        string `yaml:"op"`
	RequestID string `yaml:"request_id"`
	Ephemeral bool   `yaml:"ephemeral,omitempty"`
	Amount    int64  `yaml:"amount,omitempty"`
}

// Assertion type constants.
const (
	AssertQueueLength  = "queue_length"
	AssertPromptOpen   = "prompt_open"
	AssertState        = "state"
	AssertHead         = "head"
	AssertFocusCalls   = "focus_calls"
	AssertFocusCount   = "focus_count"
	AssertDecisions    = "decisions"
	AssertJournalOrder = "journal_order"
	AssertJournalCount = "journal_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.FocusMode {
	case "", config.FocusPerCategory, config.FocusShared:
	default:
		return fmt.Errorf("focus_mode %q must be %s or %s", s.FocusMode, config.FocusPerCategory, config.FocusShared)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st Step) error {
	actions := 0
	for _, set := range []bool{
		st.Request != nil, st.Grant != nil, st.Deny != nil, st.Advance != nil,
		st.SetFocused != nil, st.FailWallet != nil, st.HoldFocus != nil,
	} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, found %d", index, actions)
	}

	switch {
	case st.Request != nil:
		if st.Request.Event == "" {
			if _, err := request.ParseCategory(st.Request.Category); err != nil {
				return fmt.Errorf("steps[%d].request: %w", index, err)
			}
		}
		if st.Request.Payload == nil {
			return fmt.Errorf("steps[%d].request: payload is required", index)
		}
	case st.Grant != nil:
		return validateCategory(index, "grant", st.Grant.Category)
	case st.Deny != nil:
		return validateCategory(index, "deny", st.Deny.Category)
	case st.Advance != nil:
		return validateCategory(index, "advance", st.Advance.Category)
	case st.FailWallet != nil:
		if st.FailWallet.RequestID == "" {
			return fmt.Errorf("steps[%d].fail_wallet: request_id is required", index)
		}
	}
	return nil
}

func validateCategory(index int, action, category string) error {
	if _, err := request.ParseCategory(category); err != nil {
		return fmt.Errorf("steps[%d].%s: %w", index, action, err)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	needCategory := func() error {
		if _, err := request.ParseCategory(a.Category); err != nil {
			return fmt.Errorf("assertions[%d]: %s: %w", index, a.Type, err)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertQueueLength:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for queue_length", index)
		}
		return needCategory()
	case AssertPromptOpen:
		if a.Open == nil {
			return fmt.Errorf("assertions[%d]: open is required for prompt_open", index)
		}
		return needCategory()
	case AssertState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
		return needCategory()
	case AssertHead:
		return needCategory()
	case AssertFocusCalls:
		if a.Calls == nil {
			return fmt.Errorf("assertions[%d]: calls is required for focus_calls (use [] for none)", index)
		}
	case AssertFocusCount:
		switch a.Op {
		case testutil.OpIsFocused, testutil.OpRequest, testutil.OpRelinquish:
		default:
			return fmt.Errorf("assertions[%d]: unknown focus op %q", index, a.Op)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for focus_count", index)
		}
	case AssertDecisions:
		if a.Decisions == nil {
			return fmt.Errorf("assertions[%d]: decisions is required (use [] for none)", index)
		}
	case AssertJournalOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for journal_order", index)
		}
	case AssertJournalCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for journal_count", index)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for journal_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
