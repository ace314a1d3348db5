package store

import (
	"context"
	"fmt"
	"strings"
)

// Kind names a broker transition recorded in the journal.
type Kind string

const (
	KindEnqueued          Kind = "enqueued"
	KindFocusChecked      Kind = "focus_checked"
	KindFocusRequested    Kind = "focus_requested"
	KindPromptOpened      Kind = "prompt_opened"
	KindGranted           Kind = "granted"
	KindDenied            Kind = "denied"
	KindDecisionFailed    Kind = "decision_failed"
	KindAdvanced          Kind = "advanced"
	KindPromptClosed      Kind = "prompt_closed"
	KindFocusRelinquished Kind = "focus_relinquished"
)

// Entry is one journal row.
type Entry struct {
	RunID     string `json:"run_id"`
	Seq       int64  `json:"seq"`
	Kind      Kind   `json:"kind"`
	Category  string `json:"category,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Episode   string `json:"episode,omitempty"`
	Detail    string `json:"detail,omitempty"`

	// Payload is the canonical JSON of the request, set on enqueued entries.
	Payload string `json:"payload,omitempty"`

	// PayloadHash fingerprints Payload (canon.DomainRequest).
	PayloadHash string `json:"payload_hash,omitempty"`
}

// Filter narrows ReadEntries. Empty fields match everything.
type Filter struct {
	RunID     string
	Category  string
	RequestID string
}

// AppendEntry inserts a journal row.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency: rewriting an
// existing (run_id, seq) is silently ignored.
func (s *Store) AppendEntry(ctx context.Context, e Entry) error {
	if e.RunID == "" {
		return fmt.Errorf("append entry: run_id is required")
	}
	if e.Kind == "" {
		return fmt.Errorf("append entry: kind is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal
		(run_id, seq, kind, category, request_id, episode, detail, payload, payload_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		e.RunID,
		e.Seq,
		string(e.Kind),
		e.Category,
		e.RequestID,
		e.Episode,
		e.Detail,
		e.Payload,
		e.PayloadHash,
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// ReadEntries returns journal rows matching f.
// Results are ordered deterministically: ORDER BY run_id, seq, id.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEntries(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.RequestID != "" {
		where = append(where, "request_id = ?")
		args = append(args, f.RequestID)
	}

	query := `
		SELECT run_id, seq, kind, category, request_id, episode, detail, payload, payload_hash
		FROM journal`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY run_id COLLATE BINARY ASC, seq ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e    Entry
			kind string
		)
		if err := rows.Scan(
			&e.RunID,
			&e.Seq,
			&kind,
			&e.Category,
			&e.RequestID,
			&e.Episode,
			&e.Detail,
			&e.Payload,
			&e.PayloadHash,
		); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}

	return entries, nil
}

// Runs returns the distinct run IDs in the journal in ascending order.
// Run IDs are UUIDv7, so this is also creation order.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT run_id FROM journal
		ORDER BY run_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
