package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/walletbroker/internal/canon"
)

// Snapshot is the stored host blob with its fingerprint and revision.
type Snapshot struct {
	Blob     []byte
	Hash     string
	Revision int64
}

// PutSnapshot replaces the stored snapshot blob.
// The blob is stored as given; the revision increments on every write.
func (s *Store) PutSnapshot(ctx context.Context, blob []byte) (Snapshot, error) {
	if blob == nil {
		blob = []byte{}
	}
	hash := canon.Hash(canon.DomainSnapshot, blob)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, blob, blob_hash, revision)
		VALUES (1, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			blob = excluded.blob,
			blob_hash = excluded.blob_hash,
			revision = snapshots.revision + 1
	`, blob, hash)
	if err != nil {
		return Snapshot{}, fmt.Errorf("put snapshot: %w", err)
	}

	snap, _, err := s.GetSnapshot(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("put snapshot: %w", err)
	}
	return snap, nil
}

// GetSnapshot returns the stored snapshot.
// found is false if no snapshot has been written.
func (s *Store) GetSnapshot(ctx context.Context) (snap Snapshot, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT blob, blob_hash, revision FROM snapshots WHERE id = 1
	`)
	if err := row.Scan(&snap.Blob, &snap.Hash, &snap.Revision); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, true, nil
}

// ClearSnapshot removes the stored snapshot, if any.
func (s *Store) ClearSnapshot(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = 1`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
