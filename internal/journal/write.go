package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/events"
)

// WriteGroup inserts a change group and all its changes in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - replaying an already
// recorded group is silently ignored, changes included.
//
// Before/after snapshots are serialized as canonical JSON so a journal row
// hashes identically to the in-memory snapshot it records.
func (j *Journal) WriteGroup(ctx context.Context, group events.Group) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write group: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO change_groups (id, seq, change_count)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, group.ID, group.Seq, len(group.Changes))
	if err != nil {
		return fmt.Errorf("write group: insert group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write group: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Group already recorded; its changes were written in the same
		// transaction back then, so there is nothing left to do.
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("write group: commit (existing): %w", err)
		}
		return nil
	}

	for _, change := range group.Changes {
		beforeJSON, err := marshalSnapshot(change.Before)
		if err != nil {
			return fmt.Errorf("write group: change %d: %w", change.Seq, err)
		}
		afterJSON, err := marshalSnapshot(change.After)
		if err != nil {
			return fmt.Errorf("write group: change %d: %w", change.Seq, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO changes (group_id, seq, kind, block_id, before_json, after_json)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(group_id, seq) DO NOTHING
		`,
			group.ID,
			change.Seq,
			change.Kind.String(),
			change.BlockID,
			beforeJSON,
			afterJSON,
		)
		if err != nil {
			return fmt.Errorf("write group: insert change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write group: commit: %w", err)
	}

	return nil
}

// Listener returns a bus listener that persists every published group.
// Journal errors are logged, not propagated: a failed journal write must
// not break the editing session that produced the group.
func (j *Journal) Listener() events.Listener {
	return func(group events.Group) {
		if err := j.WriteGroup(context.Background(), group); err != nil {
			slog.Error("journal write failed",
				"group_id", group.ID,
				"seq", group.Seq,
				"error", err,
			)
		}
	}
}

// marshalSnapshot serializes a snapshot to canonical JSON.
// Returns nil for a nil snapshot, stored as SQL NULL.
func marshalSnapshot(s *block.Snapshot) (any, error) {
	if s == nil {
		return nil, nil
	}
	data, err := s.Canonical()
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}

// unmarshalSnapshot parses a stored snapshot column.
// A NULL column yields nil.
func unmarshalSnapshot(data *string) (*block.Snapshot, error) {
	if data == nil {
		return nil, nil
	}
	var s block.Snapshot
	if err := json.Unmarshal([]byte(*data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}
