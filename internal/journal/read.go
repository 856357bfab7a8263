package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blocklab/prockit/internal/events"
)

// ErrGroupNotFound is returned when a requested group does not exist.
var ErrGroupNotFound = errors.New("change group not found")

// ReadGroup reads one change group with all its changes.
// Changes come back in logical order: ORDER BY seq ASC.
func (j *Journal) ReadGroup(ctx context.Context, groupID string) (events.Group, error) {
	var group events.Group
	err := j.db.QueryRowContext(ctx, `
		SELECT id, seq FROM change_groups WHERE id = ?
	`, groupID).Scan(&group.ID, &group.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return events.Group{}, fmt.Errorf("read group %s: %w", groupID, ErrGroupNotFound)
	}
	if err != nil {
		return events.Group{}, fmt.Errorf("read group: %w", err)
	}

	group.Changes, err = j.readChanges(ctx, groupID)
	if err != nil {
		return events.Group{}, err
	}
	return group, nil
}

// ListGroups reads all recorded groups, changes included.
// Deterministic ordering: ORDER BY seq ASC, id ASC (BINARY collation).
// Returns an empty slice, not nil, when the journal is empty.
func (j *Journal) ListGroups(ctx context.Context) ([]events.Group, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, seq FROM change_groups
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []events.Group{}
	for rows.Next() {
		var group events.Group
		if err := rows.Scan(&group.ID, &group.Seq); err != nil {
			return nil, fmt.Errorf("list groups: scan: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	for i := range groups {
		groups[i].Changes, err = j.readChanges(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// GroupCount returns the number of recorded groups.
func (j *Journal) GroupCount(ctx context.Context) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM change_groups`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("group count: %w", err)
	}
	return count, nil
}

// ChangesForBlock reads every recorded change touching one block, across
// all groups, in logical order. Used to trace a block's edit history.
func (j *Journal) ChangesForBlock(ctx context.Context, blockID string) ([]events.Change, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, kind, block_id, before_json, after_json
		FROM changes
		WHERE block_id = ?
		ORDER BY seq ASC
	`, blockID)
	if err != nil {
		return nil, fmt.Errorf("changes for block: %w", err)
	}
	defer rows.Close()

	return scanChanges(rows)
}

// readChanges reads the changes of one group in logical order.
func (j *Journal) readChanges(ctx context.Context, groupID string) ([]events.Change, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, kind, block_id, before_json, after_json
		FROM changes
		WHERE group_id = ?
		ORDER BY seq ASC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	defer rows.Close()

	return scanChanges(rows)
}

func scanChanges(rows *sql.Rows) ([]events.Change, error) {
	// Return empty slice instead of nil for deterministic serialization
	changes := []events.Change{}
	for rows.Next() {
		var (
			change     events.Change
			kind       string
			beforeJSON *string
			afterJSON  *string
		)
		if err := rows.Scan(&change.Seq, &kind, &change.BlockID, &beforeJSON, &afterJSON); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		change.Kind = changeKindFromString(kind)

		var err error
		change.Before, err = unmarshalSnapshot(beforeJSON)
		if err != nil {
			return nil, fmt.Errorf("scan change %d: %w", change.Seq, err)
		}
		change.After, err = unmarshalSnapshot(afterJSON)
		if err != nil {
			return nil, fmt.Errorf("scan change %d: %w", change.Seq, err)
		}
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan changes: %w", err)
	}
	return changes, nil
}

func changeKindFromString(s string) events.ChangeKind {
	switch s {
	case "create":
		return events.ChangeCreate
	case "delete":
		return events.ChangeDelete
	case "mutate":
		return events.ChangeMutate
	case "move":
		return events.ChangeMove
	default:
		return 0
	}
}
