package db

import (
	"context"
	"fmt"
	"time"
)

const checklistColumns = `request_key, node_id, item_id, title, completed, position, updated_at`

// Checklist returns the stored checklist for a request in item order.
// Returns an empty slice when none has been stored.
func (d *DB) Checklist(ctx context.Context, requestKey string) ([]ChecklistItem, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(
		`SELECT `+checklistColumns+` FROM checklist_items WHERE request_key = ? ORDER BY position`), requestKey)
	if err != nil {
		return nil, fmt.Errorf("querying checklist: %w", err)
	}
	defer rows.Close()

	items := []ChecklistItem{}
	for rows.Next() {
		var it ChecklistItem
		if err := rows.Scan(&it.RequestKey, &it.NodeID, &it.ItemID, &it.Title,
			&it.Completed, &it.Position, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning checklist item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ReplaceChecklist stores items as the whole checklist for requestKey,
// discarding whatever was stored before.
func (d *DB) ReplaceChecklist(ctx context.Context, requestKey string, items []ChecklistItem) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM checklist_items WHERE request_key = ?`), requestKey); err != nil {
		return fmt.Errorf("clearing checklist: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, d.rebind(
			`INSERT INTO checklist_items (`+checklistColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			requestKey, it.NodeID, it.ItemID, it.Title, boolToInt(it.Completed), it.Position, now,
		); err != nil {
			return fmt.Errorf("inserting checklist item %s: %w", it.NodeID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SetItemCompleted toggles one item. Returns ErrNotFound if the item is not stored.
func (d *DB) SetItemCompleted(ctx context.Context, requestKey, nodeID string, completed bool) error {
	res, err := d.conn.ExecContext(ctx, d.rebind(
		`UPDATE checklist_items SET completed = ?, updated_at = ? WHERE request_key = ? AND node_id = ?`),
		boolToInt(completed), time.Now().UnixMilli(), requestKey, nodeID)
	if err != nil {
		return fmt.Errorf("updating checklist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("checklist item %s in %q: %w", nodeID, requestKey, ErrNotFound)
	}
	return nil
}

// DeleteChecklist removes a stored checklist.
func (d *DB) DeleteChecklist(ctx context.Context, requestKey string) error {
	if _, err := d.conn.ExecContext(ctx, d.rebind(`DELETE FROM checklist_items WHERE request_key = ?`), requestKey); err != nil {
		return fmt.Errorf("deleting checklist: %w", err)
	}
	return nil
}

// ChecklistKeys returns the request keys that have a stored checklist, sorted.
func (d *DB) ChecklistKeys(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT DISTINCT request_key FROM checklist_items ORDER BY request_key`)
	if err != nil {
		return nil, fmt.Errorf("querying checklist keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
