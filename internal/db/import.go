package db

import (
	"context"
	"fmt"
)

// ImportStats reports what an import wrote.
type ImportStats struct {
	Nodes    int   `json:"nodes"`
	Edges    int   `json:"edges"`
	Revision int64 `json:"revision"`
}

// ImportGraph writes nodes and edges in one transaction and bumps the revision.
// With replace the existing graph is cleared first. Otherwise rows are upserted
// by id; new rows are appended after the current maximum position and existing
// rows keep theirs. Checklists are left alone.
func (d *DB) ImportGraph(ctx context.Context, nodes []Node, edges []Edge, replace bool) (*ImportStats, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
			return nil, fmt.Errorf("clearing edges: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
			return nil, fmt.Errorf("clearing nodes: %w", err)
		}
	}

	var nodeBase, edgeBase int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM nodes`).Scan(&nodeBase); err != nil {
		return nil, fmt.Errorf("reading node positions: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM edges`).Scan(&edgeBase); err != nil {
		return nil, fmt.Errorf("reading edge positions: %w", err)
	}

	for i, n := range nodes {
		n.Position = nodeBase + i
		if err := d.upsertNode(ctx, tx, n); err != nil {
			return nil, err
		}
	}
	for i, e := range edges {
		e.Position = edgeBase + i
		if err := d.upsertEdge(ctx, tx, e); err != nil {
			return nil, err
		}
	}

	if err := bumpRevision(ctx, tx); err != nil {
		return nil, err
	}
	var rev int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'revision'`).Scan(&rev); err != nil {
		return nil, fmt.Errorf("reading revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &ImportStats{Nodes: len(nodes), Edges: len(edges), Revision: rev}, nil
}
