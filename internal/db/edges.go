package db

import (
	"context"
	"fmt"
)

const edgeColumns = `id, position, source_id, target_id, relationship, critical`

// scanEdge scans a row into an Edge. The row must have all edgeColumns in order.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (Edge, error) {
	var e Edge
	err := scanner.Scan(&e.ID, &e.Position, &e.SourceID, &e.TargetID, &e.Relationship, &e.Critical)
	return e, err
}

func (d *DB) queryEdges(ctx context.Context, query string, args ...any) ([]Edge, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AllEdges returns all edges in snapshot input order
func (d *DB) AllEdges(ctx context.Context) ([]Edge, error) {
	return d.queryEdges(ctx, `SELECT `+edgeColumns+` FROM edges ORDER BY position, id`)
}

// EdgesForNode returns all edges where the given node is source OR target.
func (d *DB) EdgesForNode(ctx context.Context, nodeID string) ([]Edge, error) {
	return d.queryEdges(ctx,
		`SELECT `+edgeColumns+` FROM edges WHERE source_id = ? OR target_id = ? ORDER BY position, id`,
		nodeID, nodeID)
}

func (d *DB) upsertEdge(ctx context.Context, ex execer, e Edge) error {
	_, err := ex.ExecContext(ctx, d.rebind(`
		INSERT INTO edges (`+edgeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			source_id = excluded.source_id, target_id = excluded.target_id,
			relationship = excluded.relationship, critical = excluded.critical
	`), e.ID, e.Position, e.SourceID, e.TargetID, e.Relationship, boolToInt(e.Critical))
	if err != nil {
		return fmt.Errorf("upserting edge %s: %w", e.ID, err)
	}
	return nil
}
