package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const nodeColumns = `id, position, type, title, description, owner, code, version, status,
	roles, activities, locations, iso_clauses, inputs, outputs,
	link_url, link_path, next_review_date`

// scanNode scans a row into a Node. The row must have all nodeColumns in order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var n Node
	err := scanner.Scan(
		&n.ID, &n.Position, &n.NodeType, &n.Title, &n.Description, &n.Owner,
		&n.Code, &n.Version, &n.Status, &n.Roles, &n.Activities, &n.Locations,
		&n.ISOClauses, &n.Inputs, &n.Outputs, &n.LinkURL, &n.LinkPath, &n.NextReviewDate,
	)
	return n, err
}

func (d *DB) queryNodes(ctx context.Context, query string, args ...any) ([]Node, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// AllNodes returns all nodes in snapshot input order
func (d *DB) AllNodes(ctx context.Context) ([]Node, error) {
	return d.queryNodes(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY position, id`)
}

// GetNode returns a single node by ID. Returns ErrNotFound if absent.
func (d *DB) GetNode(ctx context.Context, id string) (*Node, error) {
	row := d.conn.QueryRowContext(ctx, d.rebind(`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`), id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// SearchByIDPrefix finds nodes whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(ctx context.Context, prefix string, limit int) ([]Node, error) {
	return d.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id LIKE ? ESCAPE '\' ORDER BY position, id LIMIT ?`,
		escapeLike(prefix)+"%", limit)
}

// upsertNode inserts n or updates every field except its position.
func (d *DB) upsertNode(ctx context.Context, ex execer, n Node) error {
	_, err := ex.ExecContext(ctx, d.rebind(`
		INSERT INTO nodes (`+nodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type = excluded.type, title = excluded.title,
			description = excluded.description, owner = excluded.owner,
			code = excluded.code, version = excluded.version, status = excluded.status,
			roles = excluded.roles, activities = excluded.activities,
			locations = excluded.locations, iso_clauses = excluded.iso_clauses,
			inputs = excluded.inputs, outputs = excluded.outputs,
			link_url = excluded.link_url, link_path = excluded.link_path,
			next_review_date = excluded.next_review_date
	`),
		n.ID, n.Position, n.NodeType, n.Title, n.Description, n.Owner, n.Code,
		n.Version, n.Status, n.Roles, n.Activities, n.Locations, n.ISOClauses,
		n.Inputs, n.Outputs, n.LinkURL, n.LinkPath, n.NextReviewDate,
	)
	if err != nil {
		return fmt.Errorf("upserting node %s: %w", n.ID, err)
	}
	return nil
}

// DeleteNode removes a node and every edge touching it.
func (d *DB) DeleteNode(ctx context.Context, id string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM nodes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM edges WHERE source_id = ? OR target_id = ?`), id, id); err != nil {
		return fmt.Errorf("deleting edges of %s: %w", id, err)
	}
	if err := bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}
