package db

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id               TEXT PRIMARY KEY,
	position         INTEGER NOT NULL,
	type             TEXT NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	owner            TEXT NOT NULL DEFAULT '',
	code             TEXT NOT NULL DEFAULT '',
	version          TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'draft',
	roles            TEXT NOT NULL DEFAULT '[]',
	activities       TEXT NOT NULL DEFAULT '[]',
	locations        TEXT NOT NULL DEFAULT '[]',
	iso_clauses      TEXT NOT NULL DEFAULT '[]',
	inputs           TEXT NOT NULL DEFAULT '[]',
	outputs          TEXT NOT NULL DEFAULT '[]',
	link_url         TEXT,
	link_path        TEXT,
	next_review_date TEXT
);

CREATE TABLE IF NOT EXISTS edges (
	id           TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	source_id    TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	relationship TEXT NOT NULL DEFAULT 'requires',
	critical     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);

CREATE TABLE IF NOT EXISTS checklist_items (
	request_key TEXT NOT NULL,
	node_id     TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	completed   INTEGER NOT NULL DEFAULT 0,
	position    INTEGER NOT NULL,
	updated_at  BIGINT NOT NULL,
	PRIMARY KEY (request_key, node_id)
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);

INSERT INTO meta (key, value) VALUES ('revision', 0) ON CONFLICT (key) DO NOTHING;
`

// CreateSchema creates the store tables if they don't exist.
func (d *DB) CreateSchema(ctx context.Context) error {
	if _, err := d.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// DropSchema drops every store table.
func (d *DB) DropSchema(ctx context.Context) error {
	for _, table := range []string{"checklist_items", "edges", "nodes", "meta"} {
		if _, err := d.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	return nil
}
