package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"qms/pathfinder/internal/db"
)

// SnapshotFromDB loads a Snapshot from the database
func SnapshotFromDB(ctx context.Context, d *db.DB) (*Snapshot, error) {
	dbNodes, err := d.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	dbEdges, err := d.AllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	return FromRecords(dbNodes, dbEdges)
}

// FromRecords converts stored rows into a Snapshot.
func FromRecords(dbNodes []db.Node, dbEdges []db.Edge) (*Snapshot, error) {
	nodes := make([]Node, 0, len(dbNodes))
	for _, r := range dbNodes {
		n, err := nodeFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("%w: node %s: %v", ErrMalformedSnapshot, r.ID, err)
		}
		nodes = append(nodes, n)
	}

	edges := make([]Edge, 0, len(dbEdges))
	for _, r := range dbEdges {
		rel, err := ParseRelationship(r.Relationship)
		if err != nil {
			return nil, fmt.Errorf("%w: edge %s: %v", ErrMalformedSnapshot, r.ID, err)
		}
		edges = append(edges, Edge{
			ID:           r.ID,
			Source:       r.SourceID,
			Target:       r.TargetID,
			Relationship: rel,
			Critical:     r.Critical,
		})
	}

	return NewSnapshot(nodes, edges)
}

func nodeFromRecord(r db.Node) (Node, error) {
	t, err := ParseNodeType(r.NodeType)
	if err != nil {
		return Node{}, err
	}
	st, err := ParseStatus(r.Status)
	if err != nil {
		return Node{}, err
	}
	n := Node{
		ID:          r.ID,
		Type:        t,
		Title:       r.Title,
		Description: r.Description,
		Owner:       r.Owner,
		Code:        r.Code,
		Version:     r.Version,
		Status:      st,
	}
	lists := []struct {
		raw string
		dst *[]string
	}{
		{r.Roles, &n.Roles},
		{r.Activities, &n.Activities},
		{r.Locations, &n.Locations},
		{r.ISOClauses, &n.ISOClauses},
		{r.Inputs, &n.Inputs},
		{r.Outputs, &n.Outputs},
	}
	for _, l := range lists {
		if l.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(l.raw), l.dst); err != nil {
			return Node{}, fmt.Errorf("decoding list: %w", err)
		}
	}
	if r.LinkURL != nil || r.LinkPath != nil {
		n.Link = &Link{}
		if r.LinkURL != nil {
			n.Link.URL = *r.LinkURL
		}
		if r.LinkPath != nil {
			n.Link.FilePath = *r.LinkPath
		}
	}
	if r.NextReviewDate != nil && *r.NextReviewDate != "" {
		ts, err := time.Parse(time.RFC3339, *r.NextReviewDate)
		if err != nil {
			return Node{}, fmt.Errorf("parsing next review date: %w", err)
		}
		n.NextReviewDate = &ts
	}
	return n, nil
}

// ToRecords converts graph values into rows for the store. Positions follow
// slice order.
func ToRecords(nodes []Node, edges []Edge) ([]db.Node, []db.Edge, error) {
	dbNodes := make([]db.Node, 0, len(nodes))
	for i, n := range nodes {
		r := db.Node{
			ID:          n.ID,
			Position:    i,
			NodeType:    string(n.Type),
			Title:       n.Title,
			Description: n.Description,
			Owner:       n.Owner,
			Code:        n.Code,
			Version:     n.Version,
			Status:      string(n.Status),
		}
		if r.Status == "" {
			r.Status = string(StatusDraft)
		}
		lists := []struct {
			src []string
			dst *string
		}{
			{n.Roles, &r.Roles},
			{n.Activities, &r.Activities},
			{n.Locations, &r.Locations},
			{n.ISOClauses, &r.ISOClauses},
			{n.Inputs, &r.Inputs},
			{n.Outputs, &r.Outputs},
		}
		for _, l := range lists {
			src := l.src
			if src == nil {
				src = []string{}
			}
			b, err := json.Marshal(src)
			if err != nil {
				return nil, nil, fmt.Errorf("encoding node %s: %w", n.ID, err)
			}
			*l.dst = string(b)
		}
		if n.Link != nil {
			if n.Link.URL != "" {
				u := n.Link.URL
				r.LinkURL = &u
			}
			if n.Link.FilePath != "" {
				p := n.Link.FilePath
				r.LinkPath = &p
			}
		}
		if n.NextReviewDate != nil {
			s := n.NextReviewDate.UTC().Format(time.RFC3339)
			r.NextReviewDate = &s
		}
		dbNodes = append(dbNodes, r)
	}

	dbEdges := make([]db.Edge, 0, len(edges))
	for i, e := range edges {
		rel := e.Relationship
		if rel == "" {
			rel = RelRequires
		}
		dbEdges = append(dbEdges, db.Edge{
			ID:           e.ID,
			Position:     i,
			SourceID:     e.Source,
			TargetID:     e.Target,
			Relationship: string(rel),
			Critical:     e.Critical,
		})
	}
	return dbNodes, dbEdges, nil
}
