package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedSnapshot is returned when the node or edge arrays cannot be indexed at all.
var ErrMalformedSnapshot = errors.New("malformed graph snapshot")

// ErrNodeNotFound is returned when a queried node id is not in the snapshot.
var ErrNodeNotFound = errors.New("node not found")

// Snapshot is an immutable, indexed view over one set of nodes and edges.
// Dangling edges are kept out of the adjacency index and reported via Warnings.
type Snapshot struct {
	nodes    []Node
	edges    []Edge
	index    map[string]int
	out      map[string][]Edge // source -> edges, input order
	in       map[string][]Edge // target -> edges, input order
	warnings []Warning
}

// NewSnapshot validates and indexes nodes and edges in O(V+E).
// The slices are copied; later changes by the caller are not observed.
func NewSnapshot(nodes []Node, edges []Edge) (*Snapshot, error) {
	s := &Snapshot{
		nodes: make([]Node, len(nodes)),
		edges: make([]Edge, len(edges)),
		index: make(map[string]int, len(nodes)),
		out:   make(map[string][]Edge, len(nodes)),
		in:    make(map[string][]Edge, len(nodes)),
	}
	copy(s.nodes, nodes)
	copy(s.edges, edges)

	for i, n := range s.nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node at position %d has no id", ErrMalformedSnapshot, i)
		}
		if _, dup := s.index[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %q", ErrMalformedSnapshot, n.ID)
		}
		if !n.Type.Valid() {
			return nil, fmt.Errorf("%w: node %q has unknown type %q", ErrMalformedSnapshot, n.ID, n.Type)
		}
		if n.Status != "" && !n.Status.Valid() {
			return nil, fmt.Errorf("%w: node %q has unknown status %q", ErrMalformedSnapshot, n.ID, n.Status)
		}
		s.index[n.ID] = i
	}

	for i, e := range s.edges {
		if e.Source == "" || e.Target == "" {
			return nil, fmt.Errorf("%w: edge %q at position %d has an empty endpoint", ErrMalformedSnapshot, e.ID, i)
		}
		if e.Relationship != "" && !e.Relationship.Valid() {
			return nil, fmt.Errorf("%w: edge %q has unknown relationship %q", ErrMalformedSnapshot, e.ID, e.Relationship)
		}
		_, srcOK := s.index[e.Source]
		_, dstOK := s.index[e.Target]
		if !srcOK || !dstOK {
			s.warnings = append(s.warnings, danglingWarning(e, srcOK, dstOK))
			continue
		}
		s.out[e.Source] = append(s.out[e.Source], e)
		s.in[e.Target] = append(s.in[e.Target], e)
	}

	return s, nil
}

func danglingWarning(e Edge, srcOK, dstOK bool) Warning {
	var missing string
	switch {
	case !srcOK && !dstOK:
		missing = fmt.Sprintf("source %q and target %q", e.Source, e.Target)
	case !srcOK:
		missing = fmt.Sprintf("source %q", e.Source)
	default:
		missing = fmt.Sprintf("target %q", e.Target)
	}
	return Warning{
		Kind:    WarnDanglingEdge,
		EdgeID:  e.ID,
		Message: fmt.Sprintf("edge %s -> %s skipped: %s not in snapshot", e.Source, e.Target, missing),
	}
}

// Node looks up a node by id.
func (s *Snapshot) Node(id string) (Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

// Has reports whether id is a node of the snapshot.
func (s *Snapshot) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Outgoing returns the indexed edges whose source is id, in input order.
func (s *Snapshot) Outgoing(id string) []Edge { return s.out[id] }

// Incoming returns the indexed edges whose target is id, in input order.
func (s *Snapshot) Incoming(id string) []Edge { return s.in[id] }

// Nodes returns the nodes in input order. The slice must not be modified.
func (s *Snapshot) Nodes() []Node { return s.nodes }

// Edges returns every edge handed in, dangling ones included.
func (s *Snapshot) Edges() []Edge { return s.edges }

// Len returns the number of nodes.
func (s *Snapshot) Len() int { return len(s.nodes) }

// Warnings returns the dangling-edge warnings found while indexing.
func (s *Snapshot) Warnings() []Warning {
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Degree returns the number of indexed edges touching id, in either direction.
func (s *Snapshot) Degree(id string) int {
	return len(s.out[id]) + len(s.in[id])
}

// NodeIDs returns a sorted list of all node IDs (for deterministic output)
func (s *Snapshot) NodeIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for _, n := range s.nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	return ids
}
