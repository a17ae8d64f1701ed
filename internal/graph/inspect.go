package graph

import (
	"fmt"
	"sort"
)

// CompletionSet holds the node ids the caller has already completed.
type CompletionSet map[string]bool

// StepRef is one next step after the inspected node.
type StepRef struct {
	Node         Node         `json:"node"`
	Relationship Relationship `json:"relationship"`
	Critical     bool         `json:"critical"`
	Completed    bool         `json:"completed"`
}

// NodeRef is one direct prerequisite of the inspected node.
type NodeRef struct {
	Node         Node         `json:"node"`
	Relationship Relationship `json:"relationship"`
}

// StepReport answers "what must happen next" and "what led here" for one node.
type StepReport struct {
	Node          Node      `json:"node"`
	Next          []StepRef `json:"next"`
	Prerequisites []NodeRef `json:"prerequisites"`
}

// Inspect looks one hop in each direction from nodeID. Next steps use the
// resolver's tie-break; prerequisites keep edge input order.
func Inspect(snap *Snapshot, nodeID string, completed CompletionSet) (*StepReport, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}
	n, ok := snap.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	report := &StepReport{Node: n}

	pos := make(map[string]int)
	for _, e := range snap.Outgoing(nodeID) {
		if i, seen := pos[e.Target]; seen {
			if e.Critical {
				report.Next[i].Critical = true
			}
			continue
		}
		target, _ := snap.Node(e.Target)
		pos[e.Target] = len(report.Next)
		report.Next = append(report.Next, StepRef{
			Node:         target,
			Relationship: e.Relationship,
			Critical:     e.Critical,
			Completed:    completed[e.Target],
		})
	}
	sort.SliceStable(report.Next, func(i, j int) bool {
		a, b := report.Next[i], report.Next[j]
		return readyEntry{id: a.Node.ID, critical: a.Critical, rank: a.Node.Type.Rank()}.
			before(readyEntry{id: b.Node.ID, critical: b.Critical, rank: b.Node.Type.Rank()})
	})

	seen := make(map[string]bool)
	for _, e := range snap.Incoming(nodeID) {
		if seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		source, _ := snap.Node(e.Source)
		report.Prerequisites = append(report.Prerequisites, NodeRef{
			Node:         source,
			Relationship: e.Relationship,
		})
	}
	return report, nil
}

// InspectNodes indexes nodes and edges and inspects nodeID in one call.
func InspectNodes(nodes []Node, edges []Edge, nodeID string) (*StepReport, error) {
	snap, err := NewSnapshot(nodes, edges)
	if err != nil {
		return nil, err
	}
	return Inspect(snap, nodeID, nil)
}

// NextIDs returns the ids of the next steps in order.
func (r *StepReport) NextIDs() []string {
	ids := make([]string, len(r.Next))
	for i, s := range r.Next {
		ids[i] = s.Node.ID
	}
	return ids
}

// PrerequisiteIDs returns the ids of the prerequisites in order.
func (r *StepReport) PrerequisiteIDs() []string {
	ids := make([]string, len(r.Prerequisites))
	for i, p := range r.Prerequisites {
		ids[i] = p.Node.ID
	}
	return ids
}
