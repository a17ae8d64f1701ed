package graph

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"
	"time"
)

// WizardResult is the ordered plan for one request.
type WizardResult struct {
	RequestKey    string          `json:"request_key"`
	Seeds         []string        `json:"seeds"`
	Path          []Node          `json:"path"`
	EstimatedTime time.Duration   `json:"estimated_time"`
	Checklist     []ChecklistItem `json:"checklist"`
	Warnings      []Warning       `json:"warnings"`
}

// PathIDs returns the ids of the path in order.
func (r *WizardResult) PathIDs() []string {
	ids := make([]string, len(r.Path))
	for i, n := range r.Path {
		ids[i] = n.ID
	}
	return ids
}

type resolveOptions struct {
	estimator  Estimator
	requestKey string
	previous   []ChecklistItem
}

// ResolveOption customizes a single Resolve call.
type ResolveOption func(*resolveOptions)

// WithEstimator replaces the default per-type duration table.
func WithEstimator(e Estimator) ResolveOption {
	return func(o *resolveOptions) {
		if e != nil {
			o.estimator = e
		}
	}
}

// WithRequestKey sets the key checklist item ids are derived from.
// Defaults to Criteria.Key().
func WithRequestKey(key string) ResolveOption {
	return func(o *resolveOptions) {
		if key != "" {
			o.requestKey = key
		}
	}
}

// WithPreviousChecklist carries completion flags over for nodes still on the path.
func WithPreviousChecklist(items []ChecklistItem) ResolveOption {
	return func(o *resolveOptions) { o.previous = items }
}

// Resolve selects seeds for c, expands them to their prerequisite closure and
// orders the closure. Cycles and dangling edges are reported as warnings.
func Resolve(snap *Snapshot, c Criteria, opts ...ResolveOption) (*WizardResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}
	o := resolveOptions{
		estimator:  DefaultDurations(),
		requestKey: c.Key(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	seeds := SelectSeeds(snap, c)
	closure := expandClosure(snap, seeds)
	order, cycleWarnings := orderClosure(snap, closure)

	result := &WizardResult{
		RequestKey: o.requestKey,
		Seeds:      seeds,
		Path:       make([]Node, 0, len(order)),
		Warnings:   danglingTouching(snap, closure),
	}
	result.Warnings = append(result.Warnings, cycleWarnings...)

	for _, id := range order {
		n, _ := snap.Node(id)
		result.Path = append(result.Path, n)
		result.EstimatedTime += o.estimator.Estimate(n)
	}
	result.Checklist = GenerateChecklist(o.requestKey, result.Path, o.previous)
	return result, nil
}

// ResolvePath indexes nodes and edges and resolves the given selection in one call.
func ResolvePath(nodes []Node, edges []Edge, roles, activities, locations []string) (*WizardResult, error) {
	snap, err := NewSnapshot(nodes, edges)
	if err != nil {
		return nil, err
	}
	return Resolve(snap, Criteria{Roles: roles, Activities: activities, Locations: locations})
}

// expandClosure follows incoming edges breadth-first from the seeds. The
// visited set bounds the walk on cyclic graphs.
func expandClosure(snap *Snapshot, seeds []string) []string {
	visited := make(map[string]bool, len(seeds))
	queue := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}
	for i := 0; i < len(queue); i++ {
		for _, e := range snap.Incoming(queue[i]) {
			if !visited[e.Source] {
				visited[e.Source] = true
				queue = append(queue, e.Source)
			}
		}
	}
	return queue
}

// orderClosure runs Kahn's algorithm over the closure. When no node is ready
// the remaining node with the lowest id is emitted as if it were.
func orderClosure(snap *Snapshot, closure []string) ([]string, []Warning) {
	member := make(map[string]bool, len(closure))
	for _, id := range closure {
		member[id] = true
	}

	var warnings []Warning
	indegree := make(map[string]int, len(closure))
	critical := make(map[string]bool)
	for _, id := range closure {
		for _, e := range snap.Incoming(id) {
			if !member[e.Source] {
				continue
			}
			if e.Source == id {
				warnings = append(warnings, Warning{
					Kind:    WarnSelfLoop,
					NodeID:  id,
					EdgeID:  e.ID,
					Message: fmt.Sprintf("edge %s -> %s is a self-loop and was ignored", id, id),
				})
				continue
			}
			indegree[id]++
			if e.Critical {
				critical[id] = true
			}
		}
	}

	entry := func(id string) readyEntry {
		n, _ := snap.Node(id)
		return readyEntry{id: id, critical: critical[id], rank: n.Type.Rank()}
	}

	ready := &readyHeap{}
	for _, id := range closure {
		if indegree[id] == 0 {
			*ready = append(*ready, entry(id))
		}
	}
	heap.Init(ready)

	byID := make([]string, len(closure))
	copy(byID, closure)
	sort.Strings(byID)
	lowest := 0

	emitted := make(map[string]bool, len(closure))
	order := make([]string, 0, len(closure))
	for len(order) < len(closure) {
		var id string
		if ready.Len() > 0 {
			id = heap.Pop(ready).(readyEntry).id
		} else {
			for emitted[byID[lowest]] {
				lowest++
			}
			id = byID[lowest]
			warnings = append(warnings, cycleWarning(snap, id, member, emitted))
		}
		if emitted[id] {
			continue
		}
		emitted[id] = true
		order = append(order, id)

		for _, e := range snap.Outgoing(id) {
			t := e.Target
			if !member[t] || t == id || emitted[t] {
				continue
			}
			indegree[t]--
			if indegree[t] == 0 {
				heap.Push(ready, entry(t))
			}
		}
	}
	return order, warnings
}

func cycleWarning(snap *Snapshot, id string, member, emitted map[string]bool) Warning {
	seen := make(map[string]bool)
	var blockers []string
	for _, e := range snap.Incoming(id) {
		if member[e.Source] && !emitted[e.Source] && e.Source != id && !seen[e.Source] {
			seen[e.Source] = true
			blockers = append(blockers, e.Source)
		}
	}
	sort.Strings(blockers)
	return Warning{
		Kind:   WarnCycleBroken,
		NodeID: id,
		Message: fmt.Sprintf("cycle detected: %s placed before its unresolved prerequisites [%s]",
			id, strings.Join(blockers, ", ")),
	}
}

// danglingTouching keeps the snapshot's dangling-edge warnings whose known
// endpoint lies in the closure.
func danglingTouching(snap *Snapshot, closure []string) []Warning {
	if len(closure) == 0 {
		return nil
	}
	member := make(map[string]bool, len(closure))
	for _, id := range closure {
		member[id] = true
	}
	var out []Warning
	for _, e := range snap.Edges() {
		srcOK, dstOK := snap.Has(e.Source), snap.Has(e.Target)
		if srcOK && dstOK {
			continue
		}
		if member[e.Source] || member[e.Target] {
			out = append(out, danglingWarning(e, srcOK, dstOK))
		}
	}
	return out
}
