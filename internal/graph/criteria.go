package graph

import (
	"encoding/json"
	"sort"
	"strings"
)

// Criteria is the caller's selection. An empty dimension places no restriction.
type Criteria struct {
	Roles      []string `json:"roles"`
	Activities []string `json:"activities"`
	Locations  []string `json:"locations"`
}

// Normalize trims every value, drops blanks and duplicates, and sorts each
// dimension. Matching and Key both work on the normalized form, so criteria
// that select the same nodes share a key.
func (c Criteria) Normalize() Criteria {
	return Criteria{
		Roles:      canonical(c.Roles),
		Activities: canonical(c.Activities),
		Locations:  canonical(c.Locations),
	}
}

// Key returns a canonical string for the criteria. Values are JSON-encoded,
// so separators inside a value cannot collide with another selection.
func (c Criteria) Key() string {
	n := c.Normalize()
	b, _ := json.Marshal([3][]string{n.Roles, n.Activities, n.Locations})
	return string(b)
}

func canonical(values []string) []string {
	set := make(map[string]bool, len(values))
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || set[v] {
			continue
		}
		set[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MatchesCriteria decides whether a node is a seed for c.
//
// Per dimension the node passes when the caller selected nothing, when the
// node's own set is empty (applies to everyone), or when the two intersect.
// The three dimensions are ANDed.
func MatchesCriteria(n Node, c Criteria) bool {
	return matches(n, c.Normalize())
}

func matches(n Node, c Criteria) bool {
	return dimensionMatches(n.Roles, c.Roles) &&
		dimensionMatches(n.Activities, c.Activities) &&
		dimensionMatches(n.Locations, c.Locations)
}

func dimensionMatches(nodeSet, selected []string) bool {
	if len(selected) == 0 || len(canonical(nodeSet)) == 0 {
		return true
	}
	for _, want := range selected {
		for _, have := range nodeSet {
			if want == strings.TrimSpace(have) {
				return true
			}
		}
	}
	return false
}

// SelectSeeds returns the ids of nodes matching c, in snapshot input order.
func SelectSeeds(snap *Snapshot, c Criteria) []string {
	c = c.Normalize()
	seen := make(map[string]bool)
	var seeds []string
	for _, n := range snap.Nodes() {
		if seen[n.ID] || !matches(n, c) {
			continue
		}
		seen[n.ID] = true
		seeds = append(seeds, n.ID)
	}
	return seeds
}
