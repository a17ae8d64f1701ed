package graph

import "sort"

// HubNode is an artifact many others depend on or lead to
type HubNode struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      NodeType `json:"type"`
	Degree    int      `json:"degree"`
	InDegree  int      `json:"in_degree"`
	OutDegree int      `json:"out_degree"`
}

// TypeCount is the number of artifacts of one type
type TypeCount struct {
	Type  NodeType `json:"type"`
	Count int      `json:"count"`
}

// TopologyReport describes how the compliance graph hangs together
type TopologyReport struct {
	TotalNodes        int         `json:"total_nodes"`
	TotalEdges        int         `json:"total_edges"`
	CriticalEdges     int         `json:"critical_edges"`
	NumComponents     int         `json:"num_components"`
	LargestComponent  int         `json:"largest_component"`
	SmallestComponent int         `json:"smallest_component"`
	OrphanCount       int         `json:"orphan_count"`
	OrphanIDs         []string    `json:"orphan_ids"`
	ByType            []TypeCount `json:"by_type"`
	Hubs              []HubNode   `json:"hubs"`
}

// ComputeTopology counts components, orphan artifacts, per-type totals and hubs
func ComputeTopology(snap *Snapshot, hubThreshold, topN int) *TopologyReport {
	report := &TopologyReport{
		TotalNodes: snap.Len(),
		ByType:     countByType(snap),
	}
	if snap.Len() == 0 {
		return report
	}

	nodeIDs := snap.NodeIDs()
	uf := NewUnionFind(nodeIDs)
	for _, id := range nodeIDs {
		for _, e := range snap.Outgoing(id) {
			report.TotalEdges++
			if e.Critical {
				report.CriticalEdges++
			}
			uf.Union(e.Source, e.Target)
		}
	}

	components := uf.Components()
	report.NumComponents = len(components)
	report.SmallestComponent = snap.Len()
	for _, c := range components {
		if len(c) > report.LargestComponent {
			report.LargestComponent = len(c)
		}
		if len(c) < report.SmallestComponent {
			report.SmallestComponent = len(c)
		}
	}

	var orphans []string
	for _, id := range nodeIDs {
		if snap.Degree(id) == 0 {
			orphans = append(orphans, id)
		}
	}
	report.OrphanCount = len(orphans)
	if len(orphans) > topN {
		orphans = orphans[:topN]
	}
	report.OrphanIDs = orphans

	var hubs []HubNode
	for _, id := range nodeIDs {
		degree := snap.Degree(id)
		if degree <= hubThreshold {
			continue
		}
		n, _ := snap.Node(id)
		hubs = append(hubs, HubNode{
			ID:        id,
			Title:     n.Title,
			Type:      n.Type,
			Degree:    degree,
			InDegree:  len(snap.Incoming(id)),
			OutDegree: len(snap.Outgoing(id)),
		})
	}
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].Degree > hubs[j].Degree })
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}
	report.Hubs = hubs

	return report
}

func countByType(snap *Snapshot) []TypeCount {
	counts := make(map[NodeType]int)
	for _, n := range snap.Nodes() {
		counts[n.Type]++
	}
	out := make([]TypeCount, 0, len(typeHierarchy))
	for _, t := range typeHierarchy {
		if counts[t] > 0 {
			out = append(out, TypeCount{Type: t, Count: counts[t]})
		}
	}
	return out
}
