package graph

import (
	"math"
	"time"
)

// HealthBreakdown shows the sub-scores of the health formula
type HealthBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Reviews      float64 `json:"reviews"`
	Integrity    float64 `json:"integrity"`
	Archival     float64 `json:"archival"`
}

// IntegrityReport lists structural problems the resolver works around
type IntegrityReport struct {
	DanglingEdges []Warning `json:"dangling_edges"`
	CycleBreaks   []Warning `json:"cycle_breaks"`
	SelfLoops     []Warning `json:"self_loops"`
}

// AnalysisReport is the full analysis result
type AnalysisReport struct {
	HealthScore     float64          `json:"health_score"`
	HealthBreakdown HealthBreakdown  `json:"health_breakdown"`
	Topology        *TopologyReport  `json:"topology"`
	Reviews         *ReviewReport    `json:"reviews"`
	Integrity       *IntegrityReport `json:"integrity"`
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	HubThreshold int
	TopN         int
	DueSoonDays  int
	Now          time.Time
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		HubThreshold: 8,
		TopN:         25,
		DueSoonDays:  30,
	}
}

// ComputeIntegrity orders the whole graph once to surface every cycle the
// resolver would have to break, plus all dangling edges.
func ComputeIntegrity(snap *Snapshot) *IntegrityReport {
	report := &IntegrityReport{DanglingEdges: snap.Warnings()}
	all := make([]string, 0, snap.Len())
	for _, n := range snap.Nodes() {
		all = append(all, n.ID)
	}
	_, warnings := orderClosure(snap, all)
	for _, w := range warnings {
		switch w.Kind {
		case WarnCycleBroken:
			report.CycleBreaks = append(report.CycleBreaks, w)
		case WarnSelfLoop:
			report.SelfLoops = append(report.SelfLoops, w)
		}
	}
	return report
}

// Analyze runs all analyses and computes a composite health score
func Analyze(snap *Snapshot, config *AnalyzerConfig) *AnalysisReport {
	if config == nil {
		config = DefaultConfig()
	}
	now := config.Now
	if now.IsZero() {
		now = time.Now()
	}

	topology := ComputeTopology(snap, config.HubThreshold, config.TopN)
	reviews := ComputeReviews(snap, now, config.DueSoonDays)
	integrity := ComputeIntegrity(snap)

	total := float64(topology.TotalNodes)

	var connectivity, reviewScore, integrityScore, archival float64
	if total > 0 {
		connectivity = clamp(1.0-math.Min(float64(topology.OrphanCount)/total, 0.2)*5.0, 0, 1)
		reviewScore = clamp(1.0-math.Min(float64(reviews.OverdueCount)/total, 0.1)*10.0, 0, 1)
		problems := len(integrity.DanglingEdges) + len(integrity.CycleBreaks) + len(integrity.SelfLoops)
		integrityScore = clamp(1.0-math.Min(float64(problems)/total, 0.1)*10.0, 0, 1)
		archival = clamp(1.0-math.Min(float64(len(reviews.ArchivedPrerequisites))/total, 0.05)*20.0, 0, 1)
	}

	healthScore := 0.25*connectivity + 0.30*reviewScore + 0.30*integrityScore + 0.15*archival

	return &AnalysisReport{
		HealthScore: healthScore,
		HealthBreakdown: HealthBreakdown{
			Connectivity: connectivity,
			Reviews:      reviewScore,
			Integrity:    integrityScore,
			Archival:     archival,
		},
		Topology:  topology,
		Reviews:   reviews,
		Integrity: integrity,
	}
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
