package graph

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var refNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysFrom(now time.Time, d int) *time.Time {
	t := now.Add(time.Duration(d) * 24 * time.Hour)
	return &t
}

// chain links ids in order with requires edges.
func chain(ids ...string) []Edge {
	var edges []Edge
	for i := 0; i+1 < len(ids); i++ {
		edges = append(edges, requires(ids[i], ids[i+1]))
	}
	return edges
}

// --- Union-find ---

func TestUnionFind_Components(t *testing.T) {
	uf := NewUnionFind([]string{"a", "b", "c", "d", "e"})
	if !uf.Union("a", "c") {
		t.Error("first union should merge")
	}
	if uf.Union("c", "a") {
		t.Error("repeated union should report no merge")
	}
	uf.Union("d", "e")
	if uf.Union("a", "missing") {
		t.Error("union with unknown id should be a no-op")
	}
	if uf.Find("a") != uf.Find("c") {
		t.Error("a and c should share a root")
	}
	if uf.Find("missing") != "missing" {
		t.Error("unknown ids are their own representative")
	}

	want := [][]string{{"a", "c"}, {"b"}, {"d", "e"}}
	if diff := cmp.Diff(want, uf.Components()); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

// --- Topology ---

func TestTopology_EmptyGraph(t *testing.T) {
	report := ComputeTopology(mustSnapshot(t, nil, nil), 8, 25)
	if report.TotalNodes != 0 || report.NumComponents != 0 {
		t.Errorf("unexpected report for empty graph: %+v", report)
	}
}

func TestTopology_TwoComponentsAndOrphan(t *testing.T) {
	nodes := []Node{
		node("P", TypePolicy),
		node("Q", TypeProcedure),
		node("F", TypeForm),
		node("T", TypeTraining),
		node("R", TypeRecord),
		node("O", TypeRecord),
	}
	edges := append(chain("P", "Q", "F"), critical("T", "R"))
	report := ComputeTopology(mustSnapshot(t, nodes, edges), 8, 25)

	if report.TotalEdges != 3 || report.CriticalEdges != 1 {
		t.Errorf("edges = %d (critical %d), want 3 (1)", report.TotalEdges, report.CriticalEdges)
	}
	if report.NumComponents != 3 {
		t.Errorf("NumComponents = %d, want 3", report.NumComponents)
	}
	if report.LargestComponent != 3 || report.SmallestComponent != 1 {
		t.Errorf("component sizes = %d/%d, want 3/1", report.LargestComponent, report.SmallestComponent)
	}
	if diff := cmp.Diff([]string{"O"}, report.OrphanIDs); diff != "" {
		t.Errorf("orphans mismatch (-want +got):\n%s", diff)
	}
	wantTypes := []TypeCount{
		{TypePolicy, 1}, {TypeProcedure, 1}, {TypeForm, 1}, {TypeRecord, 2}, {TypeTraining, 1},
	}
	if diff := cmp.Diff(wantTypes, report.ByType); diff != "" {
		t.Errorf("by type mismatch (-want +got):\n%s", diff)
	}
}

func TestTopology_Hubs(t *testing.T) {
	nodes := []Node{node("hub", TypePolicy)}
	var edges []Edge
	for _, id := range []string{"a", "b", "c", "d"} {
		nodes = append(nodes, node(id, TypeForm))
		edges = append(edges, requires("hub", id))
	}
	report := ComputeTopology(mustSnapshot(t, nodes, edges), 3, 25)

	if len(report.Hubs) != 1 {
		t.Fatalf("hubs = %+v, want only hub", report.Hubs)
	}
	h := report.Hubs[0]
	if h.ID != "hub" || h.Degree != 4 || h.OutDegree != 4 || h.InDegree != 0 || h.Type != TypePolicy {
		t.Errorf("unexpected hub %+v", h)
	}
}

// --- Reviews ---

func TestReviews_OverdueDueSoonArchived(t *testing.T) {
	overdue := node("OV", TypeProcedure)
	overdue.Owner = "quality"
	overdue.Status = StatusRed
	overdue.NextReviewDate = daysFrom(refNow, -10)

	soon := node("SOON", TypeForm)
	soon.Status = StatusAmber
	soon.NextReviewDate = daysFrom(refNow, 5)

	later := node("LATER", TypeForm)
	later.Status = StatusGreen
	later.NextReviewDate = daysFrom(refNow, 90)

	old := node("OLD", TypePolicy)
	old.Status = StatusArchived
	old.NextReviewDate = daysFrom(refNow, -400)

	dead := node("DEAD", TypeRecord)
	dead.Status = StatusArchived

	draft := node("DRAFT", TypeRecord)

	nodes := []Node{overdue, soon, later, old, dead, draft}
	edges := []Edge{
		requires("OV", "SOON"),
		requires("OV", "LATER"),
		requires("OLD", "OV"),
		requires("OLD", "DEAD"),
	}
	report := ComputeReviews(mustSnapshot(t, nodes, edges), refNow, 30)

	wantOverdue := []OverdueReview{{ID: "OV", Title: "Node OV", Owner: "quality", DaysOverdue: 10, DependentCount: 2}}
	if diff := cmp.Diff(wantOverdue, report.Overdue); diff != "" {
		t.Errorf("overdue mismatch (-want +got):\n%s", diff)
	}
	if report.DueSoonCount != 1 {
		t.Errorf("DueSoonCount = %d, want 1", report.DueSoonCount)
	}
	wantArchived := []ArchivedPrerequisite{{ID: "OLD", Title: "Node OLD", DependentIDs: []string{"OV"}}}
	if diff := cmp.Diff(wantArchived, report.ArchivedPrerequisites); diff != "" {
		t.Errorf("archived mismatch (-want +got):\n%s", diff)
	}
	wantCounts := map[Status]int{StatusRed: 1, StatusAmber: 1, StatusGreen: 1, StatusArchived: 2, StatusDraft: 1}
	if diff := cmp.Diff(wantCounts, report.StatusCounts); diff != "" {
		t.Errorf("status counts mismatch (-want +got):\n%s", diff)
	}
}

// --- Integrity and health ---

func TestIntegrity_ReportsAllProblems(t *testing.T) {
	nodes := []Node{node("A", TypeForm), node("B", TypeForm), node("C", TypeForm)}
	edges := []Edge{
		requires("A", "B"),
		requires("B", "A"),
		requires("C", "C"),
		requires("C", "NOWHERE"),
	}
	report := ComputeIntegrity(mustSnapshot(t, nodes, edges))

	if len(report.DanglingEdges) != 1 || report.DanglingEdges[0].EdgeID != "C->NOWHERE" {
		t.Errorf("dangling = %+v", report.DanglingEdges)
	}
	if len(report.CycleBreaks) != 1 || report.CycleBreaks[0].NodeID != "A" {
		t.Errorf("cycle breaks = %+v", report.CycleBreaks)
	}
	if len(report.SelfLoops) != 1 || report.SelfLoops[0].NodeID != "C" {
		t.Errorf("self loops = %+v", report.SelfLoops)
	}
}

func TestHealthScore_Perfect(t *testing.T) {
	nodes, edges := onboardingChain()
	report := Analyze(mustSnapshot(t, nodes, edges), &AnalyzerConfig{HubThreshold: 8, TopN: 25, DueSoonDays: 30, Now: refNow})
	if math.Abs(report.HealthScore-1.0) > 1e-9 {
		t.Errorf("HealthScore = %f, want 1.0 (breakdown %+v)", report.HealthScore, report.HealthBreakdown)
	}
}

func TestHealthScore_Range(t *testing.T) {
	nodes := []Node{node("A", TypeForm), node("B", TypeForm), node("lonely", TypeRecord)}
	nodes[0].NextReviewDate = daysFrom(refNow, -3)
	edges := []Edge{requires("A", "B"), requires("B", "A"), requires("A", "gone")}
	report := Analyze(mustSnapshot(t, nodes, edges), &AnalyzerConfig{HubThreshold: 8, TopN: 25, DueSoonDays: 30, Now: refNow})

	if report.HealthScore < 0 || report.HealthScore >= 1 {
		t.Errorf("HealthScore = %f, want in [0, 1)", report.HealthScore)
	}
	for name, v := range map[string]float64{
		"connectivity": report.HealthBreakdown.Connectivity,
		"reviews":      report.HealthBreakdown.Reviews,
		"integrity":    report.HealthBreakdown.Integrity,
		"archival":     report.HealthBreakdown.Archival,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s sub-score %f out of range", name, v)
		}
	}
	if report.HealthBreakdown.Integrity != 0 {
		t.Errorf("two integrity problems in three nodes should floor the integrity score, got %f", report.HealthBreakdown.Integrity)
	}
}

func TestAnalyze_NilConfigUsesDefaults(t *testing.T) {
	nodes, edges := onboardingChain()
	report := Analyze(mustSnapshot(t, nodes, edges), nil)
	if report.Topology == nil || report.Reviews == nil || report.Integrity == nil {
		t.Fatal("report sections missing")
	}
}
