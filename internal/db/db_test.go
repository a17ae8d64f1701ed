package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return d
}

func testNode(id, nodeType, title string) Node {
	return Node{
		ID: id, NodeType: nodeType, Title: title, Status: "draft",
		Roles: "[]", Activities: "[]", Locations: "[]",
		ISOClauses: "[]", Inputs: "[]", Outputs: "[]",
	}
}

func testEdge(id, source, target string) Edge {
	return Edge{ID: id, SourceID: source, TargetID: target, Relationship: "requires"}
}

func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func seed(t *testing.T, d *DB) {
	t.Helper()
	url := "https://intranet.example/qp"
	pol := testNode("POL-1", "policy", "Quality Policy")
	pol.Code = "QP-01"
	pol.LinkURL = &url
	nodes := []Node{
		pol,
		testNode("PRC-1", "procedure", "Document Control Procedure"),
		testNode("FRM-1", "form", "Change Request Form"),
	}
	edges := []Edge{testEdge("e1", "POL-1", "PRC-1"), testEdge("e2", "PRC-1", "FRM-1")}
	edges[1].Critical = true
	if _, err := d.ImportGraph(context.Background(), nodes, edges, false); err != nil {
		t.Fatalf("ImportGraph: %v", err)
	}
}

func TestOpenDB_FileCreatesSchemaIdempotently(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".pathfinder.db")
	d, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer d.Close()
	for i := 0; i < 2; i++ {
		if err := d.CreateSchema(ctx); err != nil {
			t.Fatalf("CreateSchema #%d: %v", i+1, err)
		}
	}
	rev, err := d.Revision(ctx)
	if err != nil || rev != 0 {
		t.Errorf("Revision = %d, %v; want 0", rev, err)
	}
}

func TestImportGraph_KeepsInputOrder(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	seed(t, d)

	nodes, err := d.AllNodes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"POL-1", "PRC-1", "FRM-1"}, nodeIDs(nodes)); diff != "" {
		t.Errorf("node order mismatch (-want +got):\n%s", diff)
	}
	if nodes[0].LinkURL == nil || *nodes[0].LinkURL != "https://intranet.example/qp" {
		t.Errorf("link url not stored: %v", nodes[0].LinkURL)
	}
	if nodes[1].LinkURL != nil || nodes[1].NextReviewDate != nil {
		t.Errorf("NULL columns should scan to nil")
	}

	edges, err := d.AllEdges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []Edge{
		{ID: "e1", Position: 0, SourceID: "POL-1", TargetID: "PRC-1", Relationship: "requires"},
		{ID: "e2", Position: 1, SourceID: "PRC-1", TargetID: "FRM-1", Relationship: "requires", Critical: true},
	}
	if diff := cmp.Diff(want, edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
}

func TestImportGraph_AppendAndUpsert(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	seed(t, d)

	renamed := testNode("POL-1", "policy", "Quality Policy v2")
	stats, err := d.ImportGraph(ctx, []Node{testNode("TRN-1", "training", "Induction"), renamed}, nil, false)
	if err != nil {
		t.Fatalf("ImportGraph: %v", err)
	}
	if stats.Nodes != 2 || stats.Revision != 2 {
		t.Errorf("stats = %+v, want 2 nodes at revision 2", stats)
	}

	nodes, err := d.AllNodes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Existing rows keep their position; new rows go after the current maximum.
	if diff := cmp.Diff([]string{"POL-1", "PRC-1", "FRM-1", "TRN-1"}, nodeIDs(nodes)); diff != "" {
		t.Errorf("node order mismatch (-want +got):\n%s", diff)
	}
	if nodes[0].Title != "Quality Policy v2" {
		t.Errorf("upsert did not update title: %q", nodes[0].Title)
	}
}

func TestImportGraph_Replace(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	seed(t, d)
	if err := d.ReplaceChecklist(ctx, "req", []ChecklistItem{{NodeID: "POL-1", ItemID: "i1", Title: "Quality Policy"}}); err != nil {
		t.Fatal(err)
	}

	if _, err := d.ImportGraph(ctx, []Node{testNode("ONLY", "form", "Only")}, nil, true); err != nil {
		t.Fatalf("ImportGraph: %v", err)
	}
	nodes, _ := d.AllNodes(ctx)
	if diff := cmp.Diff([]string{"ONLY"}, nodeIDs(nodes)); diff != "" {
		t.Errorf("replace left old nodes (-want +got):\n%s", diff)
	}
	if nodes[0].Position != 0 {
		t.Errorf("position after replace = %d, want 0", nodes[0].Position)
	}
	edges, _ := d.AllEdges(ctx)
	if len(edges) != 0 {
		t.Errorf("replace left %d edges", len(edges))
	}
	items, _ := d.Checklist(ctx, "req")
	if len(items) != 1 {
		t.Errorf("replace should not touch checklists, got %d items", len(items))
	}
}

func TestGetNode_NotFound(t *testing.T) {
	d := openTestDB(t)
	_, err := d.GetNode(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearchByIDPrefix(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	seed(t, d)

	got, err := d.SearchByIDPrefix(ctx, "PR", 10)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"PRC-1"}, nodeIDs(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	// LIKE wildcards in the prefix are literal.
	got, err = d.SearchByIDPrefix(ctx, "%", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("wildcard prefix matched %v", nodeIDs(got))
	}
}

func TestSearchNodes(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	seed(t, d)

	tests := []struct {
		query string
		want  []string
	}{
		{"document control", []string{"PRC-1"}},
		{"qp-01", []string{"POL-1"}},
		{"the FORM", []string{"FRM-1"}},
		{"policy form", []string{}},
		{"the", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := d.SearchNodes(ctx, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, nodeIDs(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteNode(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	seed(t, d)

	if err := d.DeleteNode(ctx, "PRC-1"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	edges, _ := d.AllEdges(ctx)
	if len(edges) != 0 {
		t.Errorf("edges touching the deleted node remain: %+v", edges)
	}
	if rev, _ := d.Revision(ctx); rev != 2 {
		t.Errorf("Revision = %d, want 2", rev)
	}
	if err := d.DeleteNode(ctx, "PRC-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestEdgesForNode(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	seed(t, d)

	edges, err := d.EdgesForNode(ctx, "PRC-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Errorf("got %d edges, want 2", len(edges))
	}
}

func TestChecklist_ReplaceAndToggle(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	empty, err := d.Checklist(ctx, "req")
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("missing checklist should be an empty slice, got %#v", empty)
	}

	items := []ChecklistItem{
		{NodeID: "B", ItemID: "ib", Title: "Second", Position: 1},
		{NodeID: "A", ItemID: "ia", Title: "First", Position: 0, Completed: true},
	}
	if err := d.ReplaceChecklist(ctx, "req", items); err != nil {
		t.Fatalf("ReplaceChecklist: %v", err)
	}
	if err := d.SetItemCompleted(ctx, "req", "B", true); err != nil {
		t.Fatalf("SetItemCompleted: %v", err)
	}
	if err := d.SetItemCompleted(ctx, "req", "A", false); err != nil {
		t.Fatalf("SetItemCompleted: %v", err)
	}

	got, err := d.Checklist(ctx, "req")
	if err != nil {
		t.Fatal(err)
	}
	want := []ChecklistItem{
		{RequestKey: "req", NodeID: "A", ItemID: "ia", Title: "First", Position: 0},
		{RequestKey: "req", NodeID: "B", ItemID: "ib", Title: "Second", Position: 1, Completed: true},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(ChecklistItem{}, "UpdatedAt")); diff != "" {
		t.Errorf("checklist mismatch (-want +got):\n%s", diff)
	}
	for _, it := range got {
		if it.UpdatedAt == 0 {
			t.Errorf("item %s has no updated_at", it.NodeID)
		}
	}

	if err := d.SetItemCompleted(ctx, "req", "Z", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown item err = %v, want ErrNotFound", err)
	}

	// Replacing drops items that are no longer part of the checklist.
	if err := d.ReplaceChecklist(ctx, "req", items[:1]); err != nil {
		t.Fatal(err)
	}
	got, _ = d.Checklist(ctx, "req")
	if len(got) != 1 || got[0].NodeID != "B" || got[0].Completed {
		t.Errorf("after replace got %+v", got)
	}
}

func TestChecklistKeysAndDelete(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	for _, key := range []string{"zeta", "alpha"} {
		if err := d.ReplaceChecklist(ctx, key, []ChecklistItem{{NodeID: "A", ItemID: key + "-a", Title: "A"}}); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := d.ChecklistKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if err := d.DeleteChecklist(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}
	keys, _ = d.ChecklistKeys(ctx)
	if diff := cmp.Diff([]string{"zeta"}, keys); diff != "" {
		t.Errorf("keys after delete mismatch (-want +got):\n%s", diff)
	}
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	if err := d.DropSchema(ctx); err != nil {
		t.Fatalf("DropSchema: %v", err)
	}
	if _, err := d.AllNodes(ctx); err == nil {
		t.Error("expected error querying dropped table")
	}
}
