package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"qms/pathfinder/internal/config"
	"qms/pathfinder/internal/db"
	"qms/pathfinder/internal/graph"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	oldCfg, oldPath := cfg, dbPath
	t.Cleanup(func() { cfg, dbPath = oldCfg, oldPath })
	cfg = config.Default()
	dbPath = ""
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverDB_WalksUp(t *testing.T) {
	resetGlobals(t)
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(root, dbFileName))
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	got, err := DiscoverDB()
	if err != nil {
		t.Fatalf("DiscoverDB: %v", err)
	}
	if filepath.Base(got) != dbFileName || !strings.HasPrefix(got, root) {
		t.Errorf("DiscoverDB = %q, want %s under %s", got, dbFileName, root)
	}
}

func TestDiscoverDB_Priority(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	t.Chdir(dir)
	fromFlag := filepath.Join(dir, "flag.db")
	touch(t, fromFlag)
	dbPath = fromFlag

	got, err := DiscoverDB()
	if err != nil || got != fromFlag {
		t.Fatalf("DiscoverDB = %q, %v; want flag path", got, err)
	}

	cfg.DBPath = "postgres://qms@localhost/pathfinder"
	got, err = DiscoverDB()
	if err != nil || got != cfg.DBPath {
		t.Errorf("DiscoverDB = %q, %v; want configured DSN", got, err)
	}
}

func TestDiscoverDB_MissingFlagPath(t *testing.T) {
	resetGlobals(t)
	t.Chdir(t.TempDir())
	dbPath = filepath.Join(t.TempDir(), "nope.db")
	if _, err := DiscoverDB(); err == nil {
		t.Error("expected error for missing --db path")
	}
}

func TestDiscoverDB_XDGFallback(t *testing.T) {
	resetGlobals(t)
	t.Chdir(t.TempDir())
	xdg := filepath.Join(os.Getenv("XDG_DATA_HOME"), "pathfinder")
	if err := os.MkdirAll(xdg, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(xdg, "pathfinder.db"))

	got, err := DiscoverDB()
	if err != nil {
		t.Fatalf("DiscoverDB: %v", err)
	}
	if got != filepath.Join(xdg, "pathfinder.db") {
		t.Errorf("DiscoverDB = %q", got)
	}
}

func TestResolveNode(t *testing.T) {
	ctx := context.Background()
	d, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if err := d.CreateSchema(ctx); err != nil {
		t.Fatal(err)
	}
	nodes := []graph.Node{
		{ID: "SOP-100", Type: graph.TypeSOP, Title: "Line Clearance", Code: "LC-1"},
		{ID: "SOP-101", Type: graph.TypeSOP, Title: "Equipment Cleaning"},
		{ID: "FRM-200", Type: graph.TypeForm, Title: "Cleaning Log"},
	}
	rn, re, err := graph.ToRecords(nodes, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.ImportGraph(ctx, rn, re, false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{"SOP-101", "SOP-101", ""},
		{"FRM", "FRM-200", ""},
		{"line clearance", "SOP-100", ""},
		{"lc-1", "SOP-100", ""},
		{"SOP", "", "ambiguous"},
		{"cleaning", "", "ambiguous"},
		{"calibration", "", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ResolveNode(ctx, d, tt.ref)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveNode: %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("ResolveNode(%q) = %s, want %s", tt.ref, got.ID, tt.want)
			}
		})
	}
}

func TestPrintPlan(t *testing.T) {
	nodes := []graph.Node{
		{ID: "P", Type: graph.TypePolicy, Title: "Quality Policy", Code: "QP-1"},
		{ID: "Q", Type: graph.TypeProcedure, Title: "Document Control"},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "P", Target: "Q", Relationship: graph.RelRequires},
		{ID: "e2", Source: "Q", Target: "P", Relationship: graph.RelRequires},
	}
	r, err := graph.ResolvePath(nodes, edges, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Checklist[0].Completed = true

	var buf bytes.Buffer
	printPlan(&buf, r)
	out := buf.String()
	for _, want := range []string{"[x]", "QP-1 Quality Policy", "Document Control", "2 steps", "35m", "cycle detected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlan_Empty(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, &graph.WizardResult{RequestKey: "k"})
	if !strings.Contains(buf.String(), "No artifacts match") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m"},
		{45 * time.Minute, "45m"},
		{time.Hour, "1h"},
		{150 * time.Minute, "2h 30m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncTitle_RuneBoundary(t *testing.T) {
	got := truncTitle("Prüfanweisung", 3)
	if got != "Pr..." {
		t.Errorf("truncTitle = %q, want Pr...", got)
	}
	if got := truncTitle("short", 10); got != "short" {
		t.Errorf("truncTitle = %q", got)
	}
}
