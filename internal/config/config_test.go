package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"qms/pathfinder/internal/graph"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PATHFINDER_CONFIG", "")
	t.Setenv("PATHFINDER_DB", "")
	t.Setenv("PATHFINDER_LOG_LEVEL", "")
	t.Setenv("PATHFINDER_LOG_FORMAT", "")
	t.Setenv("PATHFINDER_PLAN_CONCURRENCY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg)
	}
	if cfg.PlanConcurrency != 4 {
		t.Errorf("PlanConcurrency = %d, want 4", cfg.PlanConcurrency)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "pathfinder.yaml", `
db: from-file.db
log_level: debug
durations:
  training: 2h
default_duration: 1m
plan_concurrency: 2
`)
	t.Setenv("PATHFINDER_CONFIG", "")
	t.Setenv("PATHFINDER_DB", "from-env.db")
	t.Setenv("PATHFINDER_LOG_LEVEL", "")
	t.Setenv("PATHFINDER_LOG_FORMAT", "json")
	t.Setenv("PATHFINDER_PLAN_CONCURRENCY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath != "from-env.db" {
		t.Errorf("DBPath = %q, env should win over file", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from file", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json from env", cfg.LogFormat)
	}
	if cfg.PlanConcurrency != 2 {
		t.Errorf("PlanConcurrency = %d, want 2", cfg.PlanConcurrency)
	}

	table, err := cfg.Estimator()
	if err != nil {
		t.Fatalf("Estimator: %v", err)
	}
	if got := table.Estimate(graph.Node{Type: graph.TypeTraining}); got != 2*time.Hour {
		t.Errorf("training estimate = %v, want 2h", got)
	}
	if got := table.Estimate(graph.Node{Type: graph.TypeForm}); got != 10*time.Minute {
		t.Errorf("form estimate = %v, want default table 10m", got)
	}
	if table.Default != time.Minute {
		t.Errorf("Default = %v, want 1m", table.Default)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_BadConcurrencyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PATHFINDER_CONFIG", "")
	t.Setenv("PATHFINDER_PLAN_CONCURRENCY", "many")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "PATHFINDER_PLAN_CONCURRENCY") {
		t.Fatalf("expected concurrency parse error, got %v", err)
	}
}

func TestEstimator_UnknownType(t *testing.T) {
	cfg := Default()
	cfg.Durations = map[string]string{"memo": "5m"}
	if _, err := cfg.Estimator(); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}
