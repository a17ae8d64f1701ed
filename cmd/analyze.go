package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"qms/pathfinder/internal/graph"
)

var (
	analyzeJSON         bool
	analyzeTopN         int
	analyzeDueSoonDays  int
	analyzeHubThreshold int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze graph health: topology, reviews, integrity, health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		nav, d, err := OpenNavigator(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		report, err := nav.Analyze(ctx, &graph.AnalyzerConfig{
			HubThreshold: analyzeHubThreshold,
			TopN:         analyzeTopN,
			DueSoonDays:  analyzeDueSoonDays,
		})
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printAnalysis(os.Stdout, report)
		return nil
	},
}

func init() {
	defaults := graph.DefaultConfig()
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", defaults.TopN, "Number of top items to show per section")
	analyzeCmd.Flags().IntVar(&analyzeDueSoonDays, "due-soon-days", defaults.DueSoonDays, "Days ahead to count a review as due soon")
	analyzeCmd.Flags().IntVar(&analyzeHubThreshold, "hub-threshold", defaults.HubThreshold, "Minimum degree to consider a node a hub")
	rootCmd.AddCommand(analyzeCmd)
}

func printAnalysis(w io.Writer, report *graph.AnalysisReport) {
	// Health bar
	barLen := int(report.HealthScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Fprintf(w, "\n  Graph Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	fmt.Fprintf(w, "  breakdown: connectivity=%.2f reviews=%.2f integrity=%.2f archival=%.2f\n\n",
		report.HealthBreakdown.Connectivity,
		report.HealthBreakdown.Reviews,
		report.HealthBreakdown.Integrity,
		report.HealthBreakdown.Archival)

	t := report.Topology
	fmt.Fprintln(w, "  TOPOLOGY")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Nodes: %d  Edges: %d (critical %d)  Components: %d\n",
		t.TotalNodes, t.TotalEdges, t.CriticalEdges, t.NumComponents)
	fmt.Fprintf(w, "  Largest component: %d  Smallest: %d\n", t.LargestComponent, t.SmallestComponent)

	if len(t.ByType) > 0 {
		parts := make([]string, len(t.ByType))
		for i, tc := range t.ByType {
			parts[i] = fmt.Sprintf("%s=%d", tc.Type, tc.Count)
		}
		fmt.Fprintf(w, "  By type: %s\n", strings.Join(parts, " "))
	}

	if t.OrphanCount > 0 {
		fmt.Fprintf(w, "  Orphans: %d unconnected artifacts\n", t.OrphanCount)
		for _, id := range head(t.OrphanIDs, 5) {
			fmt.Fprintf(w, "    - %s\n", id)
		}
		if t.OrphanCount > 5 {
			fmt.Fprintf(w, "    ... and %d more\n", t.OrphanCount-5)
		}
	}

	if len(t.Hubs) > 0 {
		fmt.Fprintln(w, "\n  Top hubs (degree > threshold):")
		for _, hub := range t.Hubs {
			fmt.Fprintf(w, "    %s degree=%d (in=%d, out=%d)  %s\n",
				truncID(hub.ID), hub.Degree, hub.InDegree, hub.OutDegree, truncTitle(hub.Title, 40))
		}
	}

	r := report.Reviews
	if r.OverdueCount > 0 || r.DueSoonCount > 0 || len(r.ArchivedPrerequisites) > 0 {
		fmt.Fprintln(w, "\n  REVIEWS")
		fmt.Fprintln(w, "  ────────────────────────────────────────")
		fmt.Fprintf(w, "  Overdue: %d  Due soon: %d\n", r.OverdueCount, r.DueSoonCount)
		for _, o := range head(r.Overdue, 10) {
			owner := o.Owner
			if owner == "" {
				owner = "unowned"
			}
			fmt.Fprintf(w, "    %s %dd overdue, %d dependents, %s  %s\n",
				truncID(o.ID), o.DaysOverdue, o.DependentCount, owner, truncTitle(o.Title, 40))
		}
		if n := len(r.ArchivedPrerequisites); n > 0 {
			fmt.Fprintf(w, "  %d archived artifacts still required by live ones:\n", n)
			for _, a := range head(r.ArchivedPrerequisites, 10) {
				fmt.Fprintf(w, "    %s -> %s  %s\n",
					truncID(a.ID), strings.Join(a.DependentIDs, ", "), truncTitle(a.Title, 40))
			}
		}
	}

	in := report.Integrity
	if len(in.DanglingEdges)+len(in.CycleBreaks)+len(in.SelfLoops) > 0 {
		fmt.Fprintln(w, "\n  INTEGRITY")
		fmt.Fprintln(w, "  ────────────────────────────────────────")
		for _, group := range [][]graph.Warning{in.DanglingEdges, in.CycleBreaks, in.SelfLoops} {
			for _, warn := range head(group, 10) {
				fmt.Fprintf(w, "    %s\n", warn)
			}
		}
	}

	fmt.Fprintln(w)
}

func head[T any](s []T, n int) []T {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary
	truncated := s[:max]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
