package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qms/pathfinder/internal/graph"
	"qms/pathfinder/internal/navigator"
)

var (
	planRoles        []string
	planActivities   []string
	planLocations    []string
	planRequest      string
	planKeepProgress bool
	planPerRole      bool
	planJSON         bool

	inspectRequest string
	inspectJSON    bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Resolve the ordered compliance path for a role, activity and location selection",
	Long: `Selects every artifact matching the given roles, activities and locations,
adds all of their prerequisites, orders the result so prerequisites come first,
and stores the derived checklist under the request key.

An empty dimension matches everything. With --per-role each role gets its own
plan and checklist.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if planPerRole && planRequest != "" {
			return fmt.Errorf("--request cannot be combined with --per-role")
		}
		if planPerRole && len(planRoles) == 0 {
			return fmt.Errorf("--per-role needs at least one --role")
		}

		nav, d, err := OpenNavigator(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		reqs := planRequests()
		var results []*graph.WizardResult
		if len(reqs) == 1 {
			r, err := nav.Plan(ctx, reqs[0])
			if err != nil {
				return err
			}
			results = []*graph.WizardResult{r}
		} else {
			results, err = nav.PlanMany(ctx, reqs)
			if err != nil {
				return err
			}
		}

		if planJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if len(results) == 1 {
				return enc.Encode(results[0])
			}
			return enc.Encode(results)
		}
		for _, r := range results {
			printPlan(os.Stdout, r)
		}
		return nil
	},
}

func planRequests() []navigator.Request {
	if !planPerRole {
		return []navigator.Request{{
			Criteria: graph.Criteria{
				Roles:      planRoles,
				Activities: planActivities,
				Locations:  planLocations,
			},
			Key:          planRequest,
			KeepProgress: planKeepProgress,
		}}
	}
	roles := graph.Criteria{Roles: planRoles}.Normalize().Roles
	reqs := make([]navigator.Request, len(roles))
	for i, role := range roles {
		reqs[i] = navigator.Request{
			Criteria: graph.Criteria{
				Roles:      []string{role},
				Activities: planActivities,
				Locations:  planLocations,
			},
			KeepProgress: planKeepProgress,
		}
	}
	return reqs
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <node>",
	Short: "Show what comes next after a node and what leads to it",
	Long: `Accepts a full node ID, an ID prefix, or a title/code search.
With --request, next steps are marked done from that stored checklist.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		nav, d, err := OpenNavigator(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		node, err := ResolveNode(ctx, d, args[0])
		if err != nil {
			return err
		}
		report, err := nav.Inspect(ctx, node.ID, inspectRequest)
		if err != nil {
			return err
		}

		if inspectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printStepReport(os.Stdout, report)
		return nil
	},
}

func init() {
	planCmd.Flags().StringSliceVar(&planRoles, "role", nil, "Role to plan for (repeatable, comma-separated)")
	planCmd.Flags().StringSliceVar(&planActivities, "activity", nil, "Activity to plan for (repeatable, comma-separated)")
	planCmd.Flags().StringSliceVar(&planLocations, "location", nil, "Location to plan for (repeatable, comma-separated)")
	planCmd.Flags().StringVar(&planRequest, "request", "", "Checklist key to store under (default: derived from the selection)")
	planCmd.Flags().BoolVar(&planKeepProgress, "keep-progress", false, "Carry completion over from the stored checklist")
	planCmd.Flags().BoolVar(&planPerRole, "per-role", false, "Plan each role separately")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output as JSON")

	inspectCmd.Flags().StringVar(&inspectRequest, "request", "", "Checklist key to read completion from")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(planCmd, inspectCmd)
}

func printPlan(w io.Writer, r *graph.WizardResult) {
	fmt.Fprintf(w, "\n  Plan %s\n", r.RequestKey)
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	if len(r.Path) == 0 {
		fmt.Fprintln(w, "  No artifacts match this selection.")
		printWarnings(w, r.Warnings)
		fmt.Fprintln(w)
		return
	}

	seeds := make(map[string]bool, len(r.Seeds))
	for _, id := range r.Seeds {
		seeds[id] = true
	}
	for i, n := range r.Path {
		mark := " "
		if i < len(r.Checklist) && r.Checklist[i].Completed {
			mark = "x"
		}
		origin := "prereq"
		if seeds[n.ID] {
			origin = "match"
		}
		label := n.Title
		if n.Code != "" {
			label = n.Code + " " + label
		}
		fmt.Fprintf(w, "  %3d. [%s] %-16s %-6s %s  %s\n",
			i+1, mark, n.Type, origin, truncID(n.ID), truncTitle(label, 50))
	}
	fmt.Fprintf(w, "\n  %d steps (%d matched), estimated %s\n", len(r.Path), len(r.Seeds), formatDuration(r.EstimatedTime))
	printWarnings(w, r.Warnings)
	fmt.Fprintln(w)
}

func printStepReport(w io.Writer, r *graph.StepReport) {
	fmt.Fprintf(w, "\n  %s [%s] %s\n", r.Node.ID, r.Node.Type, r.Node.Title)
	if r.Node.Owner != "" {
		fmt.Fprintf(w, "  owner: %s\n", r.Node.Owner)
	}

	fmt.Fprintln(w, "\n  NEXT")
	if len(r.Next) == 0 {
		fmt.Fprintln(w, "    (none)")
	}
	for _, s := range r.Next {
		mark := " "
		if s.Completed {
			mark = "x"
		}
		flag := ""
		if s.Critical {
			flag = " critical"
		}
		fmt.Fprintf(w, "    [%s] %s %-12s%s  %s\n", mark, truncID(s.Node.ID), s.Relationship, flag, truncTitle(s.Node.Title, 50))
	}

	fmt.Fprintln(w, "\n  PREREQUISITES")
	if len(r.Prerequisites) == 0 {
		fmt.Fprintln(w, "    (none)")
	}
	for _, p := range r.Prerequisites {
		fmt.Fprintf(w, "    %s %-12s  %s\n", truncID(p.Node.ID), p.Relationship, truncTitle(p.Node.Title, 50))
	}
	fmt.Fprintln(w)
}

func printWarnings(w io.Writer, warnings []graph.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %d warning(s):\n", len(warnings))
	for _, warn := range warnings {
		fmt.Fprintf(w, "    ! %s\n", warn)
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 || h == 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	return strings.Join(parts, " ")
}
