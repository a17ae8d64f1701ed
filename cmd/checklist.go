package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"qms/pathfinder/internal/db"
	"qms/pathfinder/internal/graph"
)

var checklistJSON bool

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Show and update stored checklists",
}

var checklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored checklist keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()

		keys, err := d.ChecklistKeys(cmd.Context())
		if err != nil {
			return err
		}
		if checklistJSON {
			return json.NewEncoder(os.Stdout).Encode(keys)
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

var checklistShowCmd = &cobra.Command{
	Use:   "show <request>",
	Short: "Show a stored checklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		nav, d, err := OpenNavigator(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		items, err := nav.Checklist(ctx, args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("no checklist stored under %q (run `pathfinder plan` first)", args[0])
		}
		if checklistJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		printChecklist(os.Stdout, args[0], items)
		return nil
	},
}

var checklistCheckCmd = &cobra.Command{
	Use:   "check <request> <node>",
	Short: "Mark a checklist item done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setChecklistItem(cmd, args[0], args[1], true)
	},
}

var checklistUncheckCmd = &cobra.Command{
	Use:   "uncheck <request> <node>",
	Short: "Mark a checklist item not done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setChecklistItem(cmd, args[0], args[1], false)
	},
}

func setChecklistItem(cmd *cobra.Command, requestKey, reference string, completed bool) error {
	ctx := cmd.Context()
	nav, d, err := OpenNavigator(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	node, err := ResolveNode(ctx, d, reference)
	if err != nil {
		return err
	}
	if err := nav.SetCompleted(ctx, requestKey, node.ID, completed); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%s is not on checklist %q", node.ID, requestKey)
		}
		return err
	}
	state := "done"
	if !completed {
		state = "not done"
	}
	fmt.Printf("%s %s marked %s\n", truncID(node.ID), truncTitle(node.Title, 50), state)
	return nil
}

func printChecklist(w io.Writer, key string, items []graph.ChecklistItem) {
	done := 0
	for _, it := range items {
		if it.Completed {
			done++
		}
	}
	fmt.Fprintf(w, "\n  Checklist %s  (%d/%d done)\n", key, done, len(items))
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	for _, it := range items {
		mark := " "
		if it.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "  %3d. [%s] %s  %s\n", it.Order+1, mark, truncID(it.NodeID), truncTitle(it.Title, 60))
	}
	fmt.Fprintln(w)
}

func init() {
	checklistCmd.PersistentFlags().BoolVar(&checklistJSON, "json", false, "Output as JSON")
	checklistCmd.AddCommand(checklistListCmd, checklistShowCmd, checklistCheckCmd, checklistUncheckCmd)
	rootCmd.AddCommand(checklistCmd)
}
