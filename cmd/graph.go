package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qms/pathfinder/internal/db"
	"qms/pathfinder/internal/graph"
	"qms/pathfinder/internal/graphfile"
	"qms/pathfinder/internal/logging"
)

var (
	importReplace bool
	importJSON    bool
	exportFormat  string
	exportOutput  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty graph database (default ./.pathfinder.db)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := dbPath
		if target == "" && cfg.DBPath != "" {
			target = cfg.DBPath
		}
		if target == "" {
			target = dbFileName
		}
		if !strings.Contains(target, "://") {
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating %s: %w", dir, err)
				}
			}
		}

		d, err := db.OpenDB(target)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.CreateSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Initialized %s\n", target)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import nodes and edges from a YAML or JSON graph document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.New("import")

		nodes, edges, err := graphfile.LoadFromPath(args[0])
		if err != nil {
			return err
		}
		// Reject documents the resolver would refuse before touching the store.
		snap, err := graph.NewSnapshot(nodes, edges)
		if err != nil {
			return err
		}
		for _, w := range snap.Warnings() {
			log.Warn(w.Message, "kind", string(w.Kind), "edge_id", w.EdgeID)
		}

		nodeRows, edgeRows, err := graph.ToRecords(nodes, edges)
		if err != nil {
			return err
		}

		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		stats, err := d.ImportGraph(ctx, nodeRows, edgeRows, importReplace)
		if err != nil {
			return err
		}
		log.Info("graph imported", "file", args[0], "nodes", stats.Nodes, "edges", stats.Edges, "revision", stats.Revision)

		if importJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		fmt.Printf("Imported %d nodes, %d edges (revision %d)\n", stats.Nodes, stats.Edges, stats.Revision)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored graph as a YAML or JSON document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		snap, err := graph.SnapshotFromDB(ctx, d)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		out := os.Stdout
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return graphfile.Save(out, snap.Nodes(), snap.Edges(), exportFormat)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Clear the stored graph before importing")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Output import stats as JSON")
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Output format: yaml or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(initCmd, importCmd, exportCmd)
}
