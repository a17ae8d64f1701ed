package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qms/pathfinder/internal/config"
	"qms/pathfinder/internal/db"
	"qms/pathfinder/internal/logging"
	"qms/pathfinder/internal/navigator"
)

const dbFileName = ".pathfinder.db"

var (
	dbPath     string
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "pathfinder",
	Short:         "Compliance knowledge-graph navigator",
	Long:          "Resolves the ordered set of compliance artifacts a role must complete and\nanswers what comes next for any single artifact.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			loaded.LogFormat = logFormat
		}
		level, err := logging.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		logging.Init(level, loaded.LogFormat)
		cfg = loaded
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to .pathfinder.db or a postgres:// DSN")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// DiscoverDB finds the database using priority: env > flag > walk-up > XDG fallback
func DiscoverDB() (string, error) {
	// 1. Environment variable (also fed from .env and the config file)
	if cfg != nil && cfg.DBPath != "" {
		if strings.Contains(cfg.DBPath, "://") {
			return cfg.DBPath, nil
		}
		if _, err := os.Stat(cfg.DBPath); err == nil {
			return cfg.DBPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if strings.Contains(dbPath, "://") {
			return dbPath, nil
		}
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 4. XDG fallback
	if xdg := xdgDBPath(); xdg != "" {
		if _, err := os.Stat(xdg); err == nil {
			return xdg, nil
		}
	}

	return "", fmt.Errorf("no %s found (set PATHFINDER_DB, use --db, or run `pathfinder init`)", dbFileName)
}

func xdgDBPath() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "pathfinder", "pathfinder.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "pathfinder", "pathfinder.db")
}

// OpenDatabase discovers and opens the database, creating missing tables
func OpenDatabase(ctx context.Context) (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	d, err := db.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.CreateSchema(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// OpenNavigator opens the database and wraps it in a configured Navigator.
// The caller closes the returned DB.
func OpenNavigator(ctx context.Context) (*navigator.Navigator, *db.DB, error) {
	d, err := OpenDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}
	estimator, err := cfg.Estimator()
	if err != nil {
		d.Close()
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	nav, err := navigator.New(d, navigator.Options{
		Estimator:   estimator,
		CacheSize:   cfg.SnapshotCacheSize,
		Concurrency: cfg.PlanConcurrency,
	})
	if err != nil {
		d.Close()
		return nil, nil, err
	}
	return nav, d, nil
}

// ResolveNode finds a node by full ID, ID prefix, or title/code search.
func ResolveNode(ctx context.Context, d *db.DB, reference string) (*db.Node, error) {
	// 1. Exact ID match
	node, err := d.GetNode(ctx, reference)
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	// 2. ID prefix match
	matches, err := d.SearchByIDPrefix(ctx, reference, 10)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
		// fall through to search
	default:
		return nil, ambiguous(reference, matches)
	}

	// 3. Title/code search
	found, err := d.SearchNodes(ctx, reference)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 1:
		return &found[0], nil
	case 0:
		return nil, fmt.Errorf("node not found: %s", reference)
	default:
		return nil, ambiguous(reference, found)
	}
}

func ambiguous(reference string, nodes []db.Node) error {
	limit := 10
	if len(nodes) < limit {
		limit = len(nodes)
	}
	lines := make([]string, limit)
	for i := 0; i < limit; i++ {
		lines[i] = fmt.Sprintf("  %s %s", nodes[i].ID, nodes[i].Title)
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\nUse a full node ID instead.",
		reference, len(nodes), strings.Join(lines, "\n"))
}
