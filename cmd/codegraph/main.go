package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"codegraph"
	"codegraph/internal/config"
	"codegraph/internal/extract"
	"codegraph/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDB     string
	flagRoot   string
	flagFormat string
	flagDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "codegraph",
	Short:         "Incremental code-structure graph for TypeScript/JavaScript workspaces",
	Long:          "Codegraph analyzes workspace source files into a SQLite graph of entities, relations, and observations, re-analyzing only what changed.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: from config, .codegraph/graph.db)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "workspace root (default: nearest directory with .codegraph.yaml or .git)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug logging regardless of configured level")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(relationsCmd)
	rootCmd.AddCommand(observeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
}

// findWorkspaceRoot walks up from startDir looking for a .codegraph.yaml file
// or a .git directory. Returns startDir when neither is found.
func findWorkspaceRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".codegraph.yaml")); err == nil {
			return dir
		}
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// workspaceRoot resolves the --root flag or discovers the root from cwd.
func workspaceRoot() (string, error) {
	if flagRoot != "" {
		abs, err := filepath.Abs(flagRoot)
		if err != nil {
			return "", fmt.Errorf("resolving root %q: %w", flagRoot, err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("not a directory: %s", abs)
		}
		return abs, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	return findWorkspaceRoot(cwd), nil
}

// resolveDBPath returns the database path from the --db flag or the config.
func resolveDBPath(root string, cfg *config.Config) string {
	p := cfg.DBPath
	if flagDB != "" {
		p = flagDB
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func setupLogger(cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	if flagDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newExtractor(cfg *config.Config) extract.Extractor {
	if cfg.Extractor == config.ExtractorGrammar {
		return extract.NewGrammar()
	}
	return extract.NewHeuristic()
}

// openEngine loads config and opens the engine, creating the database
// directory if needed. Callers own the returned engine's Close.
func openEngine(extra ...codegraph.Option) (*codegraph.Engine, *config.Config, string, error) {
	root, err := workspaceRoot()
	if err != nil {
		return nil, nil, "", err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, "", err
	}
	dbPath := resolveDBPath(root, cfg)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, "", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	opts := append([]codegraph.Option{
		codegraph.WithExtractor(newExtractor(cfg)),
		codegraph.WithLogger(setupLogger(cfg)),
	}, extra...)
	engine, err := codegraph.New(dbPath, opts...)
	if err != nil {
		return nil, nil, "", err
	}
	return engine, cfg, root, nil
}

// openStore opens the store read-only-style for query commands: the database
// must already exist.
func openStore() (*store.Store, error) {
	root, err := workspaceRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	dbPath := resolveDBPath(root, cfg)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'codegraph analyze' first)", dbPath)
	}
	return store.NewStore(dbPath)
}
