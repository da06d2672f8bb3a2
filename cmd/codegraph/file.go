package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"codegraph/internal/scan"

	"github.com/spf13/cobra"
)

var flagForce bool

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Re-analyze a single file",
	Long:  "Re-analyzes one file, skipping it when the content hash matches the cache. Analyzing a path that no longer exists removes its entities from the graph.",
	Args:  cobra.ExactArgs(1),
	RunE:  runFile,
}

func init() {
	fileCmd.Flags().BoolVar(&flagForce, "force", false, "re-analyze even when the content hash is unchanged")
}

func runFile(cmd *cobra.Command, args []string) error {
	engine, _, root, err := openEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving path %q: %w", args[0], err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %s is outside workspace %s", abs, root)
	}
	f := scan.File{Path: filepath.ToSlash(rel), AbsPath: abs}

	report, err := engine.AnalyzeFile(context.Background(), f, flagForce)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", f.Path, err)
	}
	return outputReport(report)
}
