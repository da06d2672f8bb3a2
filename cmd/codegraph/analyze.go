package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"codegraph"
	"codegraph/internal/scan"

	"github.com/spf13/cobra"
)

var flagProgress bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the whole workspace into the graph database",
	Long:  "Scans the workspace by the configured include/exclude globs, extracts symbols from each file, and reconciles the graph. Entity ids and observations survive across runs.",
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagProgress, "progress", false, "print per-phase progress to stderr")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()

	var opts []codegraph.Option
	if flagProgress {
		opts = append(opts, codegraph.WithProgress(func(phase codegraph.Phase, done, total int) {
			fmt.Fprintf(os.Stderr, "\r%-40s", fmt.Sprintf("%s %d/%d", phase, done, total))
		}))
	}

	engine, cfg, root, err := openEngine(opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	scanner := scan.New(root, cfg.Include, cfg.Exclude)
	report, err := engine.AnalyzeWorkspace(context.Background(), scanner)
	if flagProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Analyzed %s in %s\n", root, time.Since(start).Round(time.Millisecond))
	return outputReport(report)
}
