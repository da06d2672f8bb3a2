package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"codegraph"
	"codegraph/internal/store"
)

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputReport(report *codegraph.Report) error {
	if flagFormat == "json" {
		return outputJSON(report)
	}
	if report.Skipped {
		fmt.Println("unchanged, skipped")
		return nil
	}
	fmt.Printf("entities: %d\nrelations: %d\nfiles: %d\n",
		report.Entities, report.Relations, report.FilesAnalyzed)
	for _, e := range report.Errors {
		fmt.Printf("error: %s: %s\n", e.FilePath, e.Message)
	}
	return nil
}

func outputEntities(entities []*store.Entity) error {
	if flagFormat == "json" {
		return outputJSON(entities)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tFILE\tLINES")
	for _, e := range entities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d-%d\n",
			shortID(e.ID), e.Name, e.Kind, e.FilePath, e.StartLine, e.EndLine)
	}
	return tw.Flush()
}

func outputRelations(s *store.Store, relations []*store.Relation) error {
	if flagFormat == "json" {
		return outputJSON(relations)
	}

	// Resolve endpoint names once per distinct id for readable output.
	names := map[string]string{}
	lookup := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := shortID(id)
		if ent, err := s.EntityByID(id); err == nil && ent != nil {
			name = ent.Name
		}
		names[id] = name
		return name
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tVERB\tTARGET")
	for _, r := range relations {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			lookup(r.SourceEntityID), r.Verb, lookup(r.TargetEntityID))
	}
	return tw.Flush()
}

func outputObservations(obs []*store.Observation) error {
	if flagFormat == "json" {
		return outputJSON(obs)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tCONTENT")
	for _, o := range obs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			shortID(o.ID), o.CreatedAt.Format("2006-01-02 15:04"), o.Content)
	}
	return tw.Flush()
}

func outputStats(stats *store.Stats) error {
	if flagFormat == "json" {
		return outputJSON(stats)
	}
	fmt.Printf("entities: %d\nrelations: %d\nobservations: %d\nfiles: %d\n",
		stats.Entities, stats.Relations, stats.Observations, stats.Files)

	if len(stats.EntitiesByKind) > 0 {
		fmt.Println("\nentities by kind:")
		printCounts(stats.EntitiesByKind)
	}
	if len(stats.RelationsByVerb) > 0 {
		fmt.Println("\nrelations by verb:")
		printCounts(stats.RelationsByVerb)
	}
	if stats.LastAnalyzed != nil {
		fmt.Printf("\nlast analyzed: %s\n", stats.LastAnalyzed.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %d\n", k, counts[k])
	}
}

// shortID truncates a uuid for column display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
