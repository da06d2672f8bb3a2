package main

import (
	"fmt"

	"codegraph/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagEntityFile string
	flagEntityKind string
	flagEntityName string
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List entities in the graph",
	Args:  cobra.NoArgs,
	RunE:  runEntities,
}

func init() {
	entitiesCmd.Flags().StringVar(&flagEntityFile, "file", "", "filter by exact file path (workspace-relative)")
	entitiesCmd.Flags().StringVar(&flagEntityKind, "kind", "", "filter by kind: class|interface|function|variable|enum|type|file")
	entitiesCmd.Flags().StringVar(&flagEntityName, "name", "", "filter by exact name")
}

func runEntities(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	entities, err := s.ListEntities(store.EntityFilter{
		FilePath: flagEntityFile,
		Kind:     flagEntityKind,
		Name:     flagEntityName,
	})
	if err != nil {
		return fmt.Errorf("listing entities: %w", err)
	}
	return outputEntities(entities)
}

var (
	flagRelSource string
	flagRelTarget string
	flagRelVerb   string
)

var relationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "List relations in the graph",
	Args:  cobra.NoArgs,
	RunE:  runRelations,
}

func init() {
	relationsCmd.Flags().StringVar(&flagRelSource, "source", "", "filter by source entity id")
	relationsCmd.Flags().StringVar(&flagRelTarget, "target", "", "filter by target entity id")
	relationsCmd.Flags().StringVar(&flagRelVerb, "verb", "", "filter by verb")
}

func runRelations(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	relations, err := s.ListRelations(store.RelationFilter{
		SourceEntityID: flagRelSource,
		TargetEntityID: flagRelTarget,
		Verb:           flagRelVerb,
	})
	if err != nil {
		return fmt.Errorf("listing relations: %w", err)
	}
	return outputRelations(s, relations)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph counts and last analysis time",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.GetStats()
	if err != nil {
		return fmt.Errorf("collecting stats: %w", err)
	}
	return outputStats(stats)
}

// graphExport is the full-graph JSON shape produced by the export command.
type graphExport struct {
	Entities     []*store.Entity         `json:"entities"`
	Relations    []*store.Relation       `json:"relations"`
	Observations []*store.Observation    `json:"observations"`
	Files        []*store.FileCacheEntry `json:"files"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the entire graph as JSON",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	out := graphExport{}
	if out.Entities, err = s.ListEntities(store.EntityFilter{}); err != nil {
		return fmt.Errorf("listing entities: %w", err)
	}
	if out.Relations, err = s.ListRelations(store.RelationFilter{}); err != nil {
		return fmt.Errorf("listing relations: %w", err)
	}
	for _, ent := range out.Entities {
		obs, err := s.ObservationsByEntity(ent.ID)
		if err != nil {
			return fmt.Errorf("listing observations: %w", err)
		}
		out.Observations = append(out.Observations, obs...)
	}
	if out.Files, err = s.ListFileCache(); err != nil {
		return fmt.Errorf("listing file cache: %w", err)
	}
	return outputJSON(out)
}
