package main

import (
	"fmt"

	"codegraph/internal/store"

	"github.com/spf13/cobra"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Manage free-text observations attached to entities",
	Long:  "Observations are analyst notes keyed to an entity. They survive re-analysis as long as the entity's identity (file, name, kind, start line) survives.",
}

func init() {
	observeCmd.AddCommand(observeAddCmd)
	observeCmd.AddCommand(observeListCmd)
	observeCmd.AddCommand(observeUpdateCmd)
	observeCmd.AddCommand(observeRmCmd)
}

var observeAddCmd = &cobra.Command{
	Use:   "add <entity-id> <content>",
	Short: "Attach an observation to an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		obs, err := s.AddObservation(args[0], args[1])
		if err != nil {
			return fmt.Errorf("adding observation: %w", err)
		}
		if obs == nil {
			return fmt.Errorf("entity not found: %s", args[0])
		}
		return outputObservations([]*store.Observation{obs})
	},
}

var observeListCmd = &cobra.Command{
	Use:   "list <entity-id>",
	Short: "List an entity's observations, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		obs, err := s.ObservationsByEntity(args[0])
		if err != nil {
			return fmt.Errorf("listing observations: %w", err)
		}
		return outputObservations(obs)
	},
}

var observeUpdateCmd = &cobra.Command{
	Use:   "update <observation-id> <content>",
	Short: "Replace an observation's content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ok, err := s.UpdateObservation(args[0], args[1])
		if err != nil {
			return fmt.Errorf("updating observation: %w", err)
		}
		if !ok {
			return fmt.Errorf("observation not found: %s", args[0])
		}
		return nil
	},
}

var observeRmCmd = &cobra.Command{
	Use:   "rm <observation-id>",
	Short: "Delete an observation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ok, err := s.DeleteObservation(args[0])
		if err != nil {
			return fmt.Errorf("deleting observation: %w", err)
		}
		if !ok {
			return fmt.Errorf("observation not found: %s", args[0])
		}
		return nil
	},
}
