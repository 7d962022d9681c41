// Package cli wires the houston command tree. Commands stay thin: they load
// config, assemble the assistant and render results; all behavior lives in
// the library packages.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the houston command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "houston",
		Short:        "Resolve model adapters by role and run tracked agent queries",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(),
		"Config file path (default $HOUSTON_CONFIG or ~/.config/houston/config.yaml)")

	root.AddCommand(newAskCommand(&configPath))
	root.AddCommand(newNoteCommand(&configPath))
	root.AddCommand(newTranscriptCommand(&configPath))
	root.AddCommand(newModelsCommand(&configPath))
	root.AddCommand(newRolesCommand(&configPath))
	root.AddCommand(newUsageCommand(&configPath))
	root.AddCommand(newIntentsCommand(&configPath))

	return root
}

func newModelsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			for _, entry := range a.assistant.Registry().Models() {
				fmt.Printf("%-10s %-18s %s\n", entry.Provider, entry.ModelKey, entry.APIModel)
			}
			return nil
		},
	}
}

func newRolesCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "Show the current role table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			for name, role := range a.assistant.Registry().Roles() {
				fmt.Printf("%-10s -> %s/%s\n", name, role.Provider, role.Model)
			}
			return nil
		},
	}
}

func newIntentsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "intents",
		Short: "List the intent catalog with trigger phrases",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			catalog := a.assistant.Intents()
			for _, name := range catalog.Names() {
				in, _ := catalog.Lookup(name)
				fmt.Printf("%s\n", in.Name)
				for _, phrase := range in.Phrases {
					fmt.Printf("  %q\n", phrase)
				}
			}
			return nil
		},
	}
}
