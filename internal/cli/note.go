package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyleturman/houston/note"
)

func newNoteCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes",
	}
	cmd.AddCommand(newNoteAddCommand(configPath))
	cmd.AddCommand(newNoteListCommand(configPath))
	return cmd
}

func newNoteAddCommand(configPath *string) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.assistant.Notes().Create(cmd.Context(), title, strings.Join(args, " "))
			if err != nil {
				return WrapExit(ExitIOFailure, err)
			}
			fmt.Printf("%s  %s\n", n.ID, n.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Note title (derived from content when omitted)")
	return cmd
}

func newNoteListCommand(configPath *string) *cobra.Command {
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			notes, err := a.assistant.Notes().List(cmd.Context(), note.ListFilter{IncludeArchived: archived})
			if err != nil {
				return WrapExit(ExitIOFailure, err)
			}
			for _, n := range notes {
				marker := " "
				if n.Pinned {
					marker = "*"
				}
				fmt.Printf("%s %s  %s  (%s)\n", marker, n.ID, n.Title, n.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "Include archived notes")
	return cmd
}
