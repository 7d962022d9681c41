package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyleturman/houston/usage"
)

func newUsageCommand(configPath *string) *cobra.Command {
	var user string
	var model string
	var since string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show usage ledger totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := usage.Filter{PrincipalID: user, ModelKey: model}
			if since != "" {
				ts, err := time.Parse("2006-01-02", since)
				if err != nil {
					return WrapExit(ExitUserError, fmt.Errorf("invalid --since %q, want YYYY-MM-DD", since))
				}
				filter.Since = ts
			}

			totals, err := a.assistant.Usage().Totals(cmd.Context(), filter)
			if err != nil {
				return WrapExit(ExitIOFailure, err)
			}
			fmt.Printf("records: %d\n", totals.Records)
			fmt.Printf("input_tokens: %d\n", totals.InputTokens)
			fmt.Printf("output_tokens: %d\n", totals.OutputTokens)
			fmt.Printf("cost_usd: %.6f\n", totals.Cost)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Filter by principal id")
	cmd.Flags().StringVar(&model, "model", "", "Filter by model key")
	cmd.Flags().StringVar(&since, "since", "", "Only records on or after this date (YYYY-MM-DD)")
	return cmd
}
