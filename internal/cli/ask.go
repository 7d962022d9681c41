package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyleturman/houston"
	"github.com/kyleturman/houston/usage"
)

func newAskCommand(configPath *string) *cobra.Command {
	var role string
	var user string
	var subject string
	var contextLabel string

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Run an agent query through a role's model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			opts, err := resolveOptions(user, subject, contextLabel)
			if err != nil {
				return WrapExit(ExitUserError, err)
			}

			prompt := strings.Join(args, " ")
			answer, err := a.assistant.Ask(cmd.Context(), role, prompt, opts...)
			if err != nil {
				return WrapExit(ExitAPIError, err)
			}

			fmt.Println(answer.Text)
			if user != "" {
				cost := usage.Cost(answer.ModelKey, answer.Usage)
				fmt.Printf("\n[%s: %d in / %d out tokens, $%.6f]\n",
					answer.ModelKey, answer.Usage.InputTokens, answer.Usage.OutputTokens, cost)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "agents", "Role to resolve the model through")
	cmd.Flags().StringVar(&user, "user", "", "Principal id to attribute usage to")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject as kind:id (e.g. goal:42)")
	cmd.Flags().StringVar(&contextLabel, "context", "", "Free-text accounting label")
	return cmd
}

// resolveOptions translates the CLI tracking flags into resolve options.
// Subject and context without --user are passed through anyway; the registry
// ignores them per the attachment rule.
func resolveOptions(user, subject, contextLabel string) ([]houston.ResolveOption, error) {
	var opts []houston.ResolveOption
	if user != "" {
		opts = append(opts, houston.WithPrincipal(usage.SimplePrincipal(user)))
	}
	if subject != "" {
		kind, id, ok := strings.Cut(subject, ":")
		if !ok || kind == "" || id == "" {
			return nil, fmt.Errorf("invalid subject %q, want kind:id", subject)
		}
		opts = append(opts, houston.WithSubject(usage.SimpleSubject{Kind: kind, ID: id}))
	}
	if contextLabel != "" {
		opts = append(opts, houston.WithContext(contextLabel))
	}
	return opts, nil
}
