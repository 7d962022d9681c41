package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kyleturman/houston/transcript"
)

func newTranscriptCommand(configPath *string) *cobra.Command {
	var langs []string

	cmd := &cobra.Command{
		Use:   "transcript <video-id>",
		Short: "Fetch a YouTube video transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			fetcher := a.assistant.Transcripts()
			if len(langs) > 0 {
				fetcher = transcript.New(func(o *transcript.Options) {
					o.Languages = langs
				})
			}

			t, err := fetcher.Fetch(cmd.Context(), args[0])
			if err != nil {
				return WrapExit(ExitAPIError, err)
			}
			fmt.Println(t.Text())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Preferred languages in order (default en)")
	return cmd
}
