package main

import (
	"meshchat/pkg/ui/transcript"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <transcript.json|->",
	Short: "Read a chat transcript with inline 3D previews",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := readInput(cmd, optionalArg(args))
		if err != nil {
			return err
		}
		msgs, err := transcript.Parse(data)
		if err != nil {
			return err
		}

		m := transcript.New(transcript.BuildEntries(msgs), transcript.Options{
			Fetcher: newFetcher(),
			Mesh:    meshOptions(false),
		})
		defer m.Close()

		_, err = tea.NewProgram(m).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
