package main

import (
	"fmt"
	"strings"

	"meshchat/pkg/extract"

	"github.com/spf13/cobra"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "List the STL sources embedded in a chat message",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _, err := readInput(cmd, optionalArg(args))
		if err != nil {
			return err
		}

		res := extract.Analyze(string(data))
		if extractJSON {
			if res.Sources == nil {
				res.Sources = []extract.Source{}
			}
			return writeJSON(cmd.OutOrStdout(), res)
		}

		out := cmd.OutOrStdout()
		if len(res.Sources) == 0 {
			fmt.Fprintln(out, "no sources found")
		}
		for i, src := range res.Sources {
			switch src.Kind {
			case extract.KindURL:
				fmt.Fprintf(out, "%d. url     %s\n", i+1, src.Address)
			default:
				fmt.Fprintf(out, "%d. inline  %d lines, %d facets\n", i+1,
					countLines(src.Body), strings.Count(strings.ToLower(src.Body), "facet normal"))
			}
		}
		if res.Ambiguous {
			fmt.Fprintln(out, extract.AmbiguityAdvisory)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(extractCmd)
}
