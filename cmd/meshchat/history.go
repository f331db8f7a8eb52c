package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"meshchat/pkg/extract"
	"meshchat/pkg/history"
	"meshchat/pkg/ui/components/utils"
	"meshchat/pkg/ui/historypicker"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
	historyOut   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show and remove recorded meshes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListCmd.RunE(cmd, args)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded meshes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			if entries == nil {
				entries = []history.Entry{}
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no meshes recorded")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tKIND\tTRIANGLES\tPROMPT")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				e.ID, e.CreatedAt.Local().Format(time.DateTime), e.SourceKind, e.Triangles,
				utils.TruncateToWidth(utils.SingleLine(e.Prompt), 40))
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded mesh",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		e, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if historyOut != "" {
			if e.SourceKind != string(extract.KindInlineText) {
				return fmt.Errorf("entry %s is a URL source; fetch it with: meshchat stl %s", e.ID, e.Source)
			}
			if err := os.WriteFile(historyOut, []byte(e.Source), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", historyOut, err)
			}
		}
		if historyJSON {
			return writeJSON(cmd.OutOrStdout(), e)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "id:        %s\n", e.ID)
		fmt.Fprintf(out, "created:   %s\n", e.CreatedAt.Local().Format(time.RFC3339))
		fmt.Fprintf(out, "prompt:    %s\n", e.Prompt)
		fmt.Fprintf(out, "kind:      %s\n", e.SourceKind)
		fmt.Fprintf(out, "triangles: %d\n", e.Triangles)
		fmt.Fprintf(out, "scale:     %g\n", e.Scale)
		if e.SourceKind == string(extract.KindURL) {
			fmt.Fprintf(out, "url:       %s\n", e.Source)
		} else {
			fmt.Fprintf(out, "source:    %d lines of ASCII STL\n", countLines(e.Source))
		}
		return nil
	},
}

var historyRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Remove recorded meshes",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, id := range args {
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
		}
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 20, "Maximum entries to list")
	historyShowCmd.Flags().StringVarP(&historyOut, "out", "o", "", "Write an inline mesh to this file")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyRmCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyPickCmd = &cobra.Command{
	Use:   "pick [filter]",
	Short: "Search recorded meshes interactively and show the chosen one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return err
		}
		entries, err := store.List(cmd.Context(), historyLimit)
		store.Close()
		if err != nil {
			return err
		}

		final, err := tea.NewProgram(historypicker.New(entries, optionalArg(args))).Run()
		if err != nil {
			return err
		}
		picked, ok := final.(historypicker.Model).Chosen()
		if !ok {
			return nil
		}
		return historyShowCmd.RunE(cmd, []string{picked.ID})
	},
}

func init() {
	historyCmd.AddCommand(historyPickCmd)
}
