package main

import (
	"fmt"

	"meshchat/pkg/comparison"
	"meshchat/pkg/ui/gallery"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
)

var (
	galleryPlain    bool
	galleryPage     int
	galleryCategory string
)

var galleryCmd = &cobra.Command{
	Use:   "gallery [csv path|url]",
	Short: "Browse Flux vs DALL-E prompt comparisons",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := optionalArg(args)
		if src == "" {
			src = cfg.Gallery.CSVURL
		}
		if src == "" {
			return fmt.Errorf("no comparison CSV given and gallery.csv_url is not set")
		}

		records, err := comparison.Load(cmd.Context(), newHTTPClient(), src)
		if err != nil {
			return err
		}

		if galleryPlain {
			fmt.Fprint(cmd.OutOrStdout(), gallery.RenderPlain(records, galleryCategory, galleryPage, cfg.Gallery.ItemsPerPage))
			return nil
		}

		_, err = tea.NewProgram(gallery.New(records, cfg.Gallery.ItemsPerPage)).Run()
		return err
	},
}

func init() {
	galleryCmd.Flags().BoolVar(&galleryPlain, "plain", false, "Print one page instead of opening the browser")
	galleryCmd.Flags().IntVar(&galleryPage, "page", 1, "Page to print with --plain")
	galleryCmd.Flags().StringVar(&galleryCategory, "category", gallery.AllCategories, "Category to print with --plain")
	rootCmd.AddCommand(galleryCmd)
}
