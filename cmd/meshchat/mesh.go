package main

import (
	"context"
	"fmt"
	"strings"

	"meshchat/pkg/extract"
	"meshchat/pkg/history"
	"meshchat/pkg/stl"

	"github.com/spf13/cobra"
)

var (
	stlOut         string
	stlKeepNormals bool
	stlJSON        bool
	stlSave        bool
)

var stlCmd = &cobra.Command{
	Use:   "stl <file|url|->",
	Short: "Decode an STL mesh and print its normalized bounds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := optionalArg(args)
		g, err := decodeMesh(cmd, arg)
		if err != nil {
			return err
		}
		p := stl.Prepare(g, meshOptions(stlKeepNormals))

		if stlOut != "" {
			if err := writeMesh(stlOut, p); err != nil {
				return err
			}
		}
		if stlSave {
			if err := saveMesh(cmd.Context(), "", arg, p); err != nil {
				return err
			}
		}

		if stlJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"triangles": p.Geometry.TriangleCount(),
				"scale":     p.Scale,
				"bounds":    p.Bounds,
				"size":      p.Bounds.Size(),
			})
		}
		printStats(cmd.OutOrStdout(), p)
		if stlOut != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote:     %s\n", stlOut)
		}
		return nil
	},
}

func init() {
	stlCmd.Flags().StringVarP(&stlOut, "out", "o", "", "Write the normalized mesh as ASCII STL")
	stlCmd.Flags().BoolVar(&stlKeepNormals, "keep-normals", false, "Keep parsed normals instead of recomputing them")
	stlCmd.Flags().BoolVar(&stlJSON, "json", false, "Output as JSON")
	stlCmd.Flags().BoolVar(&stlSave, "save", false, "Record the mesh in history")
	rootCmd.AddCommand(stlCmd)
}

func decodeMesh(cmd *cobra.Command, arg string) (*stl.Geometry, error) {
	if isRemote(arg) {
		return newFetcher().Fetch(cmd.Context(), arg)
	}
	data, name, err := readInput(cmd, arg)
	if err != nil {
		return nil, err
	}
	g, err := stl.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return g, nil
}

// loadSource parses an extracted source into a prepared mesh.
func loadSource(ctx context.Context, src extract.Source, opts stl.Options) (stl.Prepared, error) {
	var (
		g   *stl.Geometry
		err error
	)
	if src.Kind == extract.KindURL {
		g, err = newFetcher().Fetch(ctx, src.Address)
	} else {
		g, err = stl.ParseASCII(src.Body)
	}
	if err != nil {
		return stl.Prepared{}, err
	}
	return stl.Prepare(g, opts), nil
}

func saveMesh(ctx context.Context, prompt, source string, p stl.Prepared) error {
	kind := string(extract.KindURL)
	if !isRemote(source) {
		kind = string(extract.KindInlineText)
		var b strings.Builder
		if err := stl.WriteASCII(&b, "mesh", p.Geometry, 1); err != nil {
			return err
		}
		source = b.String()
	}
	return recordHistory(ctx, history.Entry{
		Prompt:     prompt,
		SourceKind: kind,
		Source:     source,
		Triangles:  p.Geometry.TriangleCount(),
		Scale:      float64(p.Scale),
	})
}

func recordHistory(ctx context.Context, e history.Entry) error {
	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Add(ctx, e); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
