package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"meshchat/pkg/ai"
	_ "meshchat/pkg/ai/providers"
	"meshchat/pkg/extract"
	"meshchat/pkg/history"

	"github.com/spf13/cobra"
)

var errNoMesh = errors.New("reply contained no STL source")

var (
	generateObject  string
	generatePreset  string
	generatePresets string
	generateSchema  string
	generateOut     string
	generateNoSave  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Ask the configured LLM for a mesh (or a JSON object) and decode the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" {
			return fmt.Errorf("prompt is required")
		}
		if err := cfg.ValidateProvider(); err != nil {
			return err
		}
		provider, err := ai.GetProviderFromConfig(cfg)
		if err != nil {
			return err
		}

		if generateObject != "" || generatePreset != "" {
			msgs, err := objectMessages(prompt)
			if err != nil {
				return err
			}
			_, err = streamReply(cmd.Context(), provider, msgs, cmd.OutOrStdout())
			return err
		}

		reply, err := streamReply(cmd.Context(), provider, ai.BuildSTLMessages(prompt), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return handleMeshReply(cmd, prompt, reply)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateObject, "object", "", "Generate a JSON object of this type instead of a mesh")
	generateCmd.Flags().StringVar(&generatePreset, "preset", "", "Use a named object preset")
	generateCmd.Flags().StringVar(&generatePresets, "presets", "", "YAML file with object presets")
	generateCmd.Flags().StringVar(&generateSchema, "schema", "", "JSON schema file for --object")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Write the normalized mesh as ASCII STL")
	generateCmd.Flags().BoolVar(&generateNoSave, "no-save", false, "Do not record the mesh in history")
	rootCmd.AddCommand(generateCmd)
}

func objectMessages(prompt string) ([]ai.Message, error) {
	if generatePreset != "" {
		presets := []ai.Preset{ai.DefaultPreset()}
		if generatePresets != "" {
			loaded, err := ai.LoadPresets(generatePresets)
			if err != nil {
				return nil, err
			}
			presets = append(presets, loaded...)
		}
		preset, ok := ai.FindPreset(presets, generatePreset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", generatePreset)
		}
		return preset.Messages(prompt)
	}

	schema := ai.DefaultObjectSchema
	if generateSchema != "" {
		data, err := os.ReadFile(generateSchema)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		schema = string(data)
	}
	return ai.BuildObjectMessages(generateObject, prompt, schema)
}

// streamReply streams the completion to w and returns the full text.
func streamReply(ctx context.Context, provider ai.Provider, msgs []ai.Message, w io.Writer) (string, error) {
	stream, err := provider.CreateChatCompletionStream(ctx, ai.ChatRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	reply, err := ai.Collect(stream, func(delta string) {
		fmt.Fprint(w, delta)
	})
	fmt.Fprintln(w)
	if err != nil {
		return reply, fmt.Errorf("stream reply: %w", err)
	}
	slog.Info("generate_reply", "chars", len(reply))
	return reply, nil
}

func handleMeshReply(cmd *cobra.Command, prompt, reply string) error {
	res := extract.Analyze(reply)
	if len(res.Sources) == 0 {
		if res.Ambiguous {
			fmt.Fprintln(cmd.ErrOrStderr(), extract.AmbiguityAdvisory)
		}
		return errNoMesh
	}

	src := res.Sources[0]
	p, err := loadSource(cmd.Context(), src, meshOptions(false))
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), p)

	if generateOut != "" {
		if err := writeMesh(generateOut, p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote:     %s\n", generateOut)
	}
	if generateNoSave {
		return nil
	}

	source := src.Address
	if src.Kind == extract.KindInlineText {
		source = src.Body
	}
	return recordHistory(cmd.Context(), history.Entry{
		Prompt:     prompt,
		SourceKind: string(src.Kind),
		Source:     source,
		Triangles:  p.Geometry.TriangleCount(),
		Scale:      float64(p.Scale),
	})
}
