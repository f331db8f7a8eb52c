package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"meshchat/pkg/config"
	"meshchat/pkg/logging"
	"meshchat/pkg/stl"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:           "meshchat",
	Short:         "Decode chat-embedded STL meshes, comparison galleries and transcripts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (default ~/.meshchat/config.json)")
}

func loadConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg = loaded

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: file logging disabled: %v\n", err)
	}
	return nil
}

func meshOptions(keepNormals bool) stl.Options {
	return stl.Options{
		TargetSize:        float32(cfg.Mesh.TargetSize),
		KeepParsedNormals: keepNormals || cfg.Mesh.KeepParsedNormals,
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func newFetcher() *stl.Fetcher {
	return &stl.Fetcher{
		Client:   newHTTPClient(),
		MaxBytes: cfg.Mesh.MaxDownloadBytes,
	}
}
