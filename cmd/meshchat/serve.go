package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"meshchat/pkg/history"
	"meshchat/pkg/server"
	"meshchat/pkg/viewer"

	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (extract, parse, stl-proxy, viewer, history)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}

		srv := server.Server{
			Activation:   viewer.NewActivation(),
			Fetcher:      newFetcher(),
			Options:      meshOptions(false),
			AllowHosts:   cfg.Server.AllowHosts,
			MaxBodyBytes: cfg.Mesh.MaxDownloadBytes,
		}
		if !serveNoHistory {
			store, err := history.Open(cfg.History.DBPath)
			if err != nil {
				slog.Warn("serve_history_unavailable", "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history disabled: %v\n", err)
			} else {
				defer store.Close()
				srv.History = store
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.ErrOrStderr(), "listening on http://%s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr from config)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not expose the history database")
	rootCmd.AddCommand(serveCmd)
}
