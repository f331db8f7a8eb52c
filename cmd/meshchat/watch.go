package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meshchat/pkg/stl"
	"meshchat/pkg/watch"

	"github.com/spf13/cobra"
)

var (
	watchKeepNormals bool
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-decode an STL file and print its stats every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opts := meshOptions(watchKeepNormals)
		out := cmd.OutOrStdout()

		report := func(p stl.Prepared, err error) {
			stamp := time.Now().Format(time.TimeOnly)
			if err != nil {
				fmt.Fprintf(out, "[%s] %s: %v\n", stamp, path, err)
				return
			}
			size := p.Bounds.Size()
			fmt.Fprintf(out, "[%s] %s: %d triangles, size %g x %g x %g, scale %g\n",
				stamp, path, p.Geometry.TriangleCount(), size[0], size[1], size[2], p.Scale)
		}

		report(watch.Load(path, opts))

		w, err := watch.New(path, report)
		if err != nil {
			return err
		}
		w.Options = opts
		if watchDebounce > 0 {
			w.Debounce = watchDebounce
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()

		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (ctrl+c to stop)\n", path)
		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchKeepNormals, "keep-normals", false, "Keep parsed normals instead of recomputing them")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before reloading")
	rootCmd.AddCommand(watchCmd)
}
