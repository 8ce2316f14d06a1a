package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"contractabi/internal/adapter/inbound/watcher"
	"contractabi/internal/application/common/slogger"
	"contractabi/internal/application/dto"

	"github.com/spf13/cobra"
)

// watchFlags holds the watch command flags.
type watchFlags struct {
	outDir    string
	pattern   string
	format    string
	strict    bool
	selectors bool
	store     bool
	publish   bool
}

// newWatchCmd creates and returns the watch command.
func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Re-extract ABIs whenever contract sources change",
		Long: `Watch a contract source file or directory tree and re-extract the ABI of every
changed source. Changes are debounced (watch.debounce) so an editor save that
touches a file several times triggers one extraction.

All matching sources are extracted once at startup. The command runs until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.outDir, "out-dir", "", "output directory (default: next to each source)")
	cmd.Flags().StringVar(&flags.pattern, "pattern", "", "source file pattern (default: batch.pattern)")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: json or yaml (default: output.format)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail a source if any declaration is skipped")
	cmd.Flags().BoolVar(&flags.selectors, "selectors", false, "include Keccak-256 function selectors")
	cmd.Flags().BoolVar(&flags.store, "store", false, "store each ABI in PostgreSQL")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "publish an ABI extracted event per extraction")
	return cmd
}

func runWatch(cmd *cobra.Command, target string, flags watchFlags) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	root, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}
	pattern := flags.pattern
	if pattern == "" {
		pattern = cfg.Batch.Pattern
	}

	a, err := newApp(ctx, cfg, appOptions{
		store:   flags.store,
		publish: flags.publish,
		format:  flags.format,
		stdout:  cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	a.serveMetrics(ctx, cfg.Metrics.Addr, nil)

	request := dto.BatchExtractRequest{
		Root:    root,
		Pattern: pattern,
		OutDir:  flags.outDir,
		Options: extractOptionsFromFlags(cmd, flags.strict, flags.selectors, flags.store, flags.publish),
	}
	stderr := cmd.ErrOrStderr()

	initial, err := a.batch.ExtractAll(ctx, request)
	if err != nil {
		return err
	}
	writeBatchReport(stderr, initial)

	w, err := watcher.NewSourceWatcher(watcher.Config{
		Target:   root,
		Pattern:  pattern,
		Debounce: cfg.Watch.Debounce,
	}, func(ctx context.Context, paths []string) {
		resp, err := a.batch.ExtractFiles(ctx, request, paths)
		if err != nil {
			slogger.ErrorWithError(ctx, err, "Re-extraction failed", slogger.Fields{"paths": paths})
			return
		}
		writeBatchReport(stderr, resp)
	})
	if err != nil {
		return err
	}

	return w.Run(ctx)
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newWatchCmd())
}
