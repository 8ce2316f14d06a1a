package cmd

import (
	"fmt"
	"io"

	"contractabi/internal/application/dto"

	"github.com/spf13/cobra"
)

// batchFlags holds the batch command flags.
type batchFlags struct {
	outDir      string
	pattern     string
	format      string
	concurrency int
	strict      bool
	selectors   bool
	store       bool
	publish     bool
}

// newBatchCmd creates and returns the batch command.
func newBatchCmd() *cobra.Command {
	var flags batchFlags

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Extract the ABIs of every contract under a directory",
		Long: `Extract the ABIs of every contract source under a directory concurrently.

Each source matching --pattern gets its own ABI file, written next to the source
or under --out-dir mirroring the directory layout. A failing source is reported
and does not stop the others; the command fails if any source failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.outDir, "out-dir", "", "output directory (default: next to each source)")
	cmd.Flags().StringVar(&flags.pattern, "pattern", "", "source file pattern (default: batch.pattern)")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: json or yaml (default: output.format)")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "c", 0, "sources extracted in parallel (default: batch.concurrency)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail a source if any declaration is skipped")
	cmd.Flags().BoolVar(&flags.selectors, "selectors", false, "include Keccak-256 function selectors")
	cmd.Flags().BoolVar(&flags.store, "store", false, "store each ABI in PostgreSQL")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "publish an ABI extracted event per source")
	return cmd
}

func runBatch(cmd *cobra.Command, root string, flags batchFlags) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, GetConfig(), appOptions{
		store:   flags.store,
		publish: flags.publish,
		format:  flags.format,
		stdout:  cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	resp, err := a.batch.ExtractAll(ctx, dto.BatchExtractRequest{
		Root:        root,
		Pattern:     flags.pattern,
		OutDir:      flags.outDir,
		Concurrency: flags.concurrency,
		Options:     extractOptionsFromFlags(cmd, flags.strict, flags.selectors, flags.store, flags.publish),
	})
	if err != nil {
		return err
	}

	writeBatchReport(cmd.ErrOrStderr(), resp)
	if resp.Failed > 0 {
		return fmt.Errorf("%d of %d sources failed", resp.Failed, len(resp.Items))
	}
	return nil
}

// extractOptionsFromFlags leaves strict and selectors unset unless given on
// the command line, so configuration decides.
func extractOptionsFromFlags(cmd *cobra.Command, strict, selectors, store, publish bool) dto.ExtractOptions {
	options := dto.ExtractOptions{Store: store, Publish: publish}
	if cmd.Flags().Changed("strict") {
		options.Strict = &strict
	}
	if cmd.Flags().Changed("selectors") {
		options.IncludeSelectors = &selectors
	}
	return options
}

func writeBatchReport(w io.Writer, resp *dto.BatchExtractResponse) {
	for _, item := range resp.Items {
		if item.Error != "" {
			fmt.Fprintf(w, "%s: failed: %s\n", item.SourceName, item.Error)
			continue
		}
		writeReport(w, item.ABI)
	}
	fmt.Fprintf(w, "%d sources, %d succeeded, %d failed, %d functions extracted, %d skipped due to parse errors\n",
		len(resp.Items), resp.Succeeded, resp.Failed, resp.FunctionCount, resp.SkippedCount)
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newBatchCmd())
}
