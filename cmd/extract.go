package cmd

import (
	"fmt"
	"io"

	"contractabi/internal/application/dto"
	"contractabi/internal/config"
	"contractabi/internal/port/outbound"

	"github.com/spf13/cobra"
)

// extractFlags holds the extract command flags.
type extractFlags struct {
	file      string
	out       string
	format    string
	strict    bool
	selectors bool
	store     bool
	publish   bool
	quiet     bool
}

// newExtractCmd creates and returns the extract command.
func newExtractCmd() *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the ABI of one contract source",
		Long: `Extract the ABI of one contract source and write it as JSON or YAML.

The source is read from --file ("-" reads standard input). The ABI is written to
--out, or to standard output when --out is empty or "-". A report of private and
skipped declarations is printed to standard error.

Malformed declarations are skipped and reported; with --strict any skipped
declaration fails the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", outbound.StdinSourceName, "contract source file, - for stdin")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output file (default: output.path or stdout)")
	cmd.Flags().StringVar(&flags.format, "format", "", "output format: json or yaml (default: output.format)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail if any declaration is skipped")
	cmd.Flags().BoolVar(&flags.selectors, "selectors", false, "include Keccak-256 function selectors")
	cmd.Flags().BoolVar(&flags.store, "store", false, "store the ABI in PostgreSQL")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "publish an ABI extracted event to NATS")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "do not print the extraction report")
	return cmd
}

func runExtract(cmd *cobra.Command, flags extractFlags) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	a, err := newApp(ctx, cfg, appOptions{
		store:   flags.store,
		publish: flags.publish,
		format:  flags.format,
		stdin:   cmd.InOrStdin(),
		stdout:  cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	options := extractOptionsFromFlags(cmd, flags.strict, flags.selectors, flags.store, flags.publish)
	resp, err := a.extraction.ExtractSource(ctx, flags.file, options)
	if err != nil {
		return err
	}

	sink, err := a.sinks.Open(outputDestination(flags.out, cfg))
	if err != nil {
		return err
	}
	if err := sink.WriteABI(ctx, resp.Functions); err != nil {
		return fmt.Errorf("write ABI: %w", err)
	}

	if !flags.quiet {
		writeReport(cmd.ErrOrStderr(), resp)
	}
	return nil
}

func outputDestination(out string, cfg *config.Config) string {
	if out != "" {
		return out
	}
	return cfg.Output.Path
}

// writeReport prints the extraction summary followed by one line per private
// function and per skipped declaration.
func writeReport(w io.Writer, resp *dto.ABIResponse) {
	fmt.Fprintf(w, "%s: %s\n", resp.SourceName, resp.Report.Summary)
	for _, name := range resp.Report.Private {
		fmt.Fprintf(w, "  private  %s\n", name)
	}
	for _, skipped := range resp.Report.Skipped {
		fmt.Fprintf(w, "  skipped  %s\n", skipped.Error())
	}
	if resp.Digest != "" {
		fmt.Fprintf(w, "  digest   %s\n", resp.Digest)
	}
	if resp.Stored {
		fmt.Fprintf(w, "  stored   %s\n", resp.ID)
	}
	if resp.Published {
		fmt.Fprintf(w, "  published\n")
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newExtractCmd())
}
