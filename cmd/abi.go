package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"contractabi/internal/application/dto"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newABICmd creates the abi command group for stored ABIs.
func newABICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abi",
		Short: "Inspect ABIs stored in PostgreSQL",
	}
	cmd.AddCommand(newABIGetCmd(), newABIListCmd())
	return cmd
}

func newABIGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored ABI as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid ABI id %q: %w", args[0], err)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, GetConfig(), appOptions{store: true})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			resp, err := a.extraction.GetABI(ctx, id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newABIListCmd() *cobra.Command {
	query := dto.DefaultABIListQuery()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored ABIs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, GetConfig(), appOptions{store: true})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			resp, err := a.extraction.ListABIs(ctx, query)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&query.SourceName, "source", "", "only ABIs extracted from this source name")
	cmd.Flags().IntVar(&query.Limit, "limit", query.Limit, "page size")
	cmd.Flags().IntVar(&query.Offset, "offset", 0, "page offset")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newABICmd())
}
