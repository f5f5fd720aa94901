package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeebo/racer/internal/stress"
)

// NewStressCmd returns the stress command.
func NewStressCmd() *cobra.Command {
	opts := stress.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Repeatedly check the primitives under concurrency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checks, err := stress.Select(stress.Checks(), opts.Only)
			if err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}

			results, err := stress.Run(cmd.Context(), checks, opts)
			for _, res := range results {
				status := "ok"
				if res.Failures > 0 {
					status = "FAIL"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-4s rounds=%d failures=%d elapsed=%s\n",
					res.Name, status, res.Rounds, res.Failures, res.Elapsed)
			}
			if err != nil {
				return fmt.Errorf("stress failed: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Rounds, "rounds", opts.Rounds, "Number of times to run each check")
	cmd.Flags().IntVar(&opts.Threads, "threads", opts.Threads, "Number of threads each check starts")
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "Only run the named checks")

	return cmd
}
