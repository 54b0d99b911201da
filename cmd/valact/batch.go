package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carractuarial/valact/internal/pricing"
)

var batchCmd = &cobra.Command{
	Use:   "batch [cases.yaml]",
	Short: "Solve premiums for every case in a YAML file",
	Long: `Solve premiums for every case in a YAML file, several at a time.

The file lists cases as:

  cases:
    - gender: M
      risk_class: NS
      issue_age: 35
      face_amount: 100000

Results are written tab-separated in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		cases, err := pricing.LoadCases(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		var opts []pricing.Option
		if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
			opts = append(opts, pricing.WithWorkers(n))
		}
		return withService(cmd.Context(), func(svc *pricing.Service) error {
			quotes, err := svc.SolveBatch(cmd.Context(), cases)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "gender\trisk_class\tissue_age\tface_amount\tpremium")
			for _, q := range quotes {
				writeQuote(w, q)
			}
			return nil
		}, opts...)
	},
}

func init() {
	batchCmd.Flags().Int("workers", 0, "concurrent solves (default: batch.workers from config)")
}
