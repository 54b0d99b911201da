package main

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/carractuarial/valact/internal/pricing"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time repeated rate builds and solves (or projections)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := caseFromFlags(cmd)
		iter, _ := cmd.Flags().GetInt("iterations")
		mode, _ := cmd.Flags().GetString("mode")
		premium, _ := cmd.Flags().GetFloat64("premium")
		showMetrics, _ := cmd.Flags().GetBool("metrics")
		if iter < 1 {
			return fmt.Errorf("iterations must be positive, got %d", iter)
		}

		var run func(*pricing.Service) (float64, error)
		switch mode {
		case "solve":
			run = func(svc *pricing.Service) (float64, error) {
				q, err := svc.Solve(cmd.Context(), c)
				return q.Premium, err
			}
		case "project":
			run = func(svc *pricing.Service) (float64, error) {
				return svc.Project(cmd.Context(), c, premium)
			}
		default:
			return fmt.Errorf("unknown mode %q (solve or project)", mode)
		}

		reg := prometheus.NewRegistry()
		metrics := pricing.NewMetrics(reg)
		w := cmd.OutOrStdout()

		return withService(cmd.Context(), func(svc *pricing.Service) error {
			fmt.Fprintln(w, "Starting...")
			var result float64
			start := time.Now()
			for i := 0; i < iter; i++ {
				var err error
				if result, err = run(svc); err != nil {
					return err
				}
			}
			elapsed := time.Since(start)
			fmt.Fprintln(w, "Ending...")
			fmt.Fprintln(w, "Result", money(result))
			fmt.Fprintln(w, "Total time", elapsed)
			fmt.Fprintln(w, "Runs", iter)
			fmt.Fprintln(w, "Per iteration", elapsed/time.Duration(iter))

			if showMetrics {
				return writeMetrics(w, reg)
			}
			return nil
		}, pricing.WithMetrics(metrics))
	},
}

func init() {
	caseFlags(benchCmd)
	benchCmd.Flags().Int("iterations", 1000, "number of runs")
	benchCmd.Flags().String("mode", "solve", "what to time: solve or project")
	benchCmd.Flags().Float64("premium", 1255.03, "annual premium for project mode")
	benchCmd.Flags().Bool("metrics", false, "print collected solver metrics")
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%gs\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
