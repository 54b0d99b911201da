// valact prices universal-life policies: it projects account values month
// by month and solves for the level premium that carries a policy to maturity.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/carractuarial/valact/internal/config"
	"github.com/carractuarial/valact/internal/logging"
	"github.com/carractuarial/valact/internal/pricing"
	"github.com/carractuarial/valact/internal/rates"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "valact",
	Short:         "Universal-life projection and premium solver",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger, err = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/valact.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(illustrateCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(importCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "valact %s (%s)\n", version, commit)
	},
}

// openSource returns the configured rate source and a function releasing it.
func openSource(ctx context.Context) (rates.Source, func() error, error) {
	switch cfg.Data.Source {
	case config.SourceSQLite:
		s, err := rates.OpenSQLite(ctx, cfg.Data.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return rates.NewCSVSource(cfg.Data.Dir), func() error { return nil }, nil
	}
}

// withService runs fn against a pricing service over the configured source.
func withService(ctx context.Context, fn func(*pricing.Service) error, opts ...pricing.Option) error {
	src, closeSrc, err := openSource(ctx)
	if err != nil {
		return err
	}
	defer closeSrc()

	opts = append([]pricing.Option{
		pricing.WithLogger(logger),
		pricing.WithWorkers(cfg.Batch.Workers),
	}, opts...)
	return fn(pricing.New(src, cfg.Assumptions.Rates(), opts...))
}

// caseFlags registers the flags that describe a single policy.
func caseFlags(cmd *cobra.Command) {
	cmd.Flags().String("gender", "M", "insured gender")
	cmd.Flags().String("risk-class", "NS", "insured risk class")
	cmd.Flags().Int("issue-age", 35, "issue age")
	cmd.Flags().Float64("face", 100000, "face amount")
}

func caseFromFlags(cmd *cobra.Command) pricing.Case {
	gender, _ := cmd.Flags().GetString("gender")
	class, _ := cmd.Flags().GetString("risk-class")
	age, _ := cmd.Flags().GetInt("issue-age")
	face, _ := cmd.Flags().GetFloat64("face")
	return pricing.Case{Gender: gender, RiskClass: class, IssueAge: age, FaceAmount: face}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func writeQuote(w io.Writer, q pricing.Quote) {
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
		q.Case.Gender, q.Case.RiskClass, q.Case.IssueAge, money(q.Case.FaceAmount), money(q.Premium))
}
