package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/carractuarial/valact/internal/pricing"
	"github.com/carractuarial/valact/internal/projection"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project the account value at maturity for a given premium",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := caseFromFlags(cmd)
		premium, _ := cmd.Flags().GetFloat64("premium")
		return withService(cmd.Context(), func(svc *pricing.Service) error {
			v, err := svc.Project(cmd.Context(), c, premium)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), money(v))
			return nil
		})
	},
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve for the minimum level annual premium to maturity",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := caseFromFlags(cmd)
		return withService(cmd.Context(), func(svc *pricing.Service) error {
			q, err := svc.Solve(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), money(q.Premium))
			return nil
		})
	},
}

var illustrateCmd = &cobra.Command{
	Use:   "illustrate",
	Short: "Write the monthly illustration ledger as CSV",
	Long: `Write the monthly illustration ledger as CSV.

Without --premium the minimum premium is solved first and illustrated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := caseFromFlags(cmd)
		out, _ := cmd.Flags().GetString("out")
		return withService(cmd.Context(), func(svc *pricing.Service) error {
			premium, _ := cmd.Flags().GetFloat64("premium")
			if !cmd.Flags().Changed("premium") {
				q, err := svc.Solve(cmd.Context(), c)
				if err != nil {
					return err
				}
				premium = q.Premium
			}

			ledger, err := svc.Illustrate(cmd.Context(), c, premium)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeLedger(w, ledger); err != nil {
				return fmt.Errorf("write ledger: %w", err)
			}
			if m := ledger.LapseMonth(); m > 0 {
				logger.Warn("policy lapses before maturity", "month", m, "premium", money(premium))
			}
			return nil
		})
	},
}

func init() {
	caseFlags(projectCmd)
	projectCmd.Flags().Float64("premium", 0, "level annual premium")
	_ = projectCmd.MarkFlagRequired("premium")

	caseFlags(solveCmd)

	caseFlags(illustrateCmd)
	illustrateCmd.Flags().Float64("premium", 0, "level annual premium (default: solved minimum)")
	illustrateCmd.Flags().String("out", "", "write CSV to this file instead of stdout")
}

var ledgerHeader = []string{
	"Policy_Month", "Policy_Year", "Month_In_Policy_Year", "Value_Start", "Premium",
	"Premium_Load", "Expense_Charge", "Value_For_DB", "Death_Benefit", "NAAR",
	"COI_Charge", "Interest", "Value_End",
}

func writeLedger(w io.Writer, ledger projection.Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, m := range ledger {
		row := []string{
			strconv.Itoa(m.PolicyMonth), strconv.Itoa(m.PolicyYear), strconv.Itoa(m.MonthInYear),
			f(m.StartValue), f(m.Premium), f(m.PremiumLoad), f(m.ExpenseCharge),
			f(m.ValueForDeathBenefit), f(m.DeathBenefit), f(m.NAAR), f(m.COICharge),
			f(m.Interest), f(m.EndValue),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
