// Package projection rolls a universal-life account value forward month by
// month from issue to maturity.
package projection

import (
	"fmt"

	"github.com/carractuarial/valact/internal/rates"
)

// MaturityAge is the attained age at which every projection ends.
const MaturityAge = 121

// Months returns the number of monthly steps from issueAge to maturity.
func Months(issueAge int) int {
	return 12 * (MaturityAge - issueAge)
}

// Month is one row of an illustration.
type Month struct {
	PolicyMonth          int
	PolicyYear           int
	MonthInYear          int
	StartValue           float64
	Premium              float64
	PremiumLoad          float64
	ExpenseCharge        float64
	ValueForDeathBenefit float64
	DeathBenefit         float64
	NAAR                 float64
	COICharge            float64
	Interest             float64
	EndValue             float64
}

// Ledger is a full month-by-month illustration.
type Ledger []Month

// EndValue is the account value after the final month.
func (l Ledger) EndValue() float64 {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].EndValue
}

// LapseMonth returns the first policy month ending with a negative account
// value, or 0 if the policy stays in force to maturity.
func (l Ledger) LapseMonth() int {
	for _, m := range l {
		if m.EndValue < 0 {
			return m.PolicyMonth
		}
	}
	return 0
}

// Project returns the account value at maturity for a level annual premium
// paid at the start of every policy year. It panics if issueAge is outside
// [0, MaturityAge) or t is nil.
func Project(t *rates.Table, issueAge int, faceAmount, annualPremium float64) float64 {
	checkPreconditions(t, issueAge)

	var m Month
	endValue := 0.0
	policyYear := 0
	for i := 0; i < Months(issueAge); i++ {
		if i%12 == 0 {
			policyYear++
		}
		step(&m, t, i, policyYear, endValue, faceAmount, annualPremium)
		endValue = m.EndValue
	}
	return endValue
}

// Illustrate runs the same projection as Project and records every month.
// The ledger runs to maturity even after a lapse; see Ledger.LapseMonth.
func Illustrate(t *rates.Table, issueAge int, faceAmount, annualPremium float64) Ledger {
	checkPreconditions(t, issueAge)

	ledger := make(Ledger, Months(issueAge))
	endValue := 0.0
	policyYear := 0
	for i := range ledger {
		if i%12 == 0 {
			policyYear++
		}
		step(&ledger[i], t, i, policyYear, endValue, faceAmount, annualPremium)
		endValue = ledger[i].EndValue
	}
	return ledger
}

// step computes month i (0-based) of policyYear (1-based) into m.
func step(m *Month, t *rates.Table, i, policyYear int, startValue, faceAmount, annualPremium float64) {
	d := policyYear - 1

	premium := 0.0
	if i%12 == 0 {
		premium = annualPremium
	}
	premiumLoad := premium * t.PremiumLoads[d]
	expenseCharge := (t.PolicyFees[d] + t.UnitLoads[d]*faceAmount/1000) / 12
	avForDB := startValue + premium - premiumLoad - expenseCharge
	db := max(faceAmount, t.CorridorFactors[d]*avForDB)
	naar := max(0, db*t.NAARDiscounts[d]-max(0, avForDB))
	coi := (naar / 1000) * (t.COIRates[d] / 12)
	avForInterest := avForDB - coi
	interest := max(0, avForInterest*t.InterestRates[d])

	*m = Month{
		PolicyMonth:          i + 1,
		PolicyYear:           policyYear,
		MonthInYear:          i%12 + 1,
		StartValue:           startValue,
		Premium:              premium,
		PremiumLoad:          premiumLoad,
		ExpenseCharge:        expenseCharge,
		ValueForDeathBenefit: avForDB,
		DeathBenefit:         db,
		NAAR:                 naar,
		COICharge:            coi,
		Interest:             interest,
		EndValue:             avForInterest + interest,
	}
}

func checkPreconditions(t *rates.Table, issueAge int) {
	if t == nil {
		panic("projection: nil rate table")
	}
	if issueAge < 0 || issueAge >= MaturityAge {
		panic(fmt.Sprintf("projection: issue age %d outside [0, %d)", issueAge, MaturityAge))
	}
}
