// Package solver finds the level annual premium that keeps a policy in force
// to maturity.
package solver

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/carractuarial/valact/internal/projection"
	"github.com/carractuarial/valact/internal/rates"
)

// Tolerance is the bracket width at which bisection stops.
const Tolerance = 0.005

var cent = decimal.New(1, -2)

// Result is a solved premium together with the work it took.
type Result struct {
	Premium float64
	// Doublings is how many times the initial upper guess was doubled.
	Doublings int
	// Evaluations counts calls to projection.Project.
	Evaluations int
}

// SolvePremium returns the smallest annual premium, to the cent, for which
// the projected account value at maturity is non-negative.
func SolvePremium(t *rates.Table, issueAge int, faceAmount float64) float64 {
	return Solve(t, issueAge, faceAmount).Premium
}

// Solve is SolvePremium with search statistics. The table is only read, so
// concurrent calls may share it.
func Solve(t *rates.Table, issueAge int, faceAmount float64) Result {
	if !(faceAmount > 0) || math.IsInf(faceAmount, 1) {
		panic(fmt.Sprintf("solver: face amount %v must be positive and finite", faceAmount))
	}

	var res Result
	f := func(premium float64) float64 {
		res.Evaluations++
		return projection.Project(t, issueAge, faceAmount, premium)
	}

	lo := 0.0
	hi := faceAmount / 100
	mid := 0.0

	for f(hi) <= 0 {
		lo = hi
		hi *= 2
		res.Doublings++
	}

	for hi-lo > Tolerance {
		mid = (lo + hi) / 2
		if f(mid) <= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	// one cent is added at most once, even if still short
	premium := decimal.NewFromFloat(mid).Round(2)
	if f(premium.InexactFloat64()) <= 0 {
		premium = premium.Add(cent)
	}
	res.Premium = premium.InexactFloat64()
	return res
}
