package solver

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carractuarial/valact/internal/projection"
	"github.com/carractuarial/valact/internal/rates"
)

// productTable is the standard product: 6% premium load, 120 annual fee,
// 1% NAAR discount and 3% credited interest.
func productTable(coi float64) *rates.Table {
	return &rates.Table{
		PremiumLoads:    rates.NewSeries(0.06),
		PolicyFees:      rates.NewSeries(120),
		UnitLoads:       rates.NewSeries(0),
		CorridorFactors: rates.NewSeries(1),
		NAARDiscounts:   rates.NewSeries(math.Pow(1.01, -1/12.0)),
		COIRates:        rates.NewSeries(coi),
		InterestRates:   rates.NewSeries(math.Pow(1.03, 1/12.0) - 1),
	}
}

func gradedTable() *rates.Table {
	t := productTable(0)
	for i := range t.COIRates {
		t.COIRates[i] = 0.4 + 0.25*float64(i)
	}
	return t
}

// assertMinimal checks the premium funds the policy and one cent less does not.
func assertMinimal(t *testing.T, tbl *rates.Table, age int, face, premium float64) {
	t.Helper()
	assert.GreaterOrEqual(t, projection.Project(tbl, age, face, premium), 0.0,
		"premium %.2f should fund age %d face %.0f", premium, age, face)
	assert.Less(t, projection.Project(tbl, age, face, premium-0.01), 0.0,
		"premium %.2f less a cent should not fund age %d face %.0f", premium, age, face)
	assert.InDelta(t, math.Round(premium*100)/100, premium, 1e-9, "premium is whole cents")
}

func TestSolveNoMortality(t *testing.T) {
	tbl := productTable(0)
	res := Solve(tbl, 35, 100000)

	// the fee alone, less what the load and interest allow
	assert.Equal(t, 125.95, res.Premium)
	assert.Equal(t, 0, res.Doublings)
	// one bracket check, 18 halvings of 1000 down to 0.005, one cent check
	assert.Equal(t, 20, res.Evaluations)
	assertMinimal(t, tbl, 35, 100000, res.Premium)
}

func TestSolveDeterministic(t *testing.T) {
	tbl := gradedTable()
	first := Solve(tbl, 35, 100000)
	second := Solve(tbl, 35, 100000)
	assert.Equal(t, first, second)
}

func TestSolveBrackets(t *testing.T) {
	// 50 per thousand a year outruns an initial guess of 1% of face
	tbl := productTable(50)
	res := Solve(tbl, 35, 100000)

	assert.Greater(t, res.Doublings, 0)
	assert.Greater(t, res.Premium, 1000.0)
	assert.Greater(t, res.Evaluations, res.Doublings+2)
	assertMinimal(t, tbl, 35, 100000, res.Premium)
}

func TestSolveProperties(t *testing.T) {
	tbl := gradedTable()
	cases := []struct {
		age  int
		face float64
	}{
		{0, 50000},
		{25, 100000},
		{35, 100000},
		{55, 250000},
		{75, 1000000},
		{100, 25000},
		{120, 100000},
	}

	for _, c := range cases {
		premium := SolvePremium(tbl, c.age, c.face)
		assertMinimal(t, tbl, c.age, c.face, premium)
	}
}

func TestSolveLastYear(t *testing.T) {
	tbl := productTable(0)
	res := Solve(tbl, projection.MaturityAge-1, 100000)
	require.Greater(t, res.Premium, 0.0)
	assertMinimal(t, tbl, projection.MaturityAge-1, 100000, res.Premium)
}

func TestSolveConcurrentSharedTable(t *testing.T) {
	tbl := gradedTable()
	ages := []int{20, 30, 40, 50, 60, 70, 80, 90}

	want := make([]float64, len(ages))
	for i, age := range ages {
		want[i] = SolvePremium(tbl, age, 100000)
	}

	got := make([]float64, len(ages))
	var wg sync.WaitGroup
	for i, age := range ages {
		i, age := i, age
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = SolvePremium(tbl, age, 100000)
		}()
	}
	wg.Wait()

	assert.Equal(t, want, got)
}

func TestSolvePreconditions(t *testing.T) {
	tbl := productTable(0)
	assert.Panics(t, func() { Solve(tbl, 35, 0) })
	assert.Panics(t, func() { Solve(tbl, 35, -100) })
	assert.Panics(t, func() { Solve(tbl, 35, math.Inf(1)) })
	assert.Panics(t, func() { Solve(tbl, 35, math.NaN()) })
	assert.Panics(t, func() { Solve(tbl, projection.MaturityAge, 100000) })
}

func BenchmarkSolve(b *testing.B) {
	tbl := gradedTable()
	for i := 0; i < b.N; i++ {
		SolvePremium(tbl, 35, 100000)
	}
}
