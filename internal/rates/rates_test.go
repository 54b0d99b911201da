package rates

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is an in-memory Source for tests.
type memSource struct {
	unit     []IssueAgeRate
	coi      []CohortRate
	corridor []AttainedAgeRate
	err      error
}

func (m memSource) UnitLoads(context.Context) ([]IssueAgeRate, error) { return m.unit, m.err }
func (m memSource) COIRates(context.Context) ([]CohortRate, error)    { return m.coi, m.err }
func (m memSource) CorridorFactors(context.Context) ([]AttainedAgeRate, error) {
	return m.corridor, m.err
}

func sampleSource() memSource {
	return memSource{
		unit: []IssueAgeRate{
			{IssueAge: 35, Duration: 1, Rate: 0.5},
			{IssueAge: 35, Duration: 2, Rate: 0.4},
			{IssueAge: 36, Duration: 1, Rate: 9.9},
		},
		coi: []CohortRate{
			{Gender: "M", RiskClass: "NS", IssueAge: 35, Duration: 1, Rate: 1.2},
			{Gender: "M", RiskClass: "NS", IssueAge: 35, Duration: 3, Rate: 1.5},
			{Gender: "F", RiskClass: "NS", IssueAge: 35, Duration: 1, Rate: 7.7},
			{Gender: "M", RiskClass: "SM", IssueAge: 35, Duration: 1, Rate: 8.8},
		},
		corridor: []AttainedAgeRate{
			{AttainedAge: 34, Rate: 3.0},
			{AttainedAge: 35, Rate: 2.5},
			{AttainedAge: 40, Rate: 2.15},
		},
	}
}

func TestNewSeries(t *testing.T) {
	s := NewSeries(0.25)
	assert.Len(t, s, Length)
	for i, v := range s {
		assert.Equal(t, 0.25, v, "index %d", i)
	}
}

func TestBuild(t *testing.T) {
	cohort := Cohort{Gender: "M", RiskClass: "NS", IssueAge: 35}
	tbl, err := Build(context.Background(), sampleSource(), DefaultAssumptions(), cohort)
	require.NoError(t, err)

	assert.Equal(t, 0.06, tbl.PremiumLoads[0])
	assert.Equal(t, 0.06, tbl.PremiumLoads[Length-1])
	assert.Equal(t, 120.0, tbl.PolicyFees[60])
	assert.InDelta(t, math.Pow(1.01, -1/12.0), tbl.NAARDiscounts[10], 1e-15)
	assert.InDelta(t, math.Pow(1.03, 1/12.0)-1, tbl.InterestRates[10], 1e-15)

	assert.Equal(t, 0.5, tbl.UnitLoads[0])
	assert.Equal(t, 0.4, tbl.UnitLoads[1])
	assert.Equal(t, DefaultUnitLoad, tbl.UnitLoads[2])

	assert.Equal(t, 1.2, tbl.COIRates[0])
	assert.Equal(t, DefaultCOIRate, tbl.COIRates[1])
	assert.Equal(t, 1.5, tbl.COIRates[2])

	// attained age 34 precedes issue and is skipped
	assert.Equal(t, 2.5, tbl.CorridorFactors[0])
	assert.Equal(t, DefaultCorridorFactor, tbl.CorridorFactors[1])
	assert.Equal(t, 2.15, tbl.CorridorFactors[5])
}

func TestBuildAbsentCohortKeepsDefaults(t *testing.T) {
	cohort := Cohort{Gender: "X", RiskClass: "PREF", IssueAge: 80}
	tbl, err := Build(context.Background(), sampleSource(), DefaultAssumptions(), cohort)
	require.NoError(t, err)

	assert.Equal(t, NewSeries(DefaultUnitLoad), tbl.UnitLoads)
	assert.Equal(t, NewSeries(DefaultCOIRate), tbl.COIRates)
	assert.Equal(t, NewSeries(DefaultCorridorFactor), tbl.CorridorFactors)
}

func TestBuildSourceError(t *testing.T) {
	cause := errors.New("disk on fire")
	_, err := Build(context.Background(), memSource{err: cause}, DefaultAssumptions(), Cohort{IssueAge: 35})
	require.Error(t, err)

	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, SeriesUnitLoads, se.Series)
	assert.ErrorIs(t, err, cause)
}

func TestBuildInvalidAssumptions(t *testing.T) {
	// a source that fails proves the assumptions are checked first
	src := memSource{err: errors.New("should not be read")}
	cohort := Cohort{Gender: "M", RiskClass: "NS", IssueAge: 35}

	tests := []struct {
		name   string
		mutate func(*Assumptions)
	}{
		{"NaN interest", func(a *Assumptions) { a.InterestRate = math.NaN() }},
		{"infinite fee", func(a *Assumptions) { a.PolicyFee = math.Inf(1) }},
		{"NaN premium load", func(a *Assumptions) { a.PremiumLoad = math.NaN() }},
		{"full premium load", func(a *Assumptions) { a.PremiumLoad = 1 }},
		{"negative fee", func(a *Assumptions) { a.PolicyFee = -120 }},
		{"discount rate of -100%", func(a *Assumptions) { a.NAARDiscountRate = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAssumptions()
			tt.mutate(&a)
			tbl, err := Build(context.Background(), src, a, cohort)
			assert.ErrorIs(t, err, ErrInvalidAssumptions)
			assert.Nil(t, tbl)
			var se *SourceError
			assert.False(t, errors.As(err, &se))
		})
	}
	assert.NoError(t, DefaultAssumptions().Validate())
}

func TestBuildMalformedDuration(t *testing.T) {
	tests := []struct {
		name   string
		src    memSource
		series string
	}{
		{
			name:   "unit load duration zero",
			src:    memSource{unit: []IssueAgeRate{{IssueAge: 35, Duration: 0, Rate: 1}}},
			series: SeriesUnitLoads,
		},
		{
			name:   "coi duration past maturity",
			src:    memSource{coi: []CohortRate{{Gender: "M", RiskClass: "NS", IssueAge: 35, Duration: 122, Rate: 1}}},
			series: SeriesCOIRates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), tt.src, DefaultAssumptions(), Cohort{Gender: "M", RiskClass: "NS", IssueAge: 35})
			var se *SourceError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.series, se.Series)
			assert.ErrorIs(t, err, ErrMalformedRow)
		})
	}
}

func TestBuildIgnoresMalformedRowsOfOtherCohorts(t *testing.T) {
	src := memSource{unit: []IssueAgeRate{{IssueAge: 50, Duration: 0, Rate: 1}}}
	_, err := Build(context.Background(), src, DefaultAssumptions(), Cohort{IssueAge: 35})
	assert.NoError(t, err)
}

func TestFillByAttainedAgeBounds(t *testing.T) {
	rows := []AttainedAgeRate{
		{AttainedAge: 0, Rate: 4},
		{AttainedAge: 120, Rate: 1.01},
		{AttainedAge: 121, Rate: 1.02},
	}
	s := FillByAttainedAge(rows, 1, 0)
	assert.Equal(t, 4.0, s[0])
	assert.Equal(t, 1.01, s[120])

	s = FillByAttainedAge(rows, 1, 120)
	assert.Equal(t, 1.01, s[0])
	assert.Equal(t, 1.02, s[1])
}

func TestMonthlyConversions(t *testing.T) {
	m := MonthlyInterest(0.03)
	assert.InDelta(t, 1.03, math.Pow(1+m, 12), 1e-12)
	d := MonthlyDiscount(0.01)
	assert.InDelta(t, 1/1.01, math.Pow(d, 12), 1e-12)
}
