// Package rates assembles the per-duration rate tables that drive a
// universal-life projection.
//
// A Table is built once per cohort (gender, risk class, issue age) and is
// read-only afterwards, so a single *Table may be shared by any number of
// concurrent projections.
package rates

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Length is the number of entries in every Series: policy durations 1..121
// (or attained-age offsets 0..120 from issue age).
const Length = 121

// Series holds one rate per policy duration; duration 1 is index 0.
type Series [Length]float64

// NewSeries returns a Series with every entry set to fill.
func NewSeries(fill float64) Series {
	var s Series
	for i := range s {
		s[i] = fill
	}
	return s
}

// Table is the complete set of rates used by one projection.
type Table struct {
	PremiumLoads    Series
	PolicyFees      Series
	UnitLoads       Series
	CorridorFactors Series
	NAARDiscounts   Series
	COIRates        Series
	InterestRates   Series
}

// Names of the data-driven series, as reported in SourceError.
const (
	SeriesUnitLoads       = "unit_loads"
	SeriesCorridorFactors = "corr_facts"
	SeriesCOIRates        = "coi_rates"
)

// Defaults for data-driven series when no row matches a duration.
const (
	DefaultUnitLoad       = 0.0
	DefaultCOIRate        = 0.0
	DefaultCorridorFactor = 1.0
)

// Cohort identifies the insured characteristics a table is built for.
type Cohort struct {
	Gender    string
	RiskClass string
	IssueAge  int
}

func (c Cohort) String() string {
	return fmt.Sprintf("%s/%s/%d", c.Gender, c.RiskClass, c.IssueAge)
}

// Assumptions are the product-level scalar rates broadcast across all
// durations. Rates are annual; Build converts them to monthly factors.
type Assumptions struct {
	PremiumLoad      float64
	PolicyFee        float64
	NAARDiscountRate float64
	InterestRate     float64
}

// DefaultAssumptions returns the product's standard scalar rates.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		PremiumLoad:      0.06,
		PolicyFee:        120,
		NAARDiscountRate: 0.01,
		InterestRate:     0.03,
	}
}

// ErrInvalidAssumptions is wrapped by every Assumptions validation failure.
var ErrInvalidAssumptions = errors.New("invalid assumptions")

// Validate rejects assumptions that would make every projection NaN or
// meaningless. All values must be finite.
func (a Assumptions) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"premium load", a.PremiumLoad},
		{"policy fee", a.PolicyFee},
		{"NAAR discount rate", a.NAARDiscountRate},
		{"interest rate", a.InterestRate},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s %v is not finite", ErrInvalidAssumptions, f.name, f.v)
		}
	}
	switch {
	case a.PremiumLoad < 0 || a.PremiumLoad >= 1:
		return fmt.Errorf("%w: premium load %v outside [0, 1)", ErrInvalidAssumptions, a.PremiumLoad)
	case a.PolicyFee < 0:
		return fmt.Errorf("%w: policy fee %v is negative", ErrInvalidAssumptions, a.PolicyFee)
	case a.NAARDiscountRate <= -1:
		return fmt.Errorf("%w: NAAR discount rate %v must exceed -1", ErrInvalidAssumptions, a.NAARDiscountRate)
	case a.InterestRate <= -1:
		return fmt.Errorf("%w: interest rate %v must exceed -1", ErrInvalidAssumptions, a.InterestRate)
	}
	return nil
}

// MonthlyInterest converts an annual effective rate to its monthly equivalent.
func MonthlyInterest(annual float64) float64 {
	return math.Pow(1+annual, 1/12.0) - 1
}

// MonthlyDiscount is the one-month discount factor at an annual effective rate.
func MonthlyDiscount(annual float64) float64 {
	return math.Pow(1+annual, -1/12.0)
}

// ErrMalformedRow reports a row that cannot be placed in a Series.
var ErrMalformedRow = errors.New("malformed rate row")

// SourceError is returned by Build when a series could not be read from its
// Source. Err is the underlying cause.
type SourceError struct {
	Series string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("rates: load %s: %v", e.Series, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Build assembles the rate table for cohort. Assumptions failing Validate
// are rejected before src is read. Any failure reading src is returned as a
// *SourceError; no partial table is ever returned.
func Build(ctx context.Context, src Source, a Assumptions, c Cohort) (*Table, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	t := &Table{
		PremiumLoads:  NewSeries(a.PremiumLoad),
		PolicyFees:    NewSeries(a.PolicyFee),
		NAARDiscounts: NewSeries(MonthlyDiscount(a.NAARDiscountRate)),
		InterestRates: NewSeries(MonthlyInterest(a.InterestRate)),
	}

	unitRows, err := src.UnitLoads(ctx)
	if err != nil {
		return nil, &SourceError{Series: SeriesUnitLoads, Err: err}
	}
	if t.UnitLoads, err = FillByDuration(unitRows, DefaultUnitLoad, c.IssueAge); err != nil {
		return nil, &SourceError{Series: SeriesUnitLoads, Err: err}
	}

	coiRows, err := src.COIRates(ctx)
	if err != nil {
		return nil, &SourceError{Series: SeriesCOIRates, Err: err}
	}
	if t.COIRates, err = FillByCohort(coiRows, DefaultCOIRate, c); err != nil {
		return nil, &SourceError{Series: SeriesCOIRates, Err: err}
	}

	corridorRows, err := src.CorridorFactors(ctx)
	if err != nil {
		return nil, &SourceError{Series: SeriesCorridorFactors, Err: err}
	}
	t.CorridorFactors = FillByAttainedAge(corridorRows, DefaultCorridorFactor, c.IssueAge)

	return t, nil
}
