package rates

import (
	"context"
	"fmt"
)

// IssueAgeRate is a rate keyed by issue age and policy duration.
type IssueAgeRate struct {
	IssueAge int
	Duration int
	Rate     float64
}

// CohortRate is a rate keyed by gender, risk class, issue age and duration.
type CohortRate struct {
	Gender    string
	RiskClass string
	IssueAge  int
	Duration  int
	Rate      float64
}

// AttainedAgeRate is a rate keyed by attained age only.
type AttainedAgeRate struct {
	AttainedAge int
	Rate        float64
}

// Source supplies the raw rows behind the data-driven series. Implementations
// return every row they hold; filtering by cohort happens in Build.
type Source interface {
	UnitLoads(ctx context.Context) ([]IssueAgeRate, error)
	COIRates(ctx context.Context) ([]CohortRate, error)
	CorridorFactors(ctx context.Context) ([]AttainedAgeRate, error)
}

// FillByDuration places the rate of every row issued at issueAge at index
// duration-1. Durations with no row keep def.
func FillByDuration(rows []IssueAgeRate, def float64, issueAge int) (Series, error) {
	s := NewSeries(def)
	for _, r := range rows {
		if r.IssueAge != issueAge {
			continue
		}
		if err := checkDuration(r.Duration); err != nil {
			return Series{}, err
		}
		s[r.Duration-1] = r.Rate
	}
	return s, nil
}

// FillByCohort is FillByDuration with an additional exact match on gender and
// risk class.
func FillByCohort(rows []CohortRate, def float64, c Cohort) (Series, error) {
	s := NewSeries(def)
	for _, r := range rows {
		if r.IssueAge != c.IssueAge || r.Gender != c.Gender || r.RiskClass != c.RiskClass {
			continue
		}
		if err := checkDuration(r.Duration); err != nil {
			return Series{}, err
		}
		s[r.Duration-1] = r.Rate
	}
	return s, nil
}

// FillByAttainedAge places each row at index attained_age-issueAge. Rows
// before issue age, and rows past maturity, are skipped.
func FillByAttainedAge(rows []AttainedAgeRate, def float64, issueAge int) Series {
	s := NewSeries(def)
	for _, r := range rows {
		idx := r.AttainedAge - issueAge
		if idx < 0 || idx >= Length {
			continue
		}
		s[idx] = r.Rate
	}
	return s
}

func checkDuration(d int) error {
	if d < 1 || d > Length {
		return fmt.Errorf("%w: duration %d outside 1..%d", ErrMalformedRow, d, Length)
	}
	return nil
}
