package pricing

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/carractuarial/valact/internal/projection"
	"github.com/carractuarial/valact/internal/rates"
)

// ErrInvalidCase is wrapped by every Case validation failure.
var ErrInvalidCase = errors.New("invalid case")

// Case is one policy to price.
type Case struct {
	Gender     string  `yaml:"gender"`
	RiskClass  string  `yaml:"risk_class"`
	IssueAge   int     `yaml:"issue_age"`
	FaceAmount float64 `yaml:"face_amount"`
}

// Cohort is the rate-table key of c.
func (c Case) Cohort() rates.Cohort {
	return rates.Cohort{Gender: c.Gender, RiskClass: c.RiskClass, IssueAge: c.IssueAge}
}

// Validate rejects cases the engine cannot project.
func (c Case) Validate() error {
	switch {
	case c.Gender == "":
		return fmt.Errorf("%w: gender is required", ErrInvalidCase)
	case c.RiskClass == "":
		return fmt.Errorf("%w: risk class is required", ErrInvalidCase)
	case c.IssueAge < 0 || c.IssueAge >= projection.MaturityAge:
		return fmt.Errorf("%w: issue age %d outside 0..%d", ErrInvalidCase, c.IssueAge, projection.MaturityAge-1)
	case !(c.FaceAmount > 0) || math.IsInf(c.FaceAmount, 1):
		return fmt.Errorf("%w: face amount %v must be positive and finite", ErrInvalidCase, c.FaceAmount)
	}
	return nil
}

func (c Case) String() string {
	return fmt.Sprintf("%s/%s age %d face %.0f", c.Gender, c.RiskClass, c.IssueAge, c.FaceAmount)
}

// caseFile is the YAML layout read by LoadCases.
type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases decodes a YAML document of the form
//
//	cases:
//	  - gender: M
//	    risk_class: NS
//	    issue_age: 35
//	    face_amount: 100000
//
// and validates every case.
func LoadCases(r io.Reader) ([]Case, error) {
	var f caseFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	for i, c := range f.Cases {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("case %d: %w", i+1, err)
		}
	}
	return f.Cases, nil
}
