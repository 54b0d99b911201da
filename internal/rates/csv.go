package rates

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// File names read by CSVSource.
const (
	UnitLoadFile        = "unit_load.csv"
	COIFile             = "coi.csv"
	CorridorFactorsFile = "corridor_factors.csv"
)

// Column headers used in the rate files.
const (
	colIssueAge    = "Issue_Age"
	colPolicyYear  = "Policy_Year"
	colRate        = "Rate"
	colGender      = "Gender"
	colRiskClass   = "Risk_Class"
	colAttainedAge = "Attained_Age"
)

// CSVSource reads rate rows from the CSV files in Dir. Columns are located
// by header name, so column order in the files does not matter.
type CSVSource struct {
	Dir string
}

// NewCSVSource returns a source reading from dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) UnitLoads(ctx context.Context) ([]IssueAgeRate, error) {
	var rows []IssueAgeRate
	err := s.scan(ctx, UnitLoadFile, []string{colIssueAge, colPolicyYear, colRate}, func(rec record) error {
		age, err := rec.atoi(colIssueAge)
		if err != nil {
			return err
		}
		year, err := rec.atoi(colPolicyYear)
		if err != nil {
			return err
		}
		rate, err := rec.parseFloat(colRate)
		if err != nil {
			return err
		}
		rows = append(rows, IssueAgeRate{IssueAge: age, Duration: year, Rate: rate})
		return nil
	})
	return rows, err
}

func (s *CSVSource) COIRates(ctx context.Context) ([]CohortRate, error) {
	var rows []CohortRate
	cols := []string{colGender, colRiskClass, colIssueAge, colPolicyYear, colRate}
	err := s.scan(ctx, COIFile, cols, func(rec record) error {
		age, err := rec.atoi(colIssueAge)
		if err != nil {
			return err
		}
		year, err := rec.atoi(colPolicyYear)
		if err != nil {
			return err
		}
		rate, err := rec.parseFloat(colRate)
		if err != nil {
			return err
		}
		rows = append(rows, CohortRate{
			Gender:    rec.field(colGender),
			RiskClass: rec.field(colRiskClass),
			IssueAge:  age,
			Duration:  year,
			Rate:      rate,
		})
		return nil
	})
	return rows, err
}

func (s *CSVSource) CorridorFactors(ctx context.Context) ([]AttainedAgeRate, error) {
	var rows []AttainedAgeRate
	err := s.scan(ctx, CorridorFactorsFile, []string{colAttainedAge, colRate}, func(rec record) error {
		age, err := rec.atoi(colAttainedAge)
		if err != nil {
			return err
		}
		rate, err := rec.parseFloat(colRate)
		if err != nil {
			return err
		}
		rows = append(rows, AttainedAgeRate{AttainedAge: age, Rate: rate})
		return nil
	})
	return rows, err
}

// record is one data row with its header index.
type record struct {
	cols map[string]int
	row  []string
	line int
}

func (r record) field(col string) string { return r.row[r.cols[col]] }

func (r record) atoi(col string) (int, error) {
	v, err := strconv.Atoi(r.field(col))
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: %w", r.line, col, err)
	}
	return v, nil
}

func (r record) parseFloat(col string) (float64, error) {
	v, err := strconv.ParseFloat(r.field(col), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: %w", r.line, col, err)
	}
	return v, nil
}

// scan opens name, maps the required header columns and calls fn per row.
func (s *CSVSource) scan(ctx context.Context, name string, required []string, fn func(record) error) error {
	path := filepath.Join(s.Dir, name)
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%s: read header: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%s: %w: missing column %q", path, ErrMalformedRow, c)
		}
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := fn(record{cols: cols, row: row, line: line}); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
}
