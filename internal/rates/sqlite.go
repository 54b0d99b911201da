package rates

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS unit_loads (
    issue_age   INTEGER NOT NULL,
    policy_year INTEGER NOT NULL,
    rate        REAL    NOT NULL,
    PRIMARY KEY (issue_age, policy_year)
);
CREATE TABLE IF NOT EXISTS coi_rates (
    gender      TEXT    NOT NULL,
    risk_class  TEXT    NOT NULL,
    issue_age   INTEGER NOT NULL,
    policy_year INTEGER NOT NULL,
    rate        REAL    NOT NULL,
    PRIMARY KEY (gender, risk_class, issue_age, policy_year)
);
CREATE TABLE IF NOT EXISTS corridor_factors (
    attained_age INTEGER PRIMARY KEY,
    rate         REAL    NOT NULL
);
`

// SQLiteSource serves rate rows from a SQLite database.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// rate tables exist. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)
	s := &SQLiteSource{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the rate tables if they do not exist.
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create rate tables: %w", err)
	}
	return nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) UnitLoads(ctx context.Context) ([]IssueAgeRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT issue_age, policy_year, rate FROM unit_loads`)
	if err != nil {
		return nil, fmt.Errorf("query unit_loads: %w", err)
	}
	defer rows.Close()

	var out []IssueAgeRate
	for rows.Next() {
		var r IssueAgeRate
		if err := rows.Scan(&r.IssueAge, &r.Duration, &r.Rate); err != nil {
			return nil, fmt.Errorf("scan unit_loads: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) COIRates(ctx context.Context) ([]CohortRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gender, risk_class, issue_age, policy_year, rate FROM coi_rates`)
	if err != nil {
		return nil, fmt.Errorf("query coi_rates: %w", err)
	}
	defer rows.Close()

	var out []CohortRate
	for rows.Next() {
		var r CohortRate
		if err := rows.Scan(&r.Gender, &r.RiskClass, &r.IssueAge, &r.Duration, &r.Rate); err != nil {
			return nil, fmt.Errorf("scan coi_rates: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) CorridorFactors(ctx context.Context) ([]AttainedAgeRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT attained_age, rate FROM corridor_factors`)
	if err != nil {
		return nil, fmt.Errorf("query corridor_factors: %w", err)
	}
	defer rows.Close()

	var out []AttainedAgeRate
	for rows.Next() {
		var r AttainedAgeRate
		if err := rows.Scan(&r.AttainedAge, &r.Rate); err != nil {
			return nil, fmt.Errorf("scan corridor_factors: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Import copies every row of src into the database, replacing rows with the
// same key. It runs in a single transaction.
func (s *SQLiteSource) Import(ctx context.Context, src Source) (int, error) {
	unit, err := src.UnitLoads(ctx)
	if err != nil {
		return 0, &SourceError{Series: SeriesUnitLoads, Err: err}
	}
	coi, err := src.COIRates(ctx)
	if err != nil {
		return 0, &SourceError{Series: SeriesCOIRates, Err: err}
	}
	corridor, err := src.CorridorFactors(ctx)
	if err != nil {
		return 0, &SourceError{Series: SeriesCorridorFactors, Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, r := range unit {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO unit_loads (issue_age, policy_year, rate) VALUES (?, ?, ?)`,
			r.IssueAge, r.Duration, r.Rate); err != nil {
			return 0, fmt.Errorf("insert unit_loads: %w", err)
		}
		n++
	}
	for _, r := range coi {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO coi_rates (gender, risk_class, issue_age, policy_year, rate) VALUES (?, ?, ?, ?, ?)`,
			r.Gender, r.RiskClass, r.IssueAge, r.Duration, r.Rate); err != nil {
			return 0, fmt.Errorf("insert coi_rates: %w", err)
		}
		n++
	}
	for _, r := range corridor {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO corridor_factors (attained_age, rate) VALUES (?, ?)`,
			r.AttainedAge, r.Rate); err != nil {
			return 0, fmt.Errorf("insert corridor_factors: %w", err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}
