// Package pricing prices policies end to end: it builds the cohort's rate
// table from a rates.Source and runs the projection engine or premium solver
// against it. Batches are solved concurrently, one rate table per case.
package pricing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carractuarial/valact/internal/projection"
	"github.com/carractuarial/valact/internal/rates"
	"github.com/carractuarial/valact/internal/solver"
)

// DefaultWorkers bounds SolveBatch concurrency when no WithWorkers option is given.
const DefaultWorkers = 4

// Quote is a solved premium for one case.
type Quote struct {
	Case        Case
	Premium     float64
	Doublings   int
	Evaluations int
	Elapsed     time.Duration
}

// Service prices cases against one rate source and set of assumptions.
type Service struct {
	src         rates.Source
	assumptions rates.Assumptions
	logger      *slog.Logger
	metrics     *Metrics
	workers     int
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithWorkers sets how many cases SolveBatch solves at once. Values below 1
// are ignored.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New returns a Service reading rates from src.
func New(src rates.Source, a rates.Assumptions, opts ...Option) *Service {
	s := &Service{
		src:         src,
		assumptions: a,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers:     DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rates builds the rate table for cohort.
func (s *Service) Rates(ctx context.Context, cohort rates.Cohort) (*rates.Table, error) {
	t, err := rates.Build(ctx, s.src, s.assumptions, cohort)
	s.metrics.observeBuild(err)
	if err != nil {
		return nil, fmt.Errorf("build rates for %s: %w", cohort, err)
	}
	return t, nil
}

// Project returns the account value at maturity for c paying premium annually.
func (s *Service) Project(ctx context.Context, c Case, premium float64) (float64, error) {
	t, err := s.prepare(ctx, c)
	if err != nil {
		return 0, err
	}
	return projection.Project(t, c.IssueAge, c.FaceAmount, premium), nil
}

// Illustrate returns the monthly ledger for c paying premium annually.
func (s *Service) Illustrate(ctx context.Context, c Case, premium float64) (projection.Ledger, error) {
	t, err := s.prepare(ctx, c)
	if err != nil {
		return nil, err
	}
	ledger := projection.Illustrate(t, c.IssueAge, c.FaceAmount, premium)
	if m := ledger.LapseMonth(); m > 0 {
		s.logger.Debug("illustration lapses", "case", c.String(), "premium", premium, "month", m)
	}
	return ledger, nil
}

// Solve finds the minimal level annual premium for c.
func (s *Service) Solve(ctx context.Context, c Case) (Quote, error) {
	start := time.Now()
	t, err := s.prepare(ctx, c)
	if err != nil {
		return Quote{}, err
	}

	res := solver.Solve(t, c.IssueAge, c.FaceAmount)
	q := Quote{
		Case:        c,
		Premium:     res.Premium,
		Doublings:   res.Doublings,
		Evaluations: res.Evaluations,
		Elapsed:     time.Since(start),
	}
	s.metrics.observeSolve(q)
	s.logger.Debug("solved premium",
		"case", c.String(),
		"premium", q.Premium,
		"doublings", q.Doublings,
		"evaluations", q.Evaluations,
		"elapsed", q.Elapsed)
	return q, nil
}

// SolveBatch solves every case, at most the configured number at a time.
// Quotes are returned in input order. The first failure cancels cases not
// yet started and is returned.
func (s *Service) SolveBatch(ctx context.Context, cases []Case) ([]Quote, error) {
	start := time.Now()
	quotes := make([]Quote, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			q, err := s.Solve(gctx, c)
			if err != nil {
				return fmt.Errorf("case %d (%s): %w", i+1, c, err)
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("batch solved",
		"cases", len(cases),
		"workers", s.workers,
		"elapsed", time.Since(start))
	return quotes, nil
}

func (s *Service) prepare(ctx context.Context, c Case) (*rates.Table, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return s.Rates(ctx, c.Cohort())
}
