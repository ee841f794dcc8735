// Package dashboard runs the read pipeline behind every dashboard query:
// fetch the tables, rebuild the calendar and hierarchy, and classify.
// Nothing is cached between calls.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/fitelo/sales-dashboard/pkg/funnel"
	"github.com/fitelo/sales-dashboard/pkg/hierarchy"
	"github.com/fitelo/sales-dashboard/pkg/issues"
	"github.com/fitelo/sales-dashboard/pkg/period"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"go.uber.org/zap"
)

var (
	// ErrFetch wraps any failure to read a table from the source.
	ErrFetch = errors.New("fetch failed")
	// ErrSMNotFound is returned when an SM id does not exist in the tree.
	ErrSMNotFound = errors.New("sm not found")
)

// DefaultLocation is the reporting time zone when none is configured.
const DefaultLocation = "Asia/Kolkata"

// Opts configures a Service.
type Opts struct {
	Source   sheets.Source
	Ranges   sheets.Ranges
	Logger   *zap.Logger
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// Workers bounds concurrent table fetches across all requests.
	Workers int
}

// Service answers dashboard queries against a sheets.Source.
type Service struct {
	source   sheets.Source
	ranges   sheets.Ranges
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
	pool     pond.Pool
	stop     sync.Once
}

// New returns a Service. Call Close to release its worker pool.
func New(o Opts) *Service {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return &Service{
		source:   o.Source,
		ranges:   o.Ranges,
		logger:   o.Logger,
		location: o.Location,
		now:      o.Now,
		pool:     pond.NewPool(o.Workers, pond.WithQueueSize(o.Workers*16)),
	}
}

// Close stops the worker pool after in-flight fetches finish. Safe to call
// more than once.
func (s *Service) Close() {
	s.stop.Do(s.pool.StopAndWait)
}

// Calendar returns the reporting windows as of now.
func (s *Service) Calendar() period.Calendar {
	return period.New(s.now().In(s.location))
}

// fetch reads ranges in parallel. Any failure fails the whole call; no
// partial result is returned.
func (s *Service) fetch(ctx context.Context, ranges ...string) ([][]sheets.Row, error) {
	out := make([][]sheets.Row, len(ranges))
	errs := make([]error, len(ranges))

	group := s.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i, rng := range ranges {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				errs[i] = err
				return
			}
			grid, err := s.source.Values(groupCtx, rng)
			if err != nil {
				errs[i] = err
				return
			}
			out[i] = grid.Rows()
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		s.logger.Warn("parallel sheet fetch encountered error", zap.Error(err))
	}

	for i, err := range errs {
		if err != nil {
			s.logger.Error("Failed to fetch sheet range", zap.String("range", ranges[i]), zap.Error(err))
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, ranges[i], err)
		}
	}
	return out, nil
}

// Hierarchy builds the full org tree.
func (s *Service) Hierarchy(ctx context.Context) (*hierarchy.Result, error) {
	tables, err := s.fetch(ctx, s.ranges.Targets, s.ranges.Revenue)
	if err != nil {
		return nil, err
	}
	return hierarchy.Build(s.Calendar(), tables[0], tables[1]), nil
}

// Revenue returns the achieved figures keyed by entity id.
func (s *Service) Revenue(ctx context.Context) (hierarchy.RevenueBook, error) {
	tables, err := s.fetch(ctx, s.ranges.Revenue)
	if err != nil {
		return nil, err
	}
	return hierarchy.ScanRevenue(tables[0]), nil
}

// Funnel computes the funnel report for q. The query is validated before
// anything is fetched.
func (s *Service) Funnel(ctx context.Context, q funnel.Query) (*funnel.Report, error) {
	if _, err := q.Validate(); err != nil {
		return nil, err
	}
	tables, err := s.fetch(ctx, s.ranges.Funnel)
	if err != nil {
		return nil, err
	}
	return funnel.Compute(q, tables[0], s.Calendar())
}

// Gaps returns the flagged dietitians.
func (s *Service) Gaps(ctx context.Context) ([]issues.Gap, error) {
	tables, err := s.fetch(ctx, s.ranges.Gaps)
	if err != nil {
		return nil, err
	}
	return issues.Gaps(tables[0]), nil
}

// Underperformers returns the SM node with smID and its flagged AMs.
func (s *Service) Underperformers(ctx context.Context, smID string) (*hierarchy.Node, []issues.Underperformer, error) {
	res, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, nil, err
	}
	sm, ok := res.FindSM(smID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrSMNotFound, smID)
	}
	return sm, issues.Underperforming(sm), nil
}
