package sheets

import (
	"context"
	"fmt"
	"sync"
)

// StaticSource serves fixed grids keyed by range. Used as an in-memory
// backend in tests and demos.
type StaticSource struct {
	Grids map[string]Grid
	// Errs forces a failure for a range.
	Errs map[string]error

	mu    sync.Mutex
	calls map[string]int
}

// Values returns the grid registered for a1Range.
func (s *StaticSource) Values(ctx context.Context, a1Range string) (Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[a1Range]++
	s.mu.Unlock()

	if err, ok := s.Errs[a1Range]; ok {
		return nil, err
	}
	g, ok := s.Grids[a1Range]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRangeNotFound, a1Range)
	}
	return g, nil
}

// Calls reports how many times a1Range was fetched.
func (s *StaticSource) Calls(a1Range string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[a1Range]
}
