package dashboard

import (
	"context"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/hierarchy"
	"github.com/fitelo/sales-dashboard/pkg/issues"
	"github.com/fitelo/sales-dashboard/pkg/period"
)

// SMIssues groups the flags raised under one SM.
type SMIssues struct {
	SMID            string                  `json:"smId"`
	SMName          string                  `json:"smName"`
	Underperformers []issues.Underperformer `json:"underperformers"`
	Gaps            []issues.Gap            `json:"gaps"`
}

// Digest is the scheduled summary of every flag in the organisation.
type Digest struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Period      period.Calendar `json:"period"`
	SMs         []SMIssues      `json:"sms"`
	// Gaps lists every flagged dietitian, including ones whose owner is not
	// an SM in the tree.
	Gaps []issues.Gap `json:"gaps"`
}

// Counts returns the total number of underperformers and gaps.
func (d *Digest) Counts() (underperformers, gaps int) {
	for _, sm := range d.SMs {
		underperformers += len(sm.Underperformers)
	}
	return underperformers, len(d.Gaps)
}

// Digest fetches the targets, revenue and gaps tables in one parallel round
// and classifies every SM subtree.
func (s *Service) Digest(ctx context.Context) (*Digest, error) {
	tables, err := s.fetch(ctx, s.ranges.Targets, s.ranges.Revenue, s.ranges.Gaps)
	if err != nil {
		return nil, err
	}
	cal := s.Calendar()
	res := hierarchy.Build(cal, tables[0], tables[1])
	gaps := issues.Gaps(tables[2])

	d := &Digest{
		GeneratedAt: s.now().In(s.location),
		Period:      cal,
		SMs:         make([]SMIssues, 0, len(res.Tree)),
		Gaps:        gaps,
	}
	for _, sm := range res.Tree {
		d.SMs = append(d.SMs, SMIssues{
			SMID:            sm.ID,
			SMName:          sm.Name,
			Underperformers: issues.Underperforming(sm),
			Gaps:            issues.GapsFor(gaps, sm.Name),
		})
	}
	return d, nil
}
