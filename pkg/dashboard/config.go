package dashboard

import (
	"fmt"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"github.com/fitelo/sales-dashboard/pkg/utils"
	"go.uber.org/zap"
)

// OptsFromEnv builds Service options for src from REPORT_TZ, FETCH_WORKERS
// and the RANGE_* variables.
func OptsFromEnv(src sheets.Source, logger *zap.Logger) (Opts, error) {
	tz := utils.Env("REPORT_TZ", DefaultLocation)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Opts{}, fmt.Errorf("invalid REPORT_TZ %q: %w", tz, err)
	}
	return Opts{
		Source:   src,
		Ranges:   sheets.RangesFromEnv(),
		Logger:   logger,
		Location: loc,
		Workers:  utils.EnvInt("FETCH_WORKERS", 4),
	}, nil
}
