package reporter

import (
	"context"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/dashboard"
	"github.com/fitelo/sales-dashboard/pkg/logging"
	"github.com/fitelo/sales-dashboard/pkg/redis"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"github.com/fitelo/sales-dashboard/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// DefaultCronSpec runs the digest every day at 09:00 in the report time zone.
	DefaultCronSpec = "0 0 9 * * *"
	DefaultChannel  = "sales-dashboard:issues"
	DefaultStream   = "sales-dashboard:digests"

	runTimeout = 2 * time.Minute
)

// App builds the issues digest on a schedule.
type App struct {
	Dashboard *dashboard.Service

	// Cron triggers Run according to CronSpec.
	Cron     *cron.Cron
	CronSpec string

	// Publisher is nil when REDIS_ENABLED is off; the digest is then only logged.
	Publisher Publisher
	Channel   string
	Stream    string

	Logger *zap.Logger
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	_ = godotenv.Load()

	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	source, err := sheets.SourceFromEnv(logger)
	if err != nil {
		logger.Fatal("Unable to initialize sheet source", zap.Error(err))
	}

	opts, err := dashboard.OptsFromEnv(source, logger)
	if err != nil {
		logger.Fatal("Invalid dashboard configuration", zap.Error(err))
	}

	app := &App{
		Dashboard: dashboard.New(opts),
		CronSpec:  utils.Env("REPORT_CRON", DefaultCronSpec),
		Channel:   utils.Env("REDIS_CHANNEL", DefaultChannel),
		Stream:    utils.Env("REDIS_STREAM", DefaultStream),
		Logger:    logger,
	}

	if utils.EnvBool("REDIS_ENABLED", false) {
		client, err := redis.NewClient(ctx, logger, redis.ConfigFromEnv())
		if err != nil {
			// The digest still gets logged without Redis.
			logger.Warn("Redis unavailable, digests will only be logged", zap.Error(err))
		} else {
			app.Publisher = client
		}
	}

	if err := app.SetupScheduler(ctx, opts.Location); err != nil {
		logger.Fatal("Invalid REPORT_CRON", zap.String("cronSpec", app.CronSpec), zap.Error(err))
	}

	return app
}

// SetupScheduler registers Run under CronSpec, evaluated in loc.
func (a *App) SetupScheduler(ctx context.Context, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	// Seconds field, optional
	a.Cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(logging.CronLogger{Logger: a.Logger}), cron.Recover(logging.CronLogger{Logger: a.Logger})),
	)

	_, err := a.Cron.AddFunc(a.CronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		if err := a.Run(rctx); err != nil {
			a.Logger.Error("[reporter] digest failed", zap.Error(err))
		}
	})
	return err
}

// Start starts the scheduler and blocks until the context is canceled.
func (a *App) Start(ctx context.Context) {
	a.Cron.Start()
	a.Logger.Info("[reporter] Cron started", zap.String("cronSpec", a.CronSpec))
	<-ctx.Done()
	a.Stop()
}

// Stop waits for a running digest, then releases the pool and Redis.
func (a *App) Stop() {
	a.Logger.Info("[reporter] shutting down…")
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
	a.Dashboard.Close()
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
