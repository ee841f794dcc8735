package query

import (
	"context"

	"github.com/fitelo/sales-dashboard/app/query/types"
	"github.com/fitelo/sales-dashboard/pkg/dashboard"
	"github.com/fitelo/sales-dashboard/pkg/logging"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"github.com/fitelo/sales-dashboard/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(_ context.Context) *types.App {
	// A missing .env is fine; the real environment wins either way.
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

	users, err := types.ParseUsers(utils.Env("DASHBOARD_USERS", ""))
	if err != nil {
		logger.Fatal("Invalid DASHBOARD_USERS", zap.Error(err))
	}
	if len(users) == 0 {
		logger.Warn("No dashboard users configured - only API token access is possible")
	}

	secret := utils.Env("SESSION_SECRET", "")
	if secret == "" {
		logger.Fatal("SESSION_SECRET is required")
	}

	return &types.App{
		Dashboard:     dashboard.New(opts),
		Source:        source,
		Users:         users,
		APIToken:      utils.Env("API_TOKEN", ""),
		SessionSecret: []byte(secret),
		SecureCookies: utils.EnvBool("SECURE_COOKIES", false),
		Logger:        logger,
	}
}
