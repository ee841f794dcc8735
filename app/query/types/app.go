package types

import (
	"context"
	"net/http"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/dashboard"
	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"go.uber.org/zap"
)

type App struct {
	// Dashboard answers every data query.
	Dashboard *dashboard.Service
	// Source is the spreadsheet backend; probed by the health check.
	Source sheets.Source
	// Users are the dashboard accounts keyed by email.
	Users map[string]User
	// APIToken grants admin access through a bearer header. Empty disables it.
	APIToken string
	// SessionSecret signs session cookies.
	SessionSecret []byte
	// SecureCookies marks session cookies Secure.
	SecureCookies bool
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start serves until ctx is done, then shuts down gracefully.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	a.Dashboard.Close()
	a.Logger.Info("bye")
	_ = a.Logger.Sync()
}
