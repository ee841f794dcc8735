package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/sheets"
	"go.uber.org/zap"
)

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if checker, ok := c.App.Source.(sheets.Checker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := checker.Check(ctx); err != nil {
			c.App.Logger.Warn("Sheet source health check failed", zap.Error(err))
			c.writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "errored", "error": "sheet source unreachable"})
			return
		}
	}
	c.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
