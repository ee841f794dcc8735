package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fitelo/sales-dashboard/pkg/dashboard"
	"github.com/fitelo/sales-dashboard/pkg/funnel"
	"github.com/fitelo/sales-dashboard/pkg/hierarchy"
	"github.com/fitelo/sales-dashboard/pkg/issues"
	"go.uber.org/zap"
)

type underperformingResponse struct {
	SM struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"sm"`
	Underperformers []issues.Underperformer `json:"underperformers"`
}

// fetchFailed logs err and answers with the query's generic message. Source
// details never reach the client.
func (c *Controller) fetchFailed(w http.ResponseWriter, r *http.Request, err error, message string) {
	c.App.Logger.Error(message, zap.String("path", r.URL.Path), zap.Error(err))
	c.writeError(w, http.StatusInternalServerError, message)
}

// HandleHierarchy returns the org tree. SM sessions only get their subtree.
func (c *Controller) HandleHierarchy(w http.ResponseWriter, r *http.Request) {
	res, err := c.App.Dashboard.Hierarchy(r.Context())
	if err != nil {
		c.fetchFailed(w, r, err, "Failed to fetch hierarchy data")
		return
	}
	if s := currentSession(r); s.ScopedToSM() {
		res = res.FilterSM(s.Name)
	}
	c.writeJSON(w, http.StatusOK, res)
}

// HandleRevenue returns the achieved figures keyed by entity id.
func (c *Controller) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	book, err := c.App.Dashboard.Revenue(r.Context())
	if err != nil {
		c.fetchFailed(w, r, err, "Failed to fetch revenue data")
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]hierarchy.RevenueBook{"revenue": book})
}

// HandleFunnel returns the funnel report for ?name=&role=.
func (c *Controller) HandleFunnel(w http.ResponseWriter, r *http.Request) {
	q := funnel.Query{
		Name: r.URL.Query().Get("name"),
		Role: r.URL.Query().Get("role"),
	}
	report, err := c.App.Dashboard.Funnel(r.Context(), q)
	switch {
	case errors.Is(err, funnel.ErrInvalidQuery):
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		c.fetchFailed(w, r, err, "Failed to fetch funnel data")
		return
	}
	c.writeJSON(w, http.StatusOK, report)
}

// HandleDietitianGaps returns the zero-sales streaks. SM sessions only get
// the dietitians assigned to them.
func (c *Controller) HandleDietitianGaps(w http.ResponseWriter, r *http.Request) {
	gaps, err := c.App.Dashboard.Gaps(r.Context())
	if err != nil {
		c.fetchFailed(w, r, err, "Failed to fetch dietitian gaps data")
		return
	}
	if s := currentSession(r); s.ScopedToSM() {
		gaps = issues.GapsFor(gaps, s.Name)
	}
	c.writeJSON(w, http.StatusOK, map[string][]issues.Gap{"dietitianGaps": gaps})
}

// HandleUnderperforming returns the flagged AMs under ?sm=<smId>.
func (c *Controller) HandleUnderperforming(w http.ResponseWriter, r *http.Request) {
	smID := strings.TrimSpace(r.URL.Query().Get("sm"))
	if smID == "" {
		c.writeError(w, http.StatusBadRequest, "sm parameter is required")
		return
	}

	sm, flagged, err := c.App.Dashboard.Underperformers(r.Context(), smID)
	switch {
	case errors.Is(err, dashboard.ErrSMNotFound):
		c.writeError(w, http.StatusNotFound, "sm not found")
		return
	case err != nil:
		c.fetchFailed(w, r, err, "Failed to fetch hierarchy data")
		return
	}
	if s := currentSession(r); s.ScopedToSM() && !strings.EqualFold(sm.Name, s.Name) {
		c.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	out := underperformingResponse{Underperformers: flagged}
	out.SM.ID, out.SM.Name = sm.ID, sm.Name
	c.writeJSON(w, http.StatusOK, out)
}

// HandlePeriod returns the reporting windows used for target scaling.
func (c *Controller) HandlePeriod(w http.ResponseWriter, _ *http.Request) {
	c.writeJSON(w, http.StatusOK, c.App.Dashboard.Calendar())
}
