package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bobmcallan/stockdash/internal/common"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck is a named dependency check. Check returns nil when healthy.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler reports whether stockdash and its local dependencies are usable.
// The market data provider is remote and is not checked.
type HealthHandler struct {
	logger *common.Logger
	checks []HealthCheck
}

// NewHealthHandler creates a health handler running checks on every request.
func NewHealthHandler(logger *common.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks}
}

// ServeHTTP handles GET /api/health. Any failed check answers 503 "degraded".
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	body := healthBody{Status: "ok"}
	status := http.StatusOK

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		body.Checks = make(map[string]string, len(h.checks))
		for _, c := range h.checks {
			if err := c.Check(ctx); err != nil {
				h.logger.Warn().Err(err).Str("check", c.Name).Msg("health check failed")
				body.Checks[c.Name] = err.Error()
				body.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			body.Checks[c.Name] = "ok"
		}
	}

	WriteJSON(w, status, body)
}
