// Package handler reports readiness over HTTP (/health) and the standard gRPC health service.
package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"placement-portal/backend/internal/platform/httpx"
)

// checkTimeout bounds each dependency probe.
const checkTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is satisfied by the OPA eligibility evaluator.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker probes the dependencies the API needs to serve. Nil dependencies are skipped.
type Checker struct {
	pinger Pinger
	policy PolicyChecker
}

func NewChecker(pinger Pinger, policy PolicyChecker) *Checker {
	return &Checker{pinger: pinger, policy: policy}
}

// Ready returns the first failing probe, or nil when the service can serve.
func (c *Checker) Ready(ctx context.Context) error {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if c.pinger != nil {
		if err := c.pinger.PingContext(ctx); err != nil {
			return err
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

type healthData struct {
	Status string `json:"status"`
}

// ServeHTTP handles GET /health: 200 when ready, 503 otherwise.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := c.Ready(r.Context()); err != nil {
		log.Printf("health: not ready: %v", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorBody{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Service unavailable",
		})
		return
	}
	httpx.WriteData(w, http.StatusOK, "OK", healthData{Status: "ok"})
}
