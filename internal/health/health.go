// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler reports that the process is up.
func LivenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// ReadinessHandler reports whether the service can reach its database.
// Returns 503 when the check fails so load balancers stop routing here.
func ReadinessHandler(database Pinger, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		checks := map[string]string{"database": "ok"}
		status := http.StatusOK

		if err := database.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		body := HealthResponse{Status: "ok", Checks: checks}
		if status != http.StatusOK {
			body.Status = "degraded"
		}
		c.JSON(status, body)
	}
}
