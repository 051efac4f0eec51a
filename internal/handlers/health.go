package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Check probes one dependency. A nil Check marks the dependency as not
// configured.
type Check func(ctx context.Context) error

// HealthCheck reports the state of every named dependency. Any failing
// check turns the response into 503.
func HealthCheck(checks map[string]Check) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		response := HealthResponse{
			Status:     "ok",
			Components: make(map[string]string, len(names)),
		}
		code := http.StatusOK

		for _, name := range names {
			check := checks[name]
			if check == nil {
				response.Components[name] = "not configured"
				continue
			}
			if err := check(c.Request.Context()); err != nil {
				response.Components[name] = "disconnected"
				response.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			response.Components[name] = "connected"
		}

		c.JSON(code, response)
	}
}
