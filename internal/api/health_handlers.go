package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/version"
)

const healthTimeout = 2 * time.Second

// handleHealth pings every registered dependency. Any failure turns the
// response into 503.
func (h *Handlers) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.Health))
	for name := range h.Health {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.Health[name].PingContext(ctx); err != nil {
			shared.Entry(c).WithError(err).WithField("dependency", name).Warn("Health check failed")
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks, "version": version.GetInfo().Version})
}
