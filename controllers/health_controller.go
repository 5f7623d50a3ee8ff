package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports whether the backing stores answer.
type HealthController struct {
	deps    map[string]Pinger
	timeout time.Duration
}

func NewHealthController(deps map[string]Pinger, timeout time.Duration) *HealthController {
	return &HealthController{deps: deps, timeout: timeout}
}

func (h *HealthController) Check(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
