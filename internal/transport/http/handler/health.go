package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"snapcaption/internal/ai"
	"snapcaption/internal/bootstrap"
	redisClient "snapcaption/internal/platform/redis"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports 503 only when the detector is missing. A failing llm provider or
// redis degrades the service but requests still get fallback output.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	detectorStatus := h.checkDetector()
	statusCode := http.StatusOK
	if !detectorStatus.OK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":        h.app.Config.App.Name,
		"env":        h.app.Config.App.Env,
		"uptime_sec": int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": gin.H{
			"detector": detectorStatus,
			"llm":      h.checkLLM(),
			"redis":    h.checkRedis(ctx),
		},
	})
}

func (h *HealthHandler) checkDetector() dependencyStatus {
	if h.app.Detector == nil {
		return dependencyStatus{OK: false, Message: "detector not loaded"}
	}
	return dependencyStatus{OK: true, Message: h.app.Config.Vision.ModelPath}
}

func (h *HealthHandler) checkLLM() dependencyStatus {
	if h.app.Generator == nil {
		return dependencyStatus{OK: false, Message: "not configured"}
	}
	if _, down := h.app.Generator.(ai.Unavailable); down {
		return dependencyStatus{OK: false, Message: h.app.Generator.Name()}
	}
	return dependencyStatus{OK: true, Message: h.app.Generator.Name()}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{OK: true, Message: "disabled"}
	}
	if err := redisClient.Ping(ctx, h.app.Redis); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}
