package handler

import (
	"context"
	_ "embed"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

//go:embed assets/setup.lua
var setupScript []byte

// HealthChecker is anything /api/health should ping.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SystemHandler serves health and the setup script.
type SystemHandler struct {
	checks map[string]HealthChecker
	logger *zap.Logger
}

func NewSystemHandler(checks map[string]HealthChecker, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		checks: checks,
		logger: logger,
	}
}

// Health godoc
// @Summary Health check
// @Description Pings MySQL and Redis
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/health [get]
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	deps := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":       state,
		"time":         time.Now(),
		"dependencies": deps,
	})
}

// SetupScript godoc
// @Summary ComputerCraft setup script
// @Tags Feeds
// @Produce plain
// @Success 200 {string} string
// @Router /setup.lua [get]
func (h *SystemHandler) SetupScript(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="setup.lua"`)
	return c.Send(setupScript)
}
