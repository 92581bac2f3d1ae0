package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger - middleware для логирования запросов
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if u := CurrentUser(c); u != nil {
			fields = append(fields, zap.String("user", u.Username))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Info("Request rejected", fields...)
		default:
			logger.Debug("Request", fields...)
		}
		return err
	}
}
