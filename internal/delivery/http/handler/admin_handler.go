package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase"
	"go.uber.org/zap"
)

// AdminHandler serves settings, logs and counters of the admin panel.
type AdminHandler struct {
	adminUC *usecase.AdminUseCase
	logger  *zap.Logger
}

func NewAdminHandler(adminUC *usecase.AdminUseCase, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminUC: adminUC,
		logger:  logger,
	}
}

// GetSettings godoc
// @Summary Current settings
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=config.Settings}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/admin/settings [get]
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	s, err := h.adminUC.Settings(middleware.CurrentUser(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, s, nil)
}

// SaveSettings godoc
// @Summary Save settings
// @Description Writes the keys to config.yml and reloads the configuration
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body config.Settings true "Settings"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/admin/settings [post]
func (h *AdminHandler) SaveSettings(c *fiber.Ctx) error {
	var s config.Settings
	if err := c.BodyParser(&s); err != nil {
		return utils.SendError(c, errors.ErrInvalidSettings.WithMessage("Invalid JSON: "+err.Error()))
	}

	if err := h.adminUC.SaveSettings(middleware.CurrentUser(c), s); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"saved": true}, nil)
}

// Logs godoc
// @Summary Server logs
// @Tags Admin
// @Produce json
// @Param limit query int false "Only the last N entries"
// @Success 200 {object} utils.SuccessResponse{data=[]dto.LogEntry}
// @Router /api/admin/logs [get]
func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	entries, err := h.adminUC.Logs(middleware.CurrentUser(c), c.QueryInt("limit", 500))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, entries, &utils.Meta{Total: len(entries)})
}

// ClearLogs godoc
// @Summary Clear server logs
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/admin/logs/clear [post]
func (h *AdminHandler) ClearLogs(c *fiber.Ctx) error {
	if err := h.adminUC.ClearLogs(middleware.CurrentUser(c)); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"cleared": true}, nil)
}

// Stats godoc
// @Summary Dashboard counters
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.AdminStats}
// @Router /api/admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.adminUC.Stats(c.Context(), middleware.CurrentUser(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, stats, nil)
}
