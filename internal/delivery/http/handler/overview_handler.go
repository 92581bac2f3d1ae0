package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase"
	"go.uber.org/zap"
)

// OverviewHandler serves the front page data.
type OverviewHandler struct {
	overviewUC *usecase.OverviewUseCase
	logger     *zap.Logger
}

func NewOverviewHandler(overviewUC *usecase.OverviewUseCase, logger *zap.Logger) *OverviewHandler {
	return &OverviewHandler{
		overviewUC: overviewUC,
		logger:     logger,
	}
}

// Get godoc
// @Summary Front page overview
// @Description Lines grouped by type and status, sorted by name, plus the maintenance banner
// @Tags Overview
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.Overview}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/overview [get]
func (h *OverviewHandler) Get(c *fiber.Ctx) error {
	overview, err := h.overviewUC.Get(c.Context())
	if err != nil {
		h.logger.Error("Failed to build overview", zap.Error(err))
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, overview, nil)
}
