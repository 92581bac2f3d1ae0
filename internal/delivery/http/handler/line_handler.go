package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// LineHandler handles line requests.
type LineHandler struct {
	lineUC *usecase.LineUseCase
	logger *zap.Logger
}

func NewLineHandler(lineUC *usecase.LineUseCase, logger *zap.Logger) *LineHandler {
	return &LineHandler{
		lineUC: lineUC,
		logger: logger,
	}
}

// GetAll godoc
// @Summary List lines
// @Description All lines with their stations and compositions
// @Tags Lines
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Line}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/lines [get]
func (h *LineHandler) GetAll(c *fiber.Ctx) error {
	lines, err := h.lineUC.GetAll(c.Context())
	if err != nil {
		h.logger.Error("Failed to get lines", zap.Error(err))
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, lines, &utils.Meta{Total: len(lines)})
}

// Get godoc
// @Summary Get line
// @Tags Lines
// @Produce json
// @Param name path string true "Line name"
// @Success 200 {object} utils.SuccessResponse{data=domain.Line}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/lines/{name} [get]
func (h *LineHandler) Get(c *fiber.Ctx) error {
	line, err := h.lineUC.Get(c.Context(), pathParam(c, "name"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, line, nil)
}

// Feed godoc
// @Summary Legacy lines feed
// @Description Flat JSON read by the station display scripts
// @Tags Feeds
// @Produce json
// @Success 200 {array} domain.Line
// @Router /lines.json [get]
func (h *LineHandler) Feed(c *fiber.Ctx) error {
	data, err := h.lineUC.Feed(c.Context())
	if err != nil {
		h.logger.Error("Failed to build lines feed", zap.Error(err))
		return utils.SendError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// Create godoc
// @Summary Create line
// @Description Creates a line of an operator. The string composition field is accepted from old clients
// @Tags Lines
// @Accept json
// @Produce json
// @Param request body dto.CreateLineRequest true "Line"
// @Success 201 {object} utils.SuccessResponse{data=domain.Line}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/lines [post]
func (h *LineHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateLineRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	line, err := h.lineUC.Create(c.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, line)
}

// Update godoc
// @Summary Update line
// @Tags Lines
// @Accept json
// @Produce json
// @Param name path string true "Line name"
// @Param request body dto.UpdateLineRequest true "Changed fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/lines/{name} [put]
func (h *LineHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateLineRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.lineUC.Update(c.Context(), middleware.CurrentUser(c), pathParam(c, "name"), req); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"updated": true}, nil)
}

// Delete godoc
// @Summary Delete line
// @Tags Lines
// @Produce json
// @Param name path string true "Line name"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/lines/{name} [delete]
func (h *LineHandler) Delete(c *fiber.Ctx) error {
	if err := h.lineUC.Delete(c.Context(), middleware.CurrentUser(c), pathParam(c, "name")); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true}, nil)
}

// Stations godoc
// @Summary Stations of a line
// @Tags Lines
// @Produce json
// @Param name path string true "Line name"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.LineStation}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/lines/{name}/stations [get]
func (h *LineHandler) Stations(c *fiber.Ctx) error {
	stations, err := h.lineUC.Stations(c.Context(), pathParam(c, "name"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, stations, &utils.Meta{Total: len(stations)})
}

// AddStation godoc
// @Summary Add station to line
// @Tags Lines
// @Accept json
// @Produce json
// @Param name path string true "Line name"
// @Param request body dto.LineStationRequest true "Station"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/lines/{name}/stations [post]
func (h *LineHandler) AddStation(c *fiber.Ctx) error {
	var req dto.LineStationRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.lineUC.AddStation(c.Context(), middleware.CurrentUser(c), pathParam(c, "name"), req); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"added": true}, nil)
}

// RemoveStation godoc
// @Summary Remove station from line
// @Tags Lines
// @Produce json
// @Param name path string true "Line name"
// @Param station path string true "Station name"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/lines/{name}/stations/{station} [delete]
func (h *LineHandler) RemoveStation(c *fiber.Ctx) error {
	err := h.lineUC.RemoveStation(c.Context(), middleware.CurrentUser(c), pathParam(c, "name"), pathParam(c, "station"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"removed": true}, nil)
}

// ReorderStations godoc
// @Summary Reorder stations of a line
// @Tags Lines
// @Accept json
// @Produce json
// @Param name path string true "Line name"
// @Param request body dto.ReorderStationsRequest true "Station names in order"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/lines/{name}/stations/order [put]
func (h *LineHandler) ReorderStations(c *fiber.Ctx) error {
	var req dto.ReorderStationsRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.lineUC.ReorderStations(c.Context(), middleware.CurrentUser(c), pathParam(c, "name"), req); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"reordered": true}, nil)
}
