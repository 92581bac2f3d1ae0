package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// StationHandler handles station requests.
type StationHandler struct {
	stationUC *usecase.StationUseCase
	logger    *zap.Logger
}

func NewStationHandler(stationUC *usecase.StationUseCase, logger *zap.Logger) *StationHandler {
	return &StationHandler{
		stationUC: stationUC,
		logger:    logger,
	}
}

// GetAll godoc
// @Summary Stations overview
// @Tags Stations
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.StationsOverview}
// @Router /api/stations [get]
func (h *StationHandler) GetAll(c *fiber.Ctx) error {
	overview, err := h.stationUC.Overview(c.Context())
	if err != nil {
		h.logger.Error("Failed to get stations", zap.Error(err))
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, overview, nil)
}

// Get godoc
// @Summary Station details
// @Tags Stations
// @Produce json
// @Param name path string true "Station name"
// @Success 200 {object} utils.SuccessResponse{data=dto.StationDetails}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/stations/{name} [get]
func (h *StationHandler) Get(c *fiber.Ctx) error {
	details, err := h.stationUC.Details(c.Context(), pathParam(c, "name"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, details, nil)
}

// Search godoc
// @Summary Search stations by name
// @Tags Stations
// @Produce json
// @Param term path string true "Part of the name"
// @Success 200 {object} utils.SuccessResponse{data=dto.StationSearchResponse}
// @Router /api/stations/search/{term} [get]
func (h *StationHandler) Search(c *fiber.Ctx) error {
	found, err := h.stationUC.Search(c.Context(), pathParam(c, "term"))
	if err != nil {
		h.logger.Error("Station search failed", zap.Error(err))
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, found, &utils.Meta{Total: len(found.Stations)})
}

// Create godoc
// @Summary Create station
// @Description Returns the existing station of the same name instead of failing
// @Tags Stations
// @Accept json
// @Produce json
// @Param request body dto.CreateStationRequest true "Station name"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreateStationResponse}
// @Success 200 {object} utils.SuccessResponse{data=dto.CreateStationResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/stations [post]
func (h *StationHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateStationRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	res, err := h.stationUC.Create(c.Context(), middleware.CurrentUser(c), req.Name)
	if err != nil {
		return utils.SendError(c, err)
	}
	if res.Created {
		return utils.SendCreated(c, res)
	}
	return utils.SendSuccess(c, res, nil)
}

// Update godoc
// @Summary Update station
// @Description Numeric fields also accept strings; a non-numeric value clears the field
// @Tags Stations
// @Accept json
// @Produce json
// @Param id path int true "Station id"
// @Param request body domain.StationUpdate true "Changed fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/stations/{id} [put]
func (h *StationHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	var upd domain.StationUpdate
	if err := c.BodyParser(&upd); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid JSON: "+err.Error()))
	}

	if err := h.stationUC.Update(c.Context(), middleware.CurrentUser(c), id, upd); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"updated": true}, nil)
}

// Delete godoc
// @Summary Delete station
// @Tags Stations
// @Produce json
// @Param id path int true "Station id"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/stations/{id} [delete]
func (h *StationHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.stationUC.Delete(c.Context(), middleware.CurrentUser(c), id); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true}, nil)
}
