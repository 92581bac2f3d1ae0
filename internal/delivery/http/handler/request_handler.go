package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// RequestHandler handles requests to create operators.
type RequestHandler struct {
	requestUC *usecase.OperatorRequestUseCase
	logger    *zap.Logger
}

func NewRequestHandler(requestUC *usecase.OperatorRequestUseCase, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestUC: requestUC,
		logger:    logger,
	}
}

// Submit godoc
// @Summary Request a new operator
// @Tags Requests
// @Accept json
// @Produce json
// @Param request body dto.CreateOperatorRequest true "Company"
// @Success 201 {object} utils.SuccessResponse{data=dto.CreatedRequestResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/operators/request [post]
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var req dto.CreateOperatorRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	created, err := h.requestUC.Submit(c.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, created)
}

// List godoc
// @Summary List operator requests
// @Description Pending requests, or all of them with all=true
// @Tags Admin
// @Produce json
// @Param all query bool false "Include handled requests"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.OperatorRequest}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/admin/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	reqs, err := h.requestUC.List(c.Context(), middleware.CurrentUser(c), c.QueryBool("all", false))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, reqs, &utils.Meta{Total: len(reqs)})
}

// Get godoc
// @Summary Get operator request
// @Tags Admin
// @Produce json
// @Param id path int true "Request id"
// @Success 200 {object} utils.SuccessResponse{data=domain.OperatorRequest}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/admin/requests/{id} [get]
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	req, err := h.requestUC.Get(c.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, req, nil)
}

// Handle godoc
// @Summary Accept or reject a request
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Request id"
// @Param request body dto.HandleRequestRequest true "Action"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/admin/requests/{id}/handle [post]
func (h *RequestHandler) Handle(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.HandleRequestRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.requestUC.Handle(c.Context(), middleware.CurrentUser(c), id, req.Action); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"handled": true, "action": req.Action}, nil)
}

// LegacyHandle godoc
// @Summary Accept or reject a request by timestamp
// @Description Old admin page format: the request is identified by its creation time
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.LegacyHandleRequest true "Timestamp and action"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/admin/companies/handle-request [post]
func (h *RequestHandler) LegacyHandle(c *fiber.Ctx) error {
	var req dto.LegacyHandleRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.requestUC.HandleByTimestamp(c.Context(), middleware.CurrentUser(c), req.Timestamp, req.Action); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"handled": true, "action": req.Action}, nil)
}

// LegacyDelete godoc
// @Summary Delete a request by timestamp
// @Description Old admin page format: the request is identified by its creation time
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.LegacyDeleteRequest true "Timestamp"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/admin/companies/request [delete]
func (h *RequestHandler) LegacyDelete(c *fiber.Ctx) error {
	var req dto.LegacyDeleteRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.requestUC.DeleteByTimestamp(c.Context(), middleware.CurrentUser(c), req.Timestamp); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true}, nil)
}

// Delete godoc
// @Summary Delete operator request
// @Tags Admin
// @Produce json
// @Param id path int true "Request id"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/admin/requests/{id} [delete]
func (h *RequestHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.requestUC.Delete(c.Context(), middleware.CurrentUser(c), id); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true}, nil)
}
