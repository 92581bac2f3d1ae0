package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase"
	"github.com/railway-info/internal/usecase/dto"
	"go.uber.org/zap"
)

// OperatorHandler handles operator requests.
type OperatorHandler struct {
	operatorUC *usecase.OperatorUseCase
	logger     *zap.Logger
}

func NewOperatorHandler(operatorUC *usecase.OperatorUseCase, logger *zap.Logger) *OperatorHandler {
	return &OperatorHandler{
		operatorUC: operatorUC,
		logger:     logger,
	}
}

// GetAll godoc
// @Summary List operators
// @Description Operators with their line counts
// @Tags Operators
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]dto.OperatorSummary}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/operators [get]
func (h *OperatorHandler) GetAll(c *fiber.Ctx) error {
	ops, err := h.operatorUC.Summaries(c.Context())
	if err != nil {
		h.logger.Error("Failed to get operators", zap.Error(err))
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, ops, &utils.Meta{Total: len(ops)})
}

// Get godoc
// @Summary Operator page
// @Description The operator with its lines and members
// @Tags Operators
// @Produce json
// @Param uid path string true "Operator uid"
// @Success 200 {object} utils.SuccessResponse{data=dto.OperatorPage}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/operators/{uid} [get]
func (h *OperatorHandler) Get(c *fiber.Ctx) error {
	page, err := h.operatorUC.Page(c.Context(), c.Params("uid"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, page, nil)
}

// Feed godoc
// @Summary Legacy operators feed
// @Tags Feeds
// @Produce json
// @Success 200 {array} domain.Operator
// @Router /operators.json [get]
func (h *OperatorHandler) Feed(c *fiber.Ctx) error {
	data, err := h.operatorUC.Feed(c.Context())
	if err != nil {
		h.logger.Error("Failed to build operators feed", zap.Error(err))
		return utils.SendError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// Update godoc
// @Summary Update operator
// @Tags Operators
// @Accept json
// @Produce json
// @Param uid path string true "Operator uid"
// @Param request body dto.UpdateOperatorRequest true "Changed fields"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/operators/{uid} [put]
func (h *OperatorHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateOperatorRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.operatorUC.Update(c.Context(), middleware.CurrentUser(c), c.Params("uid"), req); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"updated": true}, nil)
}

// Delete godoc
// @Summary Delete operator
// @Description Admins only. The lines of the operator are kept without an operator
// @Tags Admin
// @Produce json
// @Param uid path string true "Operator uid"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/admin/operators/{uid} [delete]
func (h *OperatorHandler) Delete(c *fiber.Ctx) error {
	if err := h.operatorUC.Delete(c.Context(), middleware.CurrentUser(c), c.Params("uid")); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"deleted": true}, nil)
}

// AddMember godoc
// @Summary Add operator member
// @Tags Operators
// @Accept json
// @Produce json
// @Param uid path string true "Operator uid"
// @Param request body dto.MemberRequest true "Discord user id"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/operators/{uid}/members [post]
func (h *OperatorHandler) AddMember(c *fiber.Ctx) error {
	var req dto.MemberRequest
	if err := bindJSON(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	if err := h.operatorUC.AddMember(c.Context(), middleware.CurrentUser(c), c.Params("uid"), req.UserID); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"added": true}, nil)
}

// RemoveMember godoc
// @Summary Remove operator member
// @Tags Operators
// @Produce json
// @Param uid path string true "Operator uid"
// @Param user path string true "Discord user id"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/operators/{uid}/members/{user} [delete]
func (h *OperatorHandler) RemoveMember(c *fiber.Ctx) error {
	if err := h.operatorUC.RemoveMember(c.Context(), middleware.CurrentUser(c), c.Params("uid"), c.Params("user")); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"removed": true}, nil)
}
