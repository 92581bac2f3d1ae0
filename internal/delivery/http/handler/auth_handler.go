package handler

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/utils"
	"github.com/railway-info/internal/usecase"
	"go.uber.org/zap"
)

// AuthHandler handles Discord login.
type AuthHandler struct {
	authUC   *usecase.AuthUseCase
	sessions *middleware.Sessions
	logger   *zap.Logger
}

func NewAuthHandler(authUC *usecase.AuthUseCase, sessions *middleware.Sessions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authUC:   authUC,
		sessions: sessions,
		logger:   logger,
	}
}

// Login godoc
// @Summary Start Discord login
// @Tags Auth
// @Success 302
// @Router /login [get]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state, err := newState()
	if err != nil {
		h.logger.Error("Failed to generate oauth state", zap.Error(err))
		return utils.SendError(c, err)
	}
	if err := h.sessions.SetState(c, state); err != nil {
		h.logger.Error("Failed to save oauth state", zap.Error(err))
		return utils.SendError(c, err)
	}
	return c.Redirect(h.authUC.LoginURL(state), fiber.StatusFound)
}

// Callback godoc
// @Summary Discord OAuth callback
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 302
// @Failure 502 {object} utils.ErrorResponse
// @Router /callback [get]
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	if !h.sessions.CheckState(c, c.Query("state")) {
		return utils.SendError(c, errors.ErrOAuthFailed.WithMessage("OAuth state mismatch"))
	}

	user, err := h.authUC.Callback(c.Context(), c.Query("code"))
	if err != nil {
		return utils.SendError(c, err)
	}

	if err := h.sessions.Login(c, user); err != nil {
		h.logger.Error("Failed to store session", zap.Error(err))
		return utils.SendError(c, err)
	}
	return c.Redirect("/dashboard", fiber.StatusFound)
}

// Logout godoc
// @Summary Log out
// @Tags Auth
// @Success 302
// @Router /logout [get]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c); err != nil {
		h.logger.Warn("Failed to destroy session", zap.Error(err))
	}
	return c.Redirect("/", fiber.StatusFound)
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.MeResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	me, err := h.authUC.Me(c.Context(), middleware.CurrentUser(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, me, nil)
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
