package middleware

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/utils"
	"go.uber.org/zap"
)

const (
	userLocal   = "user"
	userKey     = "user"
	stateKey    = "oauth_state"
	sessionName = "railway_session"
)

// Sessions wraps the fiber session store. The user is kept in the
// session as JSON so the storage needs no gob registration.
type Sessions struct {
	store  *session.Store
	logger *zap.Logger
}

// NewSessions builds the store. storage may be nil, in which case fiber
// keeps sessions in memory.
func NewSessions(storage fiber.Storage, secure bool, logger *zap.Logger) *Sessions {
	cfg := session.Config{
		Expiration:     7 * 24 * time.Hour,
		KeyLookup:      "cookie:" + sessionName,
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return &Sessions{
		store:  session.New(cfg),
		logger: logger,
	}
}

// Load puts the logged in user, if any, into the request locals. A broken
// session is treated as anonymous.
func (s *Sessions) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.store.Get(c)
		if err != nil {
			s.logger.Warn("Failed to load session", zap.Error(err))
			return c.Next()
		}

		if raw, ok := sess.Get(userKey).(string); ok && raw != "" {
			var u domain.SessionUser
			if err := json.Unmarshal([]byte(raw), &u); err == nil {
				c.Locals(userLocal, &u)
			}
		}
		return c.Next()
	}
}

// Login stores user in a fresh session.
func (s *Sessions) Login(c *fiber.Ctx, user *domain.SessionUser) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("regenerate session: %w", err)
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	sess.Set(userKey, string(data))
	sess.Delete(stateKey)
	c.Locals(userLocal, user)
	return sess.Save()
}

func (s *Sessions) Logout(c *fiber.Ctx) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	return sess.Destroy()
}

// SetState remembers the OAuth state parameter for the callback.
func (s *Sessions) SetState(c *fiber.Ctx, state string) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	sess.Set(stateKey, state)
	return sess.Save()
}

// CheckState reports whether state matches the one saved by SetState.
func (s *Sessions) CheckState(c *fiber.Ctx, state string) bool {
	sess, err := s.store.Get(c)
	if err != nil {
		return false
	}
	saved, ok := sess.Get(stateKey).(string)
	return ok && saved != "" && saved == state
}

// CurrentUser returns the session user, nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *domain.SessionUser {
	u, _ := c.Locals(userLocal).(*domain.SessionUser)
	return u
}

// RequireLogin rejects anonymous requests with 401.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return utils.SendError(c, errors.ErrUnauthorized)
		}
		return c.Next()
	}
}
