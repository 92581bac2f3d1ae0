package http

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/delivery/http/handler"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/pkg/errors"
	"github.com/railway-info/internal/pkg/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// Handlers - все хендлеры, нужные роутеру
type Handlers struct {
	Line     *handler.LineHandler
	Operator *handler.OperatorHandler
	Station  *handler.StationHandler
	Request  *handler.RequestHandler
	Overview *handler.OverviewHandler
	Admin    *handler.AdminHandler
	Auth     *handler.AuthHandler
	System   *handler.SystemHandler
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	logger   *zap.Logger
	sessions *middleware.Sessions
	h        Handlers
}

// NewServer - создание нового HTTP сервера
func NewServer(cfg *config.Config, logger *zap.Logger, sessions *middleware.Sessions, h Handlers) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Railway Info",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		logger:   logger,
		sessions: sessions,
		h:        h,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber приложение, для тестов
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(s.sessions.Load())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.Metrics())
	s.app.Use(middleware.CORS(s.config.Server.BaseURL))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Фиды для мониторов в игре
	s.app.Get("/lines.json", s.h.Line.Feed)
	s.app.Get("/operators.json", s.h.Operator.Feed)
	s.app.Get("/setup.lua", s.h.System.SetupScript)

	// Авторизация
	s.app.Get("/login", s.h.Auth.Login)
	s.app.Get("/callback", s.h.Auth.Callback)
	s.app.Get("/logout", s.h.Auth.Logout)

	api := s.app.Group("/api")
	login := middleware.RequireLogin()

	api.Get("/health", s.h.System.Health)
	api.Get("/me", login, s.h.Auth.Me)
	api.Get("/overview", s.h.Overview.Get)

	// Линии
	api.Get("/lines", s.h.Line.GetAll)
	api.Get("/lines/:name", s.h.Line.Get)
	api.Get("/lines/:name/stations", s.h.Line.Stations)
	api.Post("/lines", login, s.h.Line.Create)
	api.Put("/lines/:name", login, s.h.Line.Update)
	api.Delete("/lines/:name", login, s.h.Line.Delete)
	api.Post("/lines/:name/stations", login, s.h.Line.AddStation)
	api.Put("/lines/:name/stations/order", login, s.h.Line.ReorderStations)
	api.Delete("/lines/:name/stations/:station", login, s.h.Line.RemoveStation)

	// Операторы
	api.Get("/operators", s.h.Operator.GetAll)
	api.Post("/operators/request", login, s.h.Request.Submit)
	api.Get("/operators/:uid", s.h.Operator.Get)
	api.Put("/operators/:uid", login, s.h.Operator.Update)
	api.Post("/operators/:uid/members", login, s.h.Operator.AddMember)
	api.Delete("/operators/:uid/members/:user", login, s.h.Operator.RemoveMember)

	// Станции
	api.Get("/stations", s.h.Station.GetAll)
	api.Get("/stations/search/:term", s.h.Station.Search)
	api.Get("/stations/:name", s.h.Station.Get)
	api.Post("/stations", login, s.h.Station.Create)
	api.Put("/stations/:id", login, s.h.Station.Update)
	api.Delete("/stations/:id", login, s.h.Station.Delete)

	// Админка; права проверяются в каждом действии по текущему конфигу
	admin := api.Group("/admin", login)
	admin.Get("/requests", s.h.Request.List)
	admin.Get("/requests/:id", s.h.Request.Get)
	admin.Post("/requests/:id/handle", s.h.Request.Handle)
	admin.Delete("/requests/:id", s.h.Request.Delete)
	admin.Post("/companies/handle-request", s.h.Request.LegacyHandle)
	admin.Delete("/companies/request", s.h.Request.LegacyDelete)
	admin.Delete("/operators/:uid", s.h.Operator.Delete)
	admin.Get("/settings", s.h.Admin.GetSettings)
	admin.Post("/settings", s.h.Admin.SaveSettings)
	admin.Get("/logs", s.h.Admin.Logs)
	admin.Post("/logs/clear", s.h.Admin.ClearLogs)
	admin.Get("/stats", s.h.Admin.Stats)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			if fe.Code >= fiber.StatusInternalServerError {
				logger.Error("HTTP Error", zap.String("path", c.Path()), zap.Int("status", fe.Code), zap.Error(err))
			}
			return utils.SendError(c, errors.New("HTTP_ERROR", fe.Message, fe.Code))
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}
