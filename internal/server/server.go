package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"telecast/internal/service"
	"telecast/pkg/config"
	"telecast/pkg/logger"
	"telecast/pkg/validator"
)

type Opts struct {
	fx.In

	Service *service.Service
	Config  *config.Config
	Logger  logger.Logger
}

// Server owns the HTTP surface: post management, channel registration and
// the inbound platform webhook.
type Server struct {
	Echo    *echo.Echo
	Service *service.Service
	Config  *config.Config
	Logger  logger.Logger
}

func New(opts Opts) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		Echo:    e,
		Service: opts.Service,
		Config:  opts.Config,
		Logger:  opts.Logger.WithComponent("Server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.Echo.Group("/api/v1")

	api.PUT("/posts", s.upsertPost)
	api.POST("/posts", s.upsertPost)
	api.GET("/posts", s.listPosts)
	api.GET("/posts/:id", s.getPost)
	api.DELETE("/posts/:id", s.deletePost)
	api.POST("/posts/:id/send", s.sendPostNow)

	api.GET("/channels", s.listChannels)
	api.DELETE("/channels/:id", s.deleteChannel)

	api.POST("/telegram/webhook", s.telegramWebhook)
}
