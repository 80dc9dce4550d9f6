package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"licensing-webhooks/internal/config"
	"licensing-webhooks/internal/handler"
	"licensing-webhooks/internal/service"
)

type Server struct {
	echo              *echo.Echo
	fastSpringHandler *handler.FastSpringHandler
	paddleHandler     *handler.PaddleHandler
}

func NewServer(cfg *config.Config, fastSpringService service.FastSpringService, paddleService service.PaddleService) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:              e,
		fastSpringHandler: handler.NewFastSpringHandler(fastSpringService, &cfg.FastSpring),
		paddleHandler:     handler.NewPaddleHandler(paddleService, &cfg.Paddle),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	webhooks := api.Group("/webhooks")
	webhooks.POST("/fastspring", s.fastSpringHandler.Webhook)
	webhooks.POST("/paddle", s.paddleHandler.Webhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
