package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/access-request-service/internal/adapters/http/handler"
	"github.com/ogurasousui/access-request-service/internal/adapters/http/middleware"
	"github.com/ogurasousui/access-request-service/internal/core/catalog"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
	"github.com/ogurasousui/access-request-service/internal/core/request"
	"github.com/ogurasousui/access-request-service/internal/platform/config"
)

const shutdownTimeout = 10 * time.Second

// Services はサーバーが公開するユースケースの束です。
type Services struct {
	Directory directory.UseCase
	Catalog   catalog.UseCase
	Request   request.UseCase
}

// Server は HTTP サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	app        *fiber.App
}

// New は指定されたアドレスで待ち受ける HTTP サーバーを構築します。
func New(cfg config.Config, services Services, logger *logrus.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "access-request-service",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))

	registerRoutes(app, cfg, services)

	return &Server{
		listenAddr: cfg.Server.ListenAddr,
		app:        app,
	}
}

func registerRoutes(app *fiber.App, cfg config.Config, services Services) {
	authHandler := handler.NewAuthHandler(services.Directory, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	directoryHandler := handler.NewDirectoryHandler(services.Directory)
	catalogHandler := handler.NewCatalogHandler(services.Catalog)
	requestHandler := handler.NewRequestHandler(services.Request, services.Directory)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Post("/auth/token", authHandler.IssueToken)

	authRequired := middleware.AuthRequired(cfg.Auth.JWTSecret)

	dir := api.Group("/directory", authRequired)
	dir.Post("/managers", directoryHandler.RegisterManager)
	dir.Post("/employees", directoryHandler.RegisterSubordinate)
	dir.Get("/employees/:id", directoryHandler.GetEmployee)
	dir.Get("/employees/:id/subordinates", directoryHandler.ListSubordinates)

	cat := api.Group("/catalog", authRequired)
	cat.Post("/resources", catalogHandler.CreateResource)
	cat.Get("/resources", catalogHandler.ListResources)
	cat.Post("/access-levels", catalogHandler.CreateAccessLevel)
	cat.Get("/access-levels", catalogHandler.ListAccessLevels)

	req := api.Group("/requests", authRequired)
	req.Post("", requestHandler.Submit)
	req.Get("/mine", requestHandler.ListMine)
	req.Get("/approvals", requestHandler.ListApprovals)
	req.Get("/:id", requestHandler.GetDetail)
	req.Post("/:id/decision", requestHandler.Decide)
	req.Post("/:id/cancel", requestHandler.Cancel)

	reports := api.Group("/reports", authRequired)
	reports.Get("/audit-log", requestHandler.AuditLog)
	reports.Get("/permissions", requestHandler.ApprovedGrants)
	reports.Get("/pending", requestHandler.PendingAging)
}

// Run はサーバーを起動し、コンテキストがキャンセルされると安全に停止します。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.listenAddr)
	}()

	select {
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve HTTP on %s: %w", s.listenAddr, err)
		}
		return nil
	}
}

// App はルーティング済みの fiber.App を返します。ハンドラのテストで使用します。
func (s *Server) App() *fiber.App {
	return s.app
}
