package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/access-request-service/internal/adapters/repository/postgres"
	"github.com/ogurasousui/access-request-service/internal/core/catalog"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
	"github.com/ogurasousui/access-request-service/internal/core/request"
	"github.com/ogurasousui/access-request-service/internal/platform/config"
	pg "github.com/ogurasousui/access-request-service/internal/platform/db/postgres"
	"github.com/ogurasousui/access-request-service/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database pool")
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)

	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	catalogRepo := postgres.NewCatalogRepository(dbPool)
	requestRepo := postgres.NewAccessRequestRepository(dbPool)

	directorySvc := directory.NewService(employeeRepo, nil, txManager)
	catalogSvc := catalog.NewService(catalogRepo, nil, txManager)
	requestSvc := request.NewService(requestRepo, directorySvc, catalogSvc, nil, txManager)

	srv := server.New(*cfg, server.Services{
		Directory: directorySvc,
		Catalog:   catalogSvc,
		Request:   requestSvc,
	}, logger)

	logger.WithField("addr", cfg.Server.ListenAddr).Info("HTTP server listening")

	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Fatal("server stopped with error")
	}
}
