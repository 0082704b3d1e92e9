package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/config"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/handlers"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/server"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// @title Greengrass Local Runtime API
// @version 1.0
// @description Drive the in-process Greengrass runtime: invoke functions, publish messages, manage shadows and secrets

// @host localhost:8081
// @BasePath /api/v1

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	// The HTTP API drives the emulator, whatever the host looks like
	cfg.Runtime.Mode = config.ModeLocal

	container, err := server.NewContainer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize container")
	}
	defer container.Close()
	logger := container.Logger

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlers.SetupRoutes(router, &handlers.RouterConfig{
		Runtime:     container.Local,
		HealthCheck: container.HealthCheck,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":         cfg.Port,
		"function_arn": cfg.Runtime.FunctionARN,
		"store":        cfg.Storage.Type,
	}).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
