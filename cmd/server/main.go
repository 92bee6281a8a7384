package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/aa12gq/desahogos-moderation/internal/app/config"
	"github.com/aa12gq/desahogos-moderation/internal/app/di"
	"github.com/aa12gq/desahogos-moderation/internal/app/service"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	container, err := di.BuildContainer(*configPath)
	if err != nil {
		log.Fatalf("Failed to build dependency container: %v", err)
	}

	if err := container.Invoke(run); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger, sugar *zap.SugaredLogger, moderation *service.ModerationService, redisClient *redis.Client) error {
	defer zapLogger.Sync()

	sugar.Info("Starting desahogos moderation service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Lexicon.Path != "" && cfg.Lexicon.ReloadInterval > 0 {
		go moderation.RunLexiconReload(ctx, time.Duration(cfg.Lexicon.ReloadInterval)*time.Second)
	}

	grpcServer := grpc.NewServer()
	service.RegisterGRPCServer(grpcServer, moderation, sugar)

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	service.RegisterHTTPHandlers(ginEngine, moderation, sugar)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	go func() {
		sugar.Infof("gRPC server started on port %d", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(grpcListener); err != nil {
			sugar.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: ginEngine,
	}

	go func() {
		sugar.Infof("HTTP server started on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("Server forced to shutdown: %v", err)
	}

	grpcServer.GracefulStop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			sugar.Errorf("Failed to close Redis client: %v", err)
		}
	}

	sugar.Info("Server exiting")
	return nil
}
