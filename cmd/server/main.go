package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ViktorAgafonov/ForecastOrder/internal/api"
	"github.com/ViktorAgafonov/ForecastOrder/internal/config"
	"github.com/ViktorAgafonov/ForecastOrder/internal/mapping"
	"github.com/ViktorAgafonov/ForecastOrder/internal/service"
	"github.com/ViktorAgafonov/ForecastOrder/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.App.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := mapping.Open(cfg.App.MappingFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.App.MappingFile).Msg("Failed to open mapping store")
	}

	analyzer := service.NewAnalyzer(cfg, store)

	router := api.NewRouter(analyzer, cfg)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
