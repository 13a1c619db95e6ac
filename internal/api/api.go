package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ViktorAgafonov/ForecastOrder/internal/api/handlers"
	"github.com/ViktorAgafonov/ForecastOrder/internal/api/middleware"
	"github.com/ViktorAgafonov/ForecastOrder/internal/config"
	"github.com/ViktorAgafonov/ForecastOrder/internal/service"
)

func NewRouter(analyzer *service.Analyzer, cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins, allowAll := normalizeAllowedOrigins(cfg.Server.AllowedOrigins); allowAll {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else if len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	analysisHandler := handlers.NewAnalysisHandler(analyzer, cfg.App.UploadDir, cfg.App.ExportDir)
	analysisGroup := apiGroup.Group("/analysis")
	{
		analysisGroup.POST("/upload", analysisHandler.Upload)
		analysisGroup.GET("/:id", analysisHandler.Status)
		analysisGroup.GET("/:id/result", analysisHandler.Result)
		analysisGroup.GET("/:id/recommendations", analysisHandler.Recommendations)
		analysisGroup.GET("/:id/export", analysisHandler.Export)
	}

	mappingHandler := handlers.NewMappingHandler(analyzer.Store())
	mappingGroup := apiGroup.Group("/mapping/groups")
	{
		mappingGroup.GET("", mappingHandler.List)
		mappingGroup.GET("/:id", mappingHandler.Get)
		mappingGroup.PUT("/:id", mappingHandler.Rename)
		mappingGroup.POST("/merge", mappingHandler.Merge)
		mappingGroup.POST("/:id/members", mappingHandler.AddMember)
		mappingGroup.DELETE("/:id/members", mappingHandler.RemoveMember)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
