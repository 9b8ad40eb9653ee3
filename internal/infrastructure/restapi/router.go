package restapi

import (
	"charts_demo/internal/config"
	"charts_demo/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(handler *ChartsHandler, cfg *config.Config, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(utils.ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/", handler.RootHandler)

	api := router.Group("/api")
	{
		api.GET("/trending-charts", handler.GetTrendingChartsHandler)
		api.POST("/record-choice", handler.RecordChoiceHandler)
		api.GET("/session-results/:session_id", handler.GetSessionResultsHandler)
		api.GET("/generate-session", handler.GenerateSessionHandler)
		api.POST("/store-trending-metadata", handler.StoreTrendingMetadataHandler)
		api.GET("/get-trending-metadata/:session_id", handler.GetTrendingMetadataHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger UI отдает статическую спецификацию, без swag-генерации.
	if cfg.Swagger.Enabled {
		router.StaticFile("/docs/swagger.yaml", "./docs/swagger.yaml")
		swaggerURL := ginSwagger.URL("/docs/swagger.yaml")
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	}

	return router
}
