package main

import (
	"context"
	"net/http"

	"admin-geocoder/docs"
	"admin-geocoder/internal/cache"
	"admin-geocoder/internal/config"
	"admin-geocoder/internal/geofinder"
	"admin-geocoder/internal/handler"
	"admin-geocoder/internal/logger"
	"admin-geocoder/internal/metrics"
	"admin-geocoder/internal/repository"
	"admin-geocoder/internal/resolver"
	"admin-geocoder/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Setup(config.LogLevel, config.LogFormat)

	// Database connection
	conn, err := pgxpool.New(context.Background(), config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	repo := repository.NewRepository(conn)

	// The index is fully built before the server accepts any request.
	adminResolver, err := resolver.Load(context.Background(), repo, config.Dataset, log.Logger,
		geofinder.RequireBoundaries(config.RequireBoundaries))
	if err != nil {
		log.Fatal().Err(err).Str("stage", "index build").Msg("cannot build boundary index")
	}

	var resolveCache service.ResolveCache
	if config.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer rc.Close()
		resolveCache = cache.NewResolveCache(rc, config.Dataset, config.CacheTTL)
	}

	// Initialize layers
	resolveService := service.NewResolveService(adminResolver, resolveCache, config.CityLevel)
	lookupService := service.NewLookupService(adminResolver)

	resolveHandler := handler.NewResolveHandler(resolveService)
	lookupHandler := handler.NewLookupHandler(lookupService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/admins/resolve", resolveHandler.Resolve)
	r.GET("/admins/code/:code", lookupHandler.AdminByCode)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Info().Str("address", config.ServerAddress).Str("dataset", config.Dataset).Msg("serving admin geocoder")
	if err := r.Run(config.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
