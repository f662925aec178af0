package main

import (
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vinscan-service/internal/camera"
	"vinscan-service/internal/config"
	"vinscan-service/internal/db"
	httpapi "vinscan-service/internal/http"
	"vinscan-service/internal/metrics"
	"vinscan-service/internal/recognition"
	"vinscan-service/internal/repository"
	"vinscan-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	gdb, err := db.Connect(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := repository.NewInventoryRepository(gdb)
	m := metrics.New(prometheus.DefaultRegisterer)
	permissions := camera.NewManager(cfg.Camera.DenialCooldown)

	local := recognition.NewLocalEngine(cfg.OCR.Languages, log)
	cloud := recognition.NewCloudEngine(
		cfg.Cloud.APIKey,
		cfg.Cloud.BaseURL,
		log,
		recognition.WithModel(cfg.Cloud.Model),
		recognition.WithTimeout(cfg.Cloud.Timeout),
	)
	pipeline := recognition.NewPipeline(local, cloud, m, log)

	scanService := service.NewScanService(pipeline, repo, repo, permissions, m, log)
	handler := httpapi.NewHandler(scanService, permissions, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	handler.Register(router, httpapi.JWTAuthMiddleware(cfg.Auth.JWTSecret))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("starting vinscan service")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
