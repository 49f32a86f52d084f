package main

import (
	"aptmarket/server/config"
	"aptmarket/server/internal/api"
	"aptmarket/server/internal/dashboard"
	"aptmarket/server/internal/database"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Infof("Using database at: %s", cfg.Database.Path)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path, database.Options{
		QueryTimeout: cfg.Database.QueryTimeout,
		RetryDelay:   cfg.Database.RetryDelay,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	cities, err := config.LoadCities(cfg.CitiesFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load city list, only the All option is offered")
	}
	logger.WithField("cities", len(cities)).Info("Loaded city list")

	service := dashboard.NewService(db, cities, cfg.PriceOnRequest, logger)
	handler := api.NewHandler(service, logger)

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, handler, cfg.CORSOrigins)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
