package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/timeplus-io/soc-dashboard/pkg/api"
	"github.com/timeplus-io/soc-dashboard/pkg/config"
	"github.com/timeplus-io/soc-dashboard/pkg/services"
	"github.com/timeplus-io/soc-dashboard/pkg/simulator"
	"github.com/timeplus-io/soc-dashboard/pkg/storage"
	"github.com/timeplus-io/soc-dashboard/pkg/timeplus"
)

// @title SOC Dashboard API
// @version 1.0
// @description Simulated security operations data with correlation and demo sessions
// @BasePath /api

func main() {
	// Configure Log Level from Environment Variable
	logLevelStr := os.Getenv("LOG_LEVEL")
	switch strings.ToLower(logLevelStr) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
	logrus.Infof("Log level set to: %s", logrus.GetLevel().String())

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Local storage for users and the current session
	store, err := storage.NewFileStorage(afero.NewOsFs(), cfg.Auth.StorageDir)
	if err != nil {
		logrus.Fatalf("Failed to open local storage: %v", err)
	}

	authService, err := services.NewAuthService(store, services.AuthOptions{
		DemoPasswords: cfg.Auth.DemoPasswords,
		BcryptCost:    cfg.Auth.BcryptCost,
	})
	if err != nil {
		logrus.Fatalf("Failed to create auth service: %v", err)
	}

	// Optional telemetry export
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sink services.TelemetrySink
	var tpClient *timeplus.Client
	var publisher *timeplus.Publisher
	if cfg.Timeplus.Enabled {
		tpClient, err = timeplus.NewClient(&cfg.Timeplus)
		if err != nil {
			logrus.Fatalf("Failed to create Timeplus client: %v", err)
		}
		if err := timeplus.SetupStreams(ctx, tpClient); err != nil {
			logrus.Warnf("Failed to set up streams: %v", err)
		}
		publisher = timeplus.NewPublisher(tpClient)
		sink = publisher
		logrus.Infof("Exporting telemetry to Timeplus at %s", cfg.Timeplus.Address)
	}

	// Simulation
	generator := simulator.NewGenerator(cfg.Simulation.Seed)
	incidentService := services.NewIncidentService(cfg.Simulation, generator, sink)
	incidentService.Start(ctx)
	logrus.Info("Incident simulation started")

	config.WatchConfig(func(updated *config.Config) {
		incidentService.UpdateSchedule(updated.Simulation)
	})

	// Set up the Echo server
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// API routes
	apiHandler := api.NewAPIHandler(incidentService, authService)
	apiHandler.SetupRoutes(e)

	if publisher != nil {
		// Row counts of the exported streams over the last hour
		e.GET("/debug/telemetry", func(c echo.Context) error {
			counts, err := publisher.StreamCounts(c.Request().Context(), time.Hour)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Failed to count streams: %v", err)})
			}
			return c.JSON(http.StatusOK, counts)
		})
	}

	// Swagger documentation
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler()))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.Server.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Use PORT environment variable if available, otherwise use config
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      corsHandler.Handler(e),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	incidentService.Shutdown()
	cancel()

	// Create a deadline for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	if tpClient != nil {
		if err := tpClient.Close(); err != nil {
			logrus.Warnf("Failed to close Timeplus client: %v", err)
		}
	}

	logrus.Info("Server exited properly")
}

func allowedOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
