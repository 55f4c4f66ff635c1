package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/afroash/plantlab/internal/config"
	"github.com/afroash/plantlab/internal/metrics"
	"github.com/afroash/plantlab/internal/monitor"
	"github.com/afroash/plantlab/internal/server"
	"github.com/afroash/plantlab/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const version = "v0.2.0"

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Str("sensors_config", cfg.Sensors.ConfigPath).
		Msg("Starting PlantLab hub")

	sampleStore := store.NewSampleStore(cfg.Storage.BufferSize)
	provider := config.NewFileProvider(cfg.Sensors.ConfigPath, logger)
	svc := monitor.NewService(provider, sampleStore, logger)
	m := metrics.New(prometheus.DefaultRegisterer)

	apiHandler := server.NewAPIHandler(svc, m, logger)
	wsHandler := server.NewHandler(
		cfg.Server.AuthToken,
		svc,
		m,
		logger,
		cfg.Server.AllowedOrigins...,
	)

	mux := http.NewServeMux()

	// Serve the dashboard
	indexPath := filepath.Join(cfg.Server.StaticDir, "index.html")
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		if _, err := os.Stat(indexPath); err != nil {
			http.Error(w, "index.html not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, indexPath)
	})
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Server.StaticDir))))

	// API endpoints
	mux.HandleFunc("/api/config", apiHandler.HandleConfig)
	mux.HandleFunc("/api/sensors", apiHandler.HandleSensors)
	mux.HandleFunc("/api/ingest", apiHandler.HandleIngest)
	mux.HandleFunc("/api/latest", apiHandler.HandleLatest)
	mux.HandleFunc("/api/history", apiHandler.HandleHistory)
	mux.HandleFunc("/api/history/", apiHandler.HandleHistorySensor)
	mux.HandleFunc("/api/stats", apiHandler.HandleStats)

	// Probe WebSocket uplink
	mux.HandleFunc("/sensor-stream", wsHandler.ServeHTTP)

	// Health check and metrics
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, version)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	logger.Info().Msg("Server stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}
