package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afroash/plantlab/internal/client"
	"github.com/afroash/plantlab/internal/config"
	"github.com/afroash/plantlab/internal/models"
	"github.com/afroash/plantlab/internal/probe"

	"github.com/rs/zerolog"
)

const version = "v0.2.0"

// batchSize is how many buffered readings drain per uplink flush.
const batchSize = 50

func main() {
	configPath := flag.String("config", "configs/probe.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadProbeConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	logger.Info().
		Str("version", version).
		Str("probe_id", cfg.Probe.ID).
		Str("url", cfg.Server.URL).
		Msg("Starting PlantLab probe agent")

	info := models.NewProbeInfo(cfg.Probe.ID, cfg.Probe.Site, version)

	source := probe.NewSyntheticSource()
	reader := probe.NewReader(source, info, cfg.Probe.ID, cfg.Probe.ReadInterval, logger)
	defer reader.Close()

	buffer := client.NewReadingBuffer(cfg.Buffer.Size, cfg.Buffer.DropOldest)

	conn := client.NewConnection(client.ConnectionConfig{
		URL:                  cfg.Server.URL,
		AuthToken:            cfg.Server.AuthToken,
		ConnectTimeout:       cfg.Server.ConnectTimeout,
		ReconnectInterval:    cfg.Server.ReconnectInterval,
		MaxReconnectInterval: cfg.Server.MaxReconnectInterval,
		PingInterval:         cfg.Server.PingInterval,
		PongTimeout:          cfg.Server.PongTimeout,
	}, info, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := reader.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Reader stopped")
		}
	}()

	go func() {
		if err := conn.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Connection manager stopped")
		}
	}()

	// Buffer readings and drain in batches whenever the uplink is up
	go func() {
		flush := time.NewTicker(cfg.Probe.ReadInterval)
		defer flush.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case reading := <-reader.Readings():
				buffer.Push(reading)
			case <-flush.C:
				if !conn.IsConnected() || buffer.IsEmpty() {
					continue
				}
				batch := buffer.PopBatch(batchSize)
				if err := conn.SendBatch(batch); err != nil {
					logger.Warn().Err(err).Int("count", len(batch)).Msg("Batch send failed, re-buffering")
					for _, r := range batch {
						buffer.Push(r)
					}
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Int("buffered", buffer.Size()).Msg("Shutting down probe agent")
	cancel()
}
