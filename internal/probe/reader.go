package probe

import (
	"context"
	"time"

	"github.com/afroash/plantlab/internal/models"
	"github.com/rs/zerolog"
)

// Reader orchestrates periodic readings from a moisture source
type Reader struct {
	source    MoistureSource
	probeInfo *models.ProbeInfo
	sensorID  string
	interval  time.Duration
	logger    zerolog.Logger
	readings  chan models.ReadingMessage
}

// NewReader creates a new reader publishing readings for the given
// hub-side sensor id
func NewReader(source MoistureSource, info *models.ProbeInfo, sensorID string, interval time.Duration, logger zerolog.Logger) *Reader {
	return &Reader{
		source:    source,
		probeInfo: info,
		sensorID:  sensorID,
		interval:  interval,
		logger:    logger,
		readings:  make(chan models.ReadingMessage, 10),
	}
}

// Start begins periodic reading from the source.
// Blocks until context is cancelled.
func (r *Reader) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.readAndPublish()
		}
	}
}

// ReadOnce performs a single reading (useful for testing)
func (r *Reader) ReadOnce() (models.ReadingMessage, error) {
	percent, raw, err := r.source.Read()
	if err != nil {
		return models.ReadingMessage{}, err
	}
	return models.ReadingMessage{
		SensorID:  r.sensorID,
		Percent:   percent,
		Raw:       &raw,
		Timestamp: time.Now().Unix(),
	}, nil
}

// readAndPublish performs a read and publishes to the channel
func (r *Reader) readAndPublish() {
	reading, err := r.ReadOnce()
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read moisture source")
		return
	}
	r.readings <- reading
	r.logger.Info().Str("sensor_id", reading.SensorID).Float64("percent", reading.Percent).Msg("read from source")
}

// Readings returns the channel where readings are published
func (r *Reader) Readings() <-chan models.ReadingMessage {
	return r.readings
}

// Close stops the reader and cleans up resources
func (r *Reader) Close() error {
	return r.source.Close()
}
