package config

import (
	"encoding/json"
	"os"

	"github.com/afroash/plantlab/internal/models"
	"github.com/rs/zerolog"
)

// Provider supplies the current sensor set and the dashboard alarm
// threshold. Implementations re-read their backing source on every call
// so edits take effect without a restart, and must always return a
// valid, non-empty sensor list.
type Provider interface {
	CurrentSensors() []models.Sensor
	AlarmThreshold() int
}

// DefaultAlarmThreshold is the moisture percent below which the
// dashboard raises an alarm when no threshold is configured.
const DefaultAlarmThreshold = 30

// DefaultSensors returns the built-in sensor set used whenever the
// backing file is missing or malformed.
func DefaultSensors() []models.Sensor {
	return []models.Sensor{
		{ID: "S1", Label: "Bed 1"},
		{ID: "S2", Label: "Bed 2"},
		{ID: "S3", Label: "Bed 3"},
		{ID: "S4", Label: "Bed 4"},
	}
}

// FileProvider reads a sensors JSON file on every access. Any failure
// falls back to the defaults; a bad config file must never break a
// request.
type FileProvider struct {
	path   string
	logger zerolog.Logger
}

// NewFileProvider creates a provider backed by the JSON file at path.
func NewFileProvider(path string, logger zerolog.Logger) *FileProvider {
	return &FileProvider{path: path, logger: logger}
}

type sensorsFile struct {
	AlarmThreshold *int `json:"alarm_threshold"`
	Sensors        []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"sensors"`
}

// CurrentSensors returns the configured sensor list, cleaned: ids
// trimmed and uppercased, entries with empty ids skipped, labels
// defaulting to the id.
func (p *FileProvider) CurrentSensors() []models.Sensor {
	sensors, _ := p.load()
	return sensors
}

// AlarmThreshold returns the configured alarm threshold.
func (p *FileProvider) AlarmThreshold() int {
	_, threshold := p.load()
	return threshold
}

func (p *FileProvider) load() ([]models.Sensor, int) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return DefaultSensors(), DefaultAlarmThreshold
	}

	var f sensorsFile
	if err := json.Unmarshal(data, &f); err != nil {
		p.logger.Warn().Err(err).Str("path", p.path).Msg("Malformed sensors file, using defaults")
		return DefaultSensors(), DefaultAlarmThreshold
	}

	cleaned := make([]models.Sensor, 0, len(f.Sensors))
	for _, s := range f.Sensors {
		id := models.NormalizeSensorID(s.ID)
		if id == "" {
			continue
		}
		label := s.Label
		if label == "" {
			label = id
		}
		cleaned = append(cleaned, models.Sensor{ID: id, Label: label})
	}
	if len(cleaned) == 0 {
		cleaned = DefaultSensors()
	}

	threshold := DefaultAlarmThreshold
	if f.AlarmThreshold != nil {
		threshold = *f.AlarmThreshold
	}
	return cleaned, threshold
}

// Static is a fixed provider, mainly for tests.
type Static struct {
	Sensors   []models.Sensor
	Threshold int
}

func (s *Static) CurrentSensors() []models.Sensor {
	out := make([]models.Sensor, len(s.Sensors))
	copy(out, s.Sensors)
	return out
}

func (s *Static) AlarmThreshold() int {
	if s.Threshold == 0 {
		return DefaultAlarmThreshold
	}
	return s.Threshold
}
