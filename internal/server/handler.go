package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/afroash/plantlab/internal/metrics"
	"github.com/afroash/plantlab/internal/models"
	"github.com/afroash/plantlab/internal/monitor"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Constants for WebSocket timeouts
const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

// Handler manages WebSocket connections from probe agents
type Handler struct {
	upgrader       websocket.Upgrader
	authToken      string
	svc            *monitor.Service
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	activeProbes   map[string]*ProbeConnection
	connToProbeID  map[string]string // Maps conn.RemoteAddr().String() to probe ID
	allowedOrigins []string
	mutex          sync.RWMutex
}

// ProbeConnection represents an active probe connection
type ProbeConnection struct {
	ProbeID     string `json:"probe_id"`
	Conn        *websocket.Conn
	LastSeen    time.Time
	ConnectedAt time.Time
}

// NewHandler creates a new WebSocket handler
func NewHandler(authToken string, svc *monitor.Service, m *metrics.Metrics, logger zerolog.Logger, allowedOrigins ...string) *Handler {
	h := &Handler{
		authToken:      authToken,
		svc:            svc,
		metrics:        m,
		logger:         logger,
		activeProbes:   make(map[string]*ProbeConnection),
		connToProbeID:  make(map[string]string),
		allowedOrigins: allowedOrigins,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the incoming request's Origin against the configured allowlist
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// No Origin header means same-origin request
	if origin == "" {
		return true
	}

	if len(h.allowedOrigins) == 0 {
		h.logger.Warn().Str("origin", origin).Msg("Rejected WebSocket connection: no allowed origins configured")
		return false
	}

	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	h.logger.Warn().Str("origin", origin).Msg("Rejected WebSocket connection: origin not in allowlist")
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if !h.validateToken(token) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	h.handleConnection(conn)
}

// validateToken checks if the auth token is valid
// Expected header format: "Bearer <token>"
func (h *Handler) validateToken(authHeader string) bool {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	return strings.TrimPrefix(authHeader, "Bearer ") == h.authToken
}

// handleConnection manages a single WebSocket connection
func (h *Handler) handleConnection(conn *websocket.Conn) {
	connKey := conn.RemoteAddr().String()
	probeConn := &ProbeConnection{
		ProbeID:     connKey, // Updated when the first heartbeat arrives
		Conn:        conn,
		LastSeen:    time.Now(),
		ConnectedAt: time.Now(),
	}

	h.mutex.Lock()
	h.activeProbes[connKey] = probeConn
	h.mutex.Unlock()
	h.metrics.ProbeConnected()

	defer conn.Close()
	defer h.removeProbe(connKey)
	defer h.metrics.ProbeDisconnected()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg models.Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
		h.handleMessage(conn, connKey, &msg)
	}
}

// handleMessage processes a single message from a probe
func (h *Handler) handleMessage(conn *websocket.Conn, connKey string, msg *models.Message) {
	h.logger.Debug().Str("type", string(msg.Type)).Msg("Received message")

	switch msg.Type {
	case models.MessageTypeReading:
		h.handleReading(msg)
	case models.MessageTypeBatch:
		h.handleBatch(msg)
	case models.MessageTypeHeartbeat:
		h.handleHeartbeat(connKey, msg)
	default:
		h.logger.Warn().Str("type", string(msg.Type)).Msg("Unknown message type")
	}

	h.sendAck(conn)
}

// handleReading validates and stores a single reading
func (h *Handler) handleReading(msg *models.Message) {
	var reading models.ReadingMessage
	if err := msg.UnmarshalPayload(&reading); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal reading")
		return
	}
	h.storeReading(reading)
}

// handleBatch stores a batch of readings
func (h *Handler) handleBatch(msg *models.Message) {
	var batch models.BatchMessage
	if err := msg.UnmarshalPayload(&batch); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal batch")
		return
	}
	for _, reading := range batch.Readings {
		h.storeReading(reading)
	}
	h.logger.Info().Int("count", batch.Count).Msg("Batch processed")
}

// storeReading runs one reading through the ingestion path. Out-of-range
// and unknown-sensor readings are dropped with a log line; the probe
// keeps streaming either way.
func (h *Handler) storeReading(reading models.ReadingMessage) {
	if !models.ValidPercent(reading.Percent) {
		h.metrics.RecordReject()
		h.logger.Warn().Str("sensor_id", reading.SensorID).Float64("percent", reading.Percent).Msg("Reading ignored: percent out of range")
		return
	}
	result, err := h.svc.Ingest(reading.SensorID, reading.Percent, reading.Raw)
	if err != nil {
		h.metrics.RecordReject()
		h.logger.Warn().Err(err).Str("sensor_id", reading.SensorID).Msg("Reading ignored")
		return
	}
	h.metrics.RecordIngest(result.SensorID)
}

// handleHeartbeat processes a heartbeat message
func (h *Handler) handleHeartbeat(connKey string, msg *models.Message) {
	var heartbeat models.HeartbeatMessage
	if err := msg.UnmarshalPayload(&heartbeat); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal heartbeat")
		return
	}

	h.mutex.Lock()
	if heartbeat.ProbeID != "" {
		if existingID, exists := h.connToProbeID[connKey]; !exists || existingID != heartbeat.ProbeID {
			h.connToProbeID[connKey] = heartbeat.ProbeID
			if probe, ok := h.activeProbes[connKey]; ok {
				probe.ProbeID = heartbeat.ProbeID
			}
		}
	}
	if probe, exists := h.activeProbes[connKey]; exists {
		probe.LastSeen = time.Now()
	}
	h.mutex.Unlock()

	h.logger.Debug().Str("probe_id", heartbeat.ProbeID).Int64("uptime", heartbeat.Uptime).Msg("Heartbeat received")
}

// sendAck sends an acknowledgment message
func (h *Handler) sendAck(conn *websocket.Conn) {
	ack := models.AckMessage{Status: "ok"}
	msg, err := models.NewMessage(models.MessageTypeAck, ack)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create ack message")
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send ack")
	}
}

// removeProbe removes a probe from the active probes map
func (h *Handler) removeProbe(connKey string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	probeID := connKey
	if realID, exists := h.connToProbeID[connKey]; exists {
		probeID = realID
	}
	delete(h.activeProbes, connKey)
	delete(h.connToProbeID, connKey)
	h.logger.Info().Str("probe_id", probeID).Msg("Probe disconnected")
}

// GetActiveProbes returns a list of currently connected probes
func (h *Handler) GetActiveProbes() []ProbeConnection {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	probes := make([]ProbeConnection, 0, len(h.activeProbes))
	for _, probe := range h.activeProbes {
		probes = append(probes, *probe)
	}
	return probes
}
