package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/afroash/plantlab/internal/config"
	"github.com/afroash/plantlab/internal/metrics"
	"github.com/afroash/plantlab/internal/models"
	"github.com/afroash/plantlab/internal/monitor"
	"github.com/afroash/plantlab/internal/store"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const testToken = "test-token-123"

func newTestHandler(t *testing.T, origins ...string) (*Handler, *monitor.Service) {
	t.Helper()
	st := store.NewSampleStore(100)
	svc := monitor.NewService(&config.Static{Sensors: testSensors()}, st, zerolog.Nop())
	m := metrics.New(prometheus.NewRegistry())
	return NewHandler(testToken, svc, m, zerolog.Nop(), origins...), svc
}

func TestValidateToken(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", "Bearer " + testToken, true},
		{"wrong token", "Bearer wrong", false},
		{"missing prefix", testToken, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.validateToken(tt.header); got != tt.want {
				t.Errorf("validateToken(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"no origin header", nil, "", true},
		{"no allowlist rejects cross-origin", nil, "https://evil.example.com", false},
		{"allowed origin", []string{"https://dash.example.com"}, "https://dash.example.com", true},
		{"origin not in allowlist", []string{"https://dash.example.com"}, "https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, tt.origins...)
			req := httptest.NewRequest(http.MethodGet, "/sensor-stream", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkOrigin(req); got != tt.want {
				t.Errorf("checkOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServeHTTP_Unauthorized(t *testing.T) {
	h, _ := newTestHandler(t)
	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func dialProbe(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	header.Set("Authorization", "Bearer "+testToken)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func sendAndAwaitAck(t *testing.T, conn *websocket.Conn, msgType models.MessageType, payload any) {
	t.Helper()
	msg, err := models.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack models.Message
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("reading ack failed: %v", err)
	}
	if ack.Type != models.MessageTypeAck {
		t.Fatalf("response type = %v, want ack", ack.Type)
	}
}

func TestHandler_ReadingStoredViaWebSocket(t *testing.T) {
	h, svc := newTestHandler(t)
	server := httptest.NewServer(h)
	defer server.Close()

	conn := dialProbe(t, server)
	defer conn.Close()

	sendAndAwaitAck(t, conn, models.MessageTypeReading, models.ReadingMessage{
		SensorID:  "s1",
		Percent:   42.5,
		Timestamp: time.Now().Unix(),
	})

	snap := svc.Latest()
	for _, v := range snap.Values {
		if v.SensorID == "S1" {
			if v.Percent == nil || *v.Percent != 42.5 {
				t.Errorf("S1 = %+v, want percent 42.5", v)
			}
			return
		}
	}
	t.Error("S1 not present in latest snapshot")
}

func TestHandler_BatchStoredViaWebSocket(t *testing.T) {
	h, svc := newTestHandler(t)
	server := httptest.NewServer(h)
	defer server.Close()

	conn := dialProbe(t, server)
	defer conn.Close()

	sendAndAwaitAck(t, conn, models.MessageTypeBatch, models.BatchMessage{
		Readings: []models.ReadingMessage{
			{SensorID: "S1", Percent: 40.0},
			{SensorID: "S2", Percent: 41.0},
		},
		Count: 2,
	})

	stats := svc.Stats()
	if stats.TotalAppended != 2 {
		t.Errorf("TotalAppended = %d, want 2", stats.TotalAppended)
	}
}

func TestHandler_InvalidReadingDropped(t *testing.T) {
	h, svc := newTestHandler(t)
	server := httptest.NewServer(h)
	defer server.Close()

	conn := dialProbe(t, server)
	defer conn.Close()

	// Out of range and unknown sensor are both dropped, connection stays up
	sendAndAwaitAck(t, conn, models.MessageTypeReading, models.ReadingMessage{
		SensorID: "S1",
		Percent:  150.0,
	})
	sendAndAwaitAck(t, conn, models.MessageTypeReading, models.ReadingMessage{
		SensorID: "S9",
		Percent:  50.0,
	})

	if stats := svc.Stats(); stats.TotalAppended != 0 {
		t.Errorf("TotalAppended = %d, want 0 (both readings dropped)", stats.TotalAppended)
	}
}

func TestHandler_HeartbeatTracksProbe(t *testing.T) {
	h, _ := newTestHandler(t)
	server := httptest.NewServer(h)
	defer server.Close()

	conn := dialProbe(t, server)
	defer conn.Close()

	sendAndAwaitAck(t, conn, models.MessageTypeHeartbeat, models.HeartbeatMessage{
		ProbeID: "P1",
		Uptime:  120,
	})

	probes := h.GetActiveProbes()
	if len(probes) != 1 {
		t.Fatalf("active probes = %d, want 1", len(probes))
	}
	if probes[0].ProbeID != "P1" {
		t.Errorf("ProbeID = %q, want P1", probes[0].ProbeID)
	}
}

func TestHandler_DisconnectRemovesProbe(t *testing.T) {
	h, _ := newTestHandler(t)
	server := httptest.NewServer(h)
	defer server.Close()

	conn := dialProbe(t, server)

	sendAndAwaitAck(t, conn, models.MessageTypeHeartbeat, models.HeartbeatMessage{ProbeID: "P1"})
	conn.Close()

	// The read loop needs a moment to observe the close
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(h.GetActiveProbes()) == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("probe still registered after disconnect")
}
