package models

import (
	"encoding/json"
	"testing"
)

func TestNewMessage(t *testing.T) {
	reading := ReadingMessage{
		SensorID:  "S1",
		Percent:   42.5,
		Timestamp: 1700000000,
	}

	msg, err := NewMessage(MessageTypeReading, reading)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	if msg.Type != MessageTypeReading {
		t.Errorf("Type = %v, want %v", msg.Type, MessageTypeReading)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if len(msg.Payload) == 0 {
		t.Error("Payload should not be empty")
	}
}

func TestMessage_UnmarshalPayload(t *testing.T) {
	raw := 1740
	original := ReadingMessage{
		SensorID:  "S1",
		Percent:   42.5,
		Raw:       &raw,
		Timestamp: 1700000000,
	}

	msg, err := NewMessage(MessageTypeReading, original)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	var decoded ReadingMessage
	if err := msg.UnmarshalPayload(&decoded); err != nil {
		t.Fatalf("UnmarshalPayload failed: %v", err)
	}

	if decoded.SensorID != original.SensorID {
		t.Errorf("SensorID mismatch")
	}
	if decoded.Percent != original.Percent {
		t.Errorf("Percent mismatch")
	}
	if decoded.Raw == nil || *decoded.Raw != raw {
		t.Errorf("Raw = %v, want %d", decoded.Raw, raw)
	}
}

func TestBatchMessage(t *testing.T) {
	readings := []ReadingMessage{
		{SensorID: "S1", Percent: 42.5, Timestamp: 1700000000},
		{SensorID: "S2", Percent: 43.0, Timestamp: 1700000030},
	}

	batch := BatchMessage{
		Readings: readings,
		Count:    len(readings),
	}

	msg, err := NewMessage(MessageTypeBatch, batch)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	var decoded BatchMessage
	if err := msg.UnmarshalPayload(&decoded); err != nil {
		t.Fatalf("UnmarshalPayload failed: %v", err)
	}

	if decoded.Count != 2 {
		t.Errorf("Count = %d, want 2", decoded.Count)
	}
	if len(decoded.Readings) != 2 {
		t.Errorf("len(Readings) = %d, want 2", len(decoded.Readings))
	}
}

func TestMessage_JSONRoundtrip(t *testing.T) {
	reading := ReadingMessage{
		SensorID:  "S1",
		Percent:   42.5,
		Timestamp: 1700000000,
	}

	msg, err := NewMessage(MessageTypeReading, reading)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Type != msg.Type {
		t.Errorf("Type mismatch")
	}

	var decodedReading ReadingMessage
	if err := decoded.UnmarshalPayload(&decodedReading); err != nil {
		t.Fatalf("UnmarshalPayload failed: %v", err)
	}
	if decodedReading.SensorID != reading.SensorID {
		t.Error("Payload mismatch")
	}
}
