package amqp

import (
	"testing"
)

func TestChangeMessageRoundTrip(t *testing.T) {
	msg := NewChangeMessage("debts", "pay", "d1")
	if msg.Timestamp.IsZero() {
		t.Error("NewChangeMessage() left Timestamp zero")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	got, err := ChangeMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON() error = %v", err)
	}
	if got.Collection != "debts" || got.Action != "pay" || got.Ref != "d1" {
		t.Errorf("round trip = %+v, want debts/pay/d1", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, msg.Timestamp)
	}
}

func TestChangeMessageFromJSONInvalid(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte(`{broken`)); err == nil {
		t.Error("ChangeMessageFromJSON() accepted malformed JSON")
	}
}
