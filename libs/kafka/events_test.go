package kafka

import (
	"testing"
)

func TestNewEnvelopeWithID(t *testing.T) {
	env, err := NewEnvelopeWithID("id-1", "trades.executed", 1, "corr-1")
	if err != nil {
		t.Fatalf("NewEnvelopeWithID: %v", err)
	}
	if env.EventID != "id-1" || env.EventType != "trades.executed" || env.EventVersion != 1 {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}

	if _, err := NewEnvelopeWithID("", "trades.executed", 1, ""); err == nil {
		t.Fatal("empty event id must be rejected")
	}
	if _, err := NewEnvelopeWithID("id-1", "", 1, ""); err == nil {
		t.Fatal("empty event type must be rejected")
	}
	if _, err := NewEnvelopeWithID("id-1", "trades.executed", 0, ""); err == nil {
		t.Fatal("zero version must be rejected")
	}
}

func TestDeterministicEventID(t *testing.T) {
	a := DeterministicEventID("trades.executed", "trade-1")
	b := DeterministicEventID("trades.executed", "trade-1")
	if a != b {
		t.Fatalf("same parts produced %s and %s", a, b)
	}
	if a == DeterministicEventID("trades.executed", "trade-2") {
		t.Fatal("different parts must produce different ids")
	}
	if DeterministicEventID() != "00000000-0000-0000-0000-000000000000" {
		t.Fatal("no parts should map to the nil uuid")
	}
}
