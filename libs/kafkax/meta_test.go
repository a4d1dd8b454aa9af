package kafkax

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestExtractEventMetaFromHeaders(t *testing.T) {
	msg := kafka.Message{
		Topic: "clinic.appointment.booked.v1",
		Key:   []byte("appt-1"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte("evt-42")},
			{Key: "event_type", Value: []byte("clinic.appointment.booked.v1")},
		},
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-42" {
		t.Fatalf("expected event id evt-42, got %q", meta.EventID)
	}
	if meta.EventType != "clinic.appointment.booked.v1" {
		t.Fatalf("unexpected event type %q", meta.EventType)
	}
}

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	msg := kafka.Message{
		Topic: "clinic.appointment.cancelled.v1",
		Key:   []byte("appt-9"),
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "appt-9" {
		t.Fatalf("expected key fallback, got %q", meta.EventID)
	}
	if meta.EventType != "clinic.appointment.cancelled.v1" {
		t.Fatalf("expected topic fallback, got %q", meta.EventType)
	}
}

func TestSplitBrokers(t *testing.T) {
	for raw, want := range map[string]int{
		"":                     0,
		"localhost:9092":       1,
		"a:9092, b:9092 ,":     2,
		"a:9092,b:9092,c:9092": 3,
		" , ,":                 0,
	} {
		if got := SplitBrokers(raw); len(got) != want {
			t.Fatalf("SplitBrokers(%q) = %v, expected %d brokers", raw, got, want)
		}
	}
}
