package amqp

import (
	"testing"
	"time"
)

func TestReportSyncMessageJSON(t *testing.T) {
	msg := NewReportSyncMessage("trip-42")
	if msg.TripID != "trip-42" {
		t.Errorf("trip id = %q", msg.TripID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := ReportSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.TripID != msg.TripID {
		t.Errorf("trip id = %q, want %q", decoded.TripID, msg.TripID)
	}
	if !decoded.Timestamp.Equal(msg.Timestamp.Truncate(time.Nanosecond)) {
		t.Errorf("timestamp = %v, want %v", decoded.Timestamp, msg.Timestamp)
	}
}

func TestReportSyncMessageFromInvalidJSON(t *testing.T) {
	if _, err := ReportSyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
