package amqp

import (
	"encoding/json"
	"time"
)

// ReportSyncMessage asks the report worker to re-export one trip. It carries
// only the trip ID; the worker reads the current trip and expenses through
// the remote service, so a burst of mutations collapses into exports of the
// latest state.
type ReportSyncMessage struct {
	TripID    string    `json:"trip_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportSyncMessage(tripID string) *ReportSyncMessage {
	return &ReportSyncMessage{
		TripID:    tripID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ReportSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportSyncMessageFromJSON(data []byte) (*ReportSyncMessage, error) {
	var msg ReportSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
