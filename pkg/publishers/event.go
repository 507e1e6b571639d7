package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-trend-scout/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	SourceID    string        `json:"source_id"`
	SourceName  string        `json:"source_name"`
	Record      domain.Record `json:"record"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NewEvent constructs an Event for the given source + record.
func NewEvent(sourceID, sourceName string, record domain.Record) Event {
	return Event{
		SourceID:    sourceID,
		SourceName:  sourceName,
		Record:      record,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are copied onto every broker message for consumer-side filtering.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"source_id":     e.SourceID,
		"record_source": e.Record.Source,
	}
}
