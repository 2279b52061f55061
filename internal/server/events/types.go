// Package events fans catalog and refresh events out to the realtime
// transports. The pricemap hooks publish into a Broker; each transport
// (WebSocket, SSE) is registered as a Subscriber.
package events

import "time"

// EventType names an event.
type EventType string

// Event types.
const (
	RecordAdded   EventType = "record.added"
	RecordUpdated EventType = "record.updated"
	RecordRemoved EventType = "record.removed"

	RefreshStarted   EventType = "refresh.started"
	RefreshCompleted EventType = "refresh.completed"
	RefreshFailed    EventType = "refresh.failed"

	ClientConnected EventType = "client.connected"
)

// Event is one published event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
