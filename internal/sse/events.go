// Package sse pushes storefront updates to browsing clients over Server-Sent Events.
package sse

import "time"

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is sent once when a stream opens.
	EventConnected EventType = "connected"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
	// EventPhotosPaid is sent to clients browsing an album when some of its
	// photos were just marked paid.
	EventPhotosPaid EventType = "photos.paid"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// AlbumID limits delivery to clients browsing that album.
	// Empty means every client.
	AlbumID string `json:"-"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// PhotosPaidEventData is the data payload for photos.paid events.
type PhotosPaidEventData struct {
	AlbumID  string   `json:"album_id"`
	PhotoIDs []string `json:"photo_ids"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// NewPhotosPaidEvent creates a photos.paid event scoped to albumID.
func NewPhotosPaidEvent(albumID string, photoIDs []string) Event {
	return Event{
		Type: EventPhotosPaid,
		Data: PhotosPaidEventData{
			AlbumID:  albumID,
			PhotoIDs: photoIDs,
		},
		Timestamp: time.Now(),
		AlbumID:   albumID,
	}
}
