package events

import "time"

// Event is something that happened in one game
type Event interface {
	Type() string
	Timestamp() time.Time
	GameID() string
}

// BaseEvent carries the fields every event shares
type BaseEvent struct {
	EventType string    `json:"type"`
	Time      time.Time `json:"timestamp"`
	Game      string    `json:"game_id"`
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) GameID() string       { return e.Game }

// EventMetadata places an event in the game. PlayerID is a seat index and
// is only meaningful on player events.
type EventMetadata struct {
	PlayerID int `json:"player_id,omitempty"`
	Turn     int `json:"turn,omitempty"`
}

// Handler processes one event
type Handler func(Event)

// Subscriber receives the event types it is interested in
type Subscriber interface {
	ID() string
	HandleEvent(Event)
	InterestedIn(eventType string) bool
}

// Publisher is the side of the bus engine components see
type Publisher interface {
	Publish(Event)
}
