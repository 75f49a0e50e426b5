package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventTypeCardsCommitted is emitted after an import session persists
// its selected drafts as cards.
const EventTypeCardsCommitted = "cards_committed"

// CardsCommittedPayload describes one successful commit: which
// direction received cards and which cards were created.
type CardsCommittedPayload struct {
	DirectionID uuid.UUID   `json:"direction_id"`
	CardIDs     []uuid.UUID `json:"card_ids"`
	CommittedAt time.Time   `json:"committed_at"`
}

// Event represents a typed notification published by a service.
// It carries its payload as JSON so handlers do not depend on the
// emitting package's types.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type names the kind of event (e.g. cards_committed)
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	// Serialize the payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
