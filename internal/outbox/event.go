// Package outbox records identity events and relays them to Kafka.
//
// Events are written in the same transaction as the contact changes that
// caused them. A Relay drains unpublished entries and hands them to a
// Publisher; entries that fail to publish stay pending for the next tick.
package outbox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// EventType names an identity event.
type EventType string

const (
	// TypeCreated: a new identity was started with a fresh primary.
	TypeCreated EventType = "contact.created"
	// TypeLinked: a new secondary was attached to an existing primary.
	TypeLinked EventType = "contact.linked"
	// TypeMerged: a former primary was demoted under an older one.
	TypeMerged EventType = "contact.merged"
)

// Event is one identity change.
type Event struct {
	ID               uuid.UUID
	Type             EventType
	PrimaryContactID int64
	// ContactID is the inserted contact for created/linked and the demoted
	// primary for merged.
	ContactID int64
	// Repointed counts the contacts moved under the primary by a merge.
	Repointed  int
	RequestID  string
	OccurredAt time.Time
}

// NewEvent stamps an event with a fresh ID.
func NewEvent(eventType EventType, primaryID, contactID int64, occurredAt time.Time) Event {
	return Event{
		ID:               uuid.New(),
		Type:             eventType,
		PrimaryContactID: primaryID,
		ContactID:        contactID,
		OccurredAt:       occurredAt,
	}
}

// AggregateID is the partitioning key of the event: every event of one
// identity lands on the same partition.
func (e Event) AggregateID() string {
	return strconv.FormatInt(e.PrimaryContactID, 10)
}

// payload is the JSON document published to Kafka.
type payload struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	PrimaryContactID int64  `json:"primaryContactId"`
	ContactID        int64  `json:"contactId"`
	Repointed        int    `json:"repointed,omitempty"`
	RequestID        string `json:"requestId,omitempty"`
	OccurredAt       string `json:"occurredAt"`
}

// Payload encodes the event for publishing.
func (e Event) Payload() ([]byte, error) {
	b, err := json.Marshal(payload{
		ID:               e.ID.String(),
		Type:             string(e.Type),
		PrimaryContactID: e.PrimaryContactID,
		ContactID:        e.ContactID,
		Repointed:        e.Repointed,
		RequestID:        e.RequestID,
		OccurredAt:       e.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return b, nil
}

// Entry is a stored, not yet published event.
type Entry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   EventType
	Payload     []byte
	CreatedAt   time.Time
}

func entryFromEvent(e Event) (Entry, error) {
	body, err := e.Payload()
	if err != nil {
		return Entry{}, err
	}
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return Entry{
		ID:          id,
		AggregateID: e.AggregateID(),
		EventType:   e.Type,
		Payload:     body,
		CreatedAt:   e.OccurredAt,
	}, nil
}
