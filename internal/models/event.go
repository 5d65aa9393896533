package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the optional lifecycle state of an event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventFinished  EventStatus = "finished"
	EventCancelled EventStatus = "cancelled"
)

// ParseEventStatus validates a status. Blank means unset.
func ParseEventStatus(s string) (EventStatus, error) {
	switch EventStatus(s) {
	case "", EventUpcoming, EventOngoing, EventFinished, EventCancelled:
		return EventStatus(s), nil
	default:
		return "", fmt.Errorf("invalid event status %q", s)
	}
}

// Event belongs to exactly one organization.
type Event struct {
	ID          uuid.UUID   `json:"id"`
	UKMID       uuid.UUID   `json:"ukm_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	EventDate   *time.Time  `json:"event_date,omitempty"`
	Location    string      `json:"location,omitempty"`
	Status      EventStatus `json:"status,omitempty"`
	CreatedBy   *uuid.UUID  `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
