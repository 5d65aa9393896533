package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration is a user's registration for an event.
type Registration struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	EventID      uuid.UUID `json:"event_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ParticipantUser is the user projection shown in participant lists.
type ParticipantUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	StudentID string    `json:"student_id,omitempty"`
	Faculty   string    `json:"faculty,omitempty"`
}

// Participant is one row of an event's participant list.
type Participant struct {
	ParticipantID uuid.UUID       `json:"participant_id"`
	User          ParticipantUser `json:"user"`
	RegisteredAt  time.Time       `json:"registered_at"`
}

// UserRegistration is a registration as seen from the user's side (GET /me).
type UserRegistration struct {
	EventID      uuid.UUID  `json:"event_id"`
	EventName    string     `json:"event_name"`
	UKMID        uuid.UUID  `json:"ukm_id"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	RegisteredAt time.Time  `json:"registered_at"`
}
