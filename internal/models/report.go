package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is an organization activity report with counters captured at creation.
type Report struct {
	ID                uuid.UUID  `json:"id"`
	UKMID             uuid.UUID  `json:"ukm_id"`
	EventID           *uuid.UUID `json:"event_id,omitempty"`
	Title             string     `json:"title"`
	Content           string     `json:"content,omitempty"`
	MemberCount       int        `json:"member_count"`
	EventCount        int        `json:"event_count"`
	RegistrationCount int        `json:"registration_count"`
	CreatedBy         uuid.UUID  `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NotificationKind identifies a queued notification.
const (
	NotificationMembershipJoined = "membership_joined"
	NotificationEventRegistered  = "event_registered"
	NotificationPasswordReset    = "password_reset"
)

// Notification log delivery status.
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotificationLog records a delivered (or failed) notification.
type NotificationLog struct {
	ID             uuid.UUID  `json:"id"`
	JobID          string     `json:"job_id"`
	Kind           string     `json:"kind"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
