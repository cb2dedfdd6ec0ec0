package entity

import "time"

// EventType names a reservation lifecycle change
type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventUpdated   EventType = "reservation.updated"
	EventCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is emitted after a write has been committed
type ReservationEvent struct {
	Type          EventType    `json:"type"`
	ReservationID string       `json:"reservationId"`
	Status        Status       `json:"status"`
	Role          string       `json:"role,omitempty"`
	OccurredAt    time.Time    `json:"occurredAt"`
	Reservation   *Reservation `json:"reservation"`
}
