package repository

import (
	"context"

	"table-reservation-service/internal/domain/entity"
)

// EventRepository defines the interface for publishing reservation lifecycle events
type EventRepository interface {
	Publish(ctx context.Context, event entity.ReservationEvent) error
	Close() error
}
