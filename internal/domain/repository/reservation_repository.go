package repository

import (
	"context"

	"table-reservation-service/internal/domain/entity"
)

// ReservationRepository defines the persistence contract for reservations.
// Implementations assign ID, CreatedAt and UpdatedAt, return an error wrapping
// entity.ErrNotFound for unknown IDs, and apply every write atomically per document.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id string) (*entity.Reservation, error)
	Update(ctx context.Context, id string, patch entity.ReservationPatch) (*entity.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Reservation, error)
	// Find returns matches sorted by arrivalTime then id, both ascending
	Find(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error)
	Ping(ctx context.Context) error
}
