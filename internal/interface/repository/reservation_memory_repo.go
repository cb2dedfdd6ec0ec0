package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/domain/repository"
)

// RecordValidator checks a merged document before it is committed
type RecordValidator interface {
	ValidateRecord(res *entity.Reservation) error
}

// MemoryReservationRepository keeps reservations in a map guarded by a mutex
type MemoryReservationRepository struct {
	mu        sync.RWMutex
	items     map[string]*entity.Reservation
	validator RecordValidator
	now       func() time.Time
}

// NewMemoryReservationRepository creates an empty in-memory store. validator may be nil.
func NewMemoryReservationRepository(validator RecordValidator) *MemoryReservationRepository {
	return &MemoryReservationRepository{
		items:     make(map[string]*entity.Reservation),
		validator: validator,
		now:       time.Now,
	}
}

var _ repository.ReservationRepository = (*MemoryReservationRepository)(nil)

// Create stores a copy of reservation and assigns its id and timestamps
func (r *MemoryReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.timestamp()
	reservation.ID = primitive.NewObjectID().Hex()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	r.items[reservation.ID] = reservation.Clone()
	return nil
}

// FindByID returns a copy of the stored reservation
func (r *MemoryReservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.items[id]
	if !ok {
		return nil, &entity.NotFoundError{ID: id}
	}
	return res.Clone(), nil
}

// Update merges patch into the stored reservation and validates the result before committing
func (r *MemoryReservationRepository) Update(ctx context.Context, id string, patch entity.ReservationPatch) (*entity.Reservation, error) {
	return r.mutate(ctx, id, func(res *entity.Reservation) { res.Apply(patch) })
}

// UpdateStatus sets only the status
func (r *MemoryReservationRepository) UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Reservation, error) {
	return r.mutate(ctx, id, func(res *entity.Reservation) { res.Status = status })
}

func (r *MemoryReservationRepository) mutate(ctx context.Context, id string, change func(*entity.Reservation)) (*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return nil, &entity.NotFoundError{ID: id}
	}

	merged := current.Clone()
	change(merged)
	if r.validator != nil {
		if err := r.validator.ValidateRecord(merged); err != nil {
			return nil, err
		}
	}
	merged.UpdatedAt = r.timestamp()

	r.items[id] = merged
	return merged.Clone(), nil
}

// Find returns copies of every matching reservation sorted by arrivalTime then id
func (r *MemoryReservationRepository) Find(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*entity.Reservation, 0, len(r.items))
	for _, res := range r.items {
		if matches(res, filter) {
			list = append(list, res.Clone())
		}
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].ArrivalTime.Equal(list[j].ArrivalTime) {
			return list[i].ArrivalTime.Before(list[j].ArrivalTime)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// Ping always succeeds
func (r *MemoryReservationRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// timestamp truncates to milliseconds so every store returns the same precision
func (r *MemoryReservationRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func matches(res *entity.Reservation, filter entity.ReservationFilter) bool {
	if filter.ArrivalFrom != nil && res.ArrivalTime.Before(*filter.ArrivalFrom) {
		return false
	}
	if filter.ArrivalTo != nil && !res.ArrivalTime.Before(*filter.ArrivalTo) {
		return false
	}
	if filter.Status != nil && res.Status != *filter.Status {
		return false
	}
	return true
}
