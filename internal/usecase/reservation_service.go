package usecase

import (
	"context"
	"errors"
	"time"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/domain/repository"
	"table-reservation-service/pkg/logger"
	"table-reservation-service/pkg/metrics"
	"table-reservation-service/pkg/utils"
)

// ReservationService is the single entry point used by every transport adapter
type ReservationService struct {
	repo      repository.ReservationRepository
	events    repository.EventRepository
	validator *ReservationValidator
	policy    AccessPolicy
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

// NewReservationService creates a new reservation service. events and m may be nil.
func NewReservationService(
	repo repository.ReservationRepository,
	events repository.EventRepository,
	validator *ReservationValidator,
	m *metrics.Metrics,
	logger logger.Logger,
) *ReservationService {
	return &ReservationService{
		repo:      repo,
		events:    events,
		validator: validator,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source used for the arrival-time check
func (s *ReservationService) WithClock(now func() time.Time) *ReservationService {
	s.now = now
	return s
}

// Create validates a draft and stores it with status requested
func (s *ReservationService) Create(ctx context.Context, draft entity.ReservationDraft) (res *entity.Reservation, err error) {
	defer s.observe("create", time.Now(), &err)

	res, err = s.validator.ValidateDraft(draft, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, s.storeError("create reservation", err)
	}

	s.logger.Info("Reservation created",
		"reservationID", res.ID,
		"arrivalTime", res.ArrivalTime,
		"tableSize", res.TableSize)
	if s.metrics != nil {
		s.metrics.ReservationsCreated.Inc()
	}
	s.publish(ctx, entity.EventCreated, "", res)

	return res, nil
}

// Get returns one reservation by id
func (s *ReservationService) Get(ctx context.Context, id string) (res *entity.Reservation, err error) {
	defer s.observe("get", time.Now(), &err)

	res, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get reservation", err)
	}
	return res, nil
}

// UpdateAsGuest applies a patch restricted to the guest field set
func (s *ReservationService) UpdateAsGuest(ctx context.Context, id string, patch entity.ReservationPatch) (*entity.Reservation, error) {
	return s.Update(ctx, RoleGuest, id, patch)
}

// UpdateAsStaff applies a patch with no field restriction
func (s *ReservationService) UpdateAsStaff(ctx context.Context, id string, patch entity.ReservationPatch) (*entity.Reservation, error) {
	return s.Update(ctx, RoleStaff, id, patch)
}

// Update authorizes, validates and applies a partial update for role
func (s *ReservationService) Update(ctx context.Context, role Role, id string, patch entity.ReservationPatch) (res *entity.Reservation, err error) {
	defer s.observe("update_"+string(role), time.Now(), &err)

	if err := s.policy.Authorize(role, patch.Fields()); err != nil {
		s.logger.Warn("Update rejected by access policy", "reservationID", id, "role", role, "error", err)
		return nil, err
	}

	patch, err = s.validator.ValidatePatch(patch)
	if err != nil {
		return nil, err
	}

	// nothing mutable was submitted: behave like a read so unknown ids still 404
	if patch.Empty() {
		return s.Get(ctx, id)
	}

	res, err = s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError("update reservation", err)
	}

	s.logger.Info("Reservation updated", "reservationID", res.ID, "role", role, "fields", patch.Fields())
	s.publish(ctx, entity.EventUpdated, string(role), res)

	return res, nil
}

// CheckFields runs only the access policy. Adapters use it to report a denied
// field before any value-level decode error.
func (s *ReservationService) CheckFields(role Role, fields []string) error {
	return s.policy.Authorize(role, fields)
}

// Cancel sets status to cancelled. Cancelling twice is not an error.
func (s *ReservationService) Cancel(ctx context.Context, id string) (res *entity.Reservation, err error) {
	defer s.observe("cancel", time.Now(), &err)

	res, err = s.repo.UpdateStatus(ctx, id, entity.StatusCancelled)
	if err != nil {
		return nil, s.storeError("cancel reservation", err)
	}

	s.logger.Info("Reservation cancelled", "reservationID", res.ID)
	if s.metrics != nil {
		s.metrics.ReservationsCancelled.Inc()
	}
	s.publish(ctx, entity.EventCancelled, "", res)

	return res, nil
}

// ListAll returns every reservation ordered by arrival time
func (s *ReservationService) ListAll(ctx context.Context) (list []*entity.Reservation, err error) {
	defer s.observe("list_all", time.Now(), &err)

	return s.find(ctx, entity.ReservationFilter{})
}

// ListByDate returns reservations arriving on the given UTC calendar day
func (s *ReservationService) ListByDate(ctx context.Context, date string) (list []*entity.Reservation, err error) {
	defer s.observe("list_by_date", time.Now(), &err)

	day, err := utils.ParseDay(date)
	if err != nil {
		return nil, entity.NewValidationError("date", err.Error())
	}
	window := utils.UTCDayWindow(day)

	return s.find(ctx, entity.ReservationFilter{ArrivalFrom: &window.Start, ArrivalTo: &window.End})
}

// ListByStatus returns reservations in the given status
func (s *ReservationService) ListByStatus(ctx context.Context, status string) (list []*entity.Reservation, err error) {
	defer s.observe("list_by_status", time.Now(), &err)

	st, err := entity.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	return s.find(ctx, entity.ReservationFilter{Status: &st})
}

// Ping checks the store is reachable
func (s *ReservationService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *ReservationService) find(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	list, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, s.storeError("list reservations", err)
	}
	if list == nil {
		list = []*entity.Reservation{}
	}
	return list, nil
}

// storeError passes domain errors through and wraps everything else
func (s *ReservationService) storeError(op string, err error) error {
	if errors.Is(err, entity.ErrNotFound) || errors.Is(err, entity.ErrValidation) {
		return err
	}
	s.logger.Error("Store operation failed", "operation", op, "error", err)
	return &entity.PersistenceError{Op: op, Err: err}
}

func (s *ReservationService) publish(ctx context.Context, typ entity.EventType, role string, res *entity.Reservation) {
	if s.events == nil {
		return
	}
	event := entity.ReservationEvent{
		Type:          typ,
		ReservationID: res.ID,
		Status:        res.Status,
		Role:          role,
		OccurredAt:    time.Now().UTC(),
		Reservation:   res.Clone(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish reservation event", "type", typ, "reservationID", res.ID, "error", err)
	}
}

func (s *ReservationService) observe(op string, started time.Time, err *error) {
	s.metrics.Observe(op, started, string(entity.KindOf(*err)))
}
