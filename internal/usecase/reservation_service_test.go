package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/interface/repository"
	"table-reservation-service/internal/usecase"
	"table-reservation-service/pkg/logger"
	"table-reservation-service/pkg/metrics"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingEvents struct {
	mu     sync.Mutex
	events []entity.ReservationEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, event entity.ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingEvents) Close() error { return nil }

func (r *recordingEvents) types() []entity.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// failingRepo fails every call with a driver-level error
type failingRepo struct {
	*repository.MemoryReservationRepository
}

var errDriver = errors.New("connection reset")

func (failingRepo) Find(context.Context, entity.ReservationFilter) ([]*entity.Reservation, error) {
	return nil, errDriver
}

type fixture struct {
	svc     *usecase.ReservationService
	events  *recordingEvents
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	validator := usecase.NewReservationValidator()
	events := &recordingEvents{}
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	repo := repository.NewMemoryReservationRepository(validator)
	svc := usecase.NewReservationService(repo, events, validator, m, logger.NewNopLogger()).
		WithClock(func() time.Time { return now })
	return fixture{svc: svc, events: events, metrics: m}
}

func ptr[T any](v T) *T { return &v }

func draftAt(name string, arrival time.Time) entity.ReservationDraft {
	return entity.ReservationDraft{
		GuestName:   ptr(name),
		ContactInfo: &entity.ContactInfo{Phone: "555-0100", Email: "guest@example.com"},
		ArrivalTime: ptr(arrival),
		TableSize:   ptr(2),
	}
}

func mustCreate(t *testing.T, svc *usecase.ReservationService, name string, arrival time.Time) *entity.Reservation {
	t.Helper()
	res, err := svc.Create(context.Background(), draftAt(name, arrival))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return res
}

func TestCreateAssignsIdentityAndStatus(t *testing.T) {
	f := newFixture(t)

	res := mustCreate(t, f.svc, "Ada", time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC))

	if len(res.ID) != 24 {
		t.Fatalf("expected 24 char id, got %q", res.ID)
	}
	if res.Status != entity.StatusRequested {
		t.Fatalf("expected requested, got %q", res.Status)
	}
	if res.CreatedAt.IsZero() || !res.CreatedAt.Equal(res.UpdatedAt) {
		t.Fatalf("timestamps not set: %v %v", res.CreatedAt, res.UpdatedAt)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != entity.EventCreated {
		t.Fatalf("expected one created event, got %v", got)
	}
	if v := testutil.ToFloat64(f.metrics.ReservationsCreated); v != 1 {
		t.Fatalf("expected created counter 1, got %v", v)
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	f := newFixture(t)

	draft := draftAt("Ada", now.Add(-time.Hour))
	if _, err := f.svc.Create(context.Background(), draft); !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.events.types()) != 0 {
		t.Fatal("no event expected for a rejected create")
	}
	if v := testutil.ToFloat64(f.metrics.ErrorsCount.WithLabelValues("create", string(entity.KindValidation))); v != 1 {
		t.Fatalf("expected one validation error metric, got %v", v)
	}
}

func TestGuestUpdateScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := mustCreate(t, f.svc, "Ada", time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC))

	confirmed := entity.StatusConfirmed
	_, err := f.svc.UpdateAsGuest(ctx, res.ID, entity.ReservationPatch{TableSize: ptr(4), Status: &confirmed})
	if !errors.Is(err, entity.ErrAccess) {
		t.Fatalf("expected access error, got %v", err)
	}

	// rejected wholesale: tableSize must be untouched
	stored, err := f.svc.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.TableSize != 2 || stored.Status != entity.StatusRequested {
		t.Fatalf("rejected update leaked: %+v", stored)
	}

	updated, err := f.svc.UpdateAsGuest(ctx, res.ID, entity.ReservationPatch{TableSize: ptr(4)})
	if err != nil {
		t.Fatalf("guest update: %v", err)
	}
	if updated.TableSize != 4 || updated.ID != res.ID || !updated.CreatedAt.Equal(res.CreatedAt) {
		t.Fatalf("unexpected result %+v", updated)
	}
}

func TestGuestUpdateUnknownKeyDenied(t *testing.T) {
	f := newFixture(t)
	res := mustCreate(t, f.svc, "Ada", time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC))

	_, err := f.svc.UpdateAsGuest(context.Background(), res.ID, entity.ReservationPatch{Unknown: []string{"vip"}})
	var accessErr *entity.AccessError
	if !errors.As(err, &accessErr) || accessErr.Fields[0] != "vip" {
		t.Fatalf("expected access error naming vip, got %v", err)
	}
}

func TestStaffUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := mustCreate(t, f.svc, "Ada", time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC))

	confirmed := entity.StatusConfirmed
	updated, err := f.svc.UpdateAsStaff(ctx, res.ID, entity.ReservationPatch{
		Status:          &confirmed,
		SpecialRequests: ptr(" window seat "),
		Unknown:         []string{"createdAt"},
	})
	if err != nil {
		t.Fatalf("staff update: %v", err)
	}
	if updated.Status != entity.StatusConfirmed || updated.SpecialRequests != "window seat" {
		t.Fatalf("unexpected result %+v", updated)
	}

	bad := entity.Status("seated")
	if _, err := f.svc.UpdateAsStaff(ctx, res.ID, entity.ReservationPatch{Status: &bad}); !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got := f.events.types()
	if len(got) != 2 || got[1] != entity.EventUpdated {
		t.Fatalf("expected created+updated events, got %v", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UpdateAsStaff(ctx, "000000000000000000000000", entity.ReservationPatch{TableSize: ptr(3)}); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.UpdateAsGuest(ctx, "missing", entity.ReservationPatch{}); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected not found for empty patch, got %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := mustCreate(t, f.svc, "Ada", time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		cancelled, err := f.svc.Cancel(ctx, res.ID)
		if err != nil {
			t.Fatalf("cancel %d: %v", i, err)
		}
		if cancelled.Status != entity.StatusCancelled {
			t.Fatalf("expected cancelled, got %q", cancelled.Status)
		}
	}

	list, err := f.svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("cancelled reservations must still be listed, got %d", len(list))
	}

	if _, err := f.svc.Cancel(ctx, "missing"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStaffCanReopenCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := mustCreate(t, f.svc, "Ada", time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC))

	if _, err := f.svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	pending := entity.StatusPending
	updated, err := f.svc.UpdateAsStaff(ctx, res.ID, entity.ReservationPatch{Status: &pending})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if updated.Status != entity.StatusPending {
		t.Fatalf("expected pending, got %q", updated.Status)
	}
}

func TestListOrdering(t *testing.T) {
	f := newFixture(t)
	same := time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC)

	late := mustCreate(t, f.svc, "Late", time.Date(2024, 3, 12, 18, 0, 0, 0, time.UTC))
	a := mustCreate(t, f.svc, "A", same)
	b := mustCreate(t, f.svc, "B", same)

	list, err := f.svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[2].ID != late.ID {
		t.Fatalf("expected latest arrival last, got %v", list)
	}
	first, second := a.ID, b.ID
	if second < first {
		first, second = second, first
	}
	if list[0].ID != first || list[1].ID != second {
		t.Fatalf("ties must be ordered by id: %s %s", list[0].ID, list[1].ID)
	}
}

func TestListByDateWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := mustCreate(t, f.svc, "In", time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC))
	start := mustCreate(t, f.svc, "Start", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	mustCreate(t, f.svc, "Out", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))

	list, err := f.svc.ListByDate(ctx, "2024-03-10")
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(list) != 2 || list[0].ID != start.ID || list[1].ID != in.ID {
		t.Fatalf("unexpected window result %v", list)
	}

	empty, err := f.svc.ListByDate(ctx, "2030-01-01")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", empty, err)
	}

	if _, err := f.svc.ListByDate(ctx, "tomorrow"); !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := mustCreate(t, f.svc, "A", time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC))
	mustCreate(t, f.svc, "B", time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC))
	if _, err := f.svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	list, err := f.svc.ListByStatus(ctx, "Cancelled")
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("unexpected result %v", list)
	}

	if _, err := f.svc.ListByStatus(ctx, "seated"); !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreFailureIsWrapped(t *testing.T) {
	validator := usecase.NewReservationValidator()
	repo := failingRepo{repository.NewMemoryReservationRepository(validator)}
	svc := usecase.NewReservationService(repo, nil, validator, nil, logger.NewNopLogger())

	_, err := svc.ListAll(context.Background())
	var perr *entity.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !errors.Is(err, entity.ErrPersistence) || !errors.Is(err, errDriver) {
		t.Fatal("PersistenceError must expose both the sentinel and the cause")
	}
	if entity.KindOf(err) != entity.KindInternal {
		t.Fatalf("expected internal kind, got %q", entity.KindOf(err))
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	validator := usecase.NewReservationValidator()
	events := &recordingEvents{err: errors.New("broker down")}
	svc := usecase.NewReservationService(repository.NewMemoryReservationRepository(validator), events, validator, nil, logger.NewNopLogger()).
		WithClock(func() time.Time { return now })

	if _, err := svc.Create(context.Background(), draftAt("Ada", now.Add(time.Hour))); err != nil {
		t.Fatalf("create must succeed when publishing fails: %v", err)
	}
}
