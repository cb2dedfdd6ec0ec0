package repository

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"table-reservation-service/internal/domain/entity"
)

func TestReservationRecordRoundTrip(t *testing.T) {
	local := time.FixedZone("UTC+2", 2*60*60)
	res := &entity.Reservation{
		ID:              "65f0c0ffee0000000000abcd",
		GuestName:       "Ada",
		ContactInfo:     entity.ContactInfo{Phone: "555-0100", Email: "ada@example.com"},
		ArrivalTime:     time.Date(2024, 3, 10, 21, 30, 0, 0, local),
		TableSize:       4,
		Status:          entity.StatusConfirmed,
		SpecialRequests: "window seat",
		CreatedAt:       time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	record := toRecord(res)
	if record.ArrivalTime.Location() != time.UTC {
		t.Fatalf("arrival stored in %v, want UTC", record.ArrivalTime.Location())
	}

	got := record.toEntity()
	if !got.ArrivalTime.Equal(res.ArrivalTime) || got.ArrivalTime.Location() != time.UTC {
		t.Fatalf("arrival %v, want %v in UTC", got.ArrivalTime, res.ArrivalTime)
	}

	want := *res
	want.ArrivalTime = res.ArrivalTime.UTC()
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", *got, want)
	}
}

func TestReservationRecordStatusCheck(t *testing.T) {
	field, ok := reflect.TypeOf(ReservationRecord{}).FieldByName("Status")
	if !ok {
		t.Fatal("Status field missing")
	}
	tag := field.Tag.Get("gorm")
	for _, s := range entity.Statuses {
		if !strings.Contains(tag, "'"+string(s)+"'") {
			t.Errorf("status check %q does not allow %s", tag, s)
		}
	}
}

func TestMapGormError(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", gorm.ErrCheckConstraintViolated)
	if err := mapGormError(wrapped); !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	for _, err := range []error{gorm.ErrDuplicatedKey, gorm.ErrInvalidTransaction, errors.New("broken pipe")} {
		if got := mapGormError(err); got != err {
			t.Errorf("expected %v passed through, got %v", err, got)
		}
	}
}
