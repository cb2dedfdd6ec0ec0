package repository

import (
	"encoding/json"
	"testing"
	"time"

	"table-reservation-service/internal/domain/entity"
)

func TestEncodeEvent(t *testing.T) {
	occurred := time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC)
	res := newReservation("Ada", occurred.Add(time.Hour), entity.StatusConfirmed)
	res.ID = "65f0c0ffee0000000000abcd"

	msg, err := encodeEvent(entity.ReservationEvent{
		Type:          entity.EventUpdated,
		ReservationID: res.ID,
		Status:        res.Status,
		Role:          "staff",
		OccurredAt:    occurred,
		Reservation:   res,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if string(msg.Key) != res.ID {
		t.Fatalf("expected key %q, got %q", res.ID, msg.Key)
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Entity != "reservation" || envelope.Action != "updated" || envelope.Topic != "reservation.updated" {
		t.Fatalf("unexpected routing fields %+v", envelope)
	}
	if envelope.ResourceID != res.ID || envelope.Data == nil || envelope.Data.GuestName != "Ada" {
		t.Fatalf("unexpected payload %+v", envelope)
	}
	if envelope.Metadata["role"] != "staff" || envelope.Metadata["status"] != "confirmed" {
		t.Fatalf("unexpected metadata %v", envelope.Metadata)
	}
	if envelope.Metadata["occurredAt"] != "2024-03-10T19:30:00.000Z" {
		t.Fatalf("unexpected occurredAt %q", envelope.Metadata["occurredAt"])
	}
}

func TestEncodeEventOmitsEmptyRole(t *testing.T) {
	msg, err := encodeEvent(entity.ReservationEvent{
		Type:          entity.EventCreated,
		ReservationID: "x",
		Status:        entity.StatusRequested,
		OccurredAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := envelope.Metadata["role"]; ok {
		t.Fatal("role must be omitted when empty")
	}
}
