package usecase

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"table-reservation-service/internal/domain/entity"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func validDraft() entity.ReservationDraft {
	return entity.ReservationDraft{
		GuestName:   ptr("  Ada Lovelace "),
		ContactInfo: &entity.ContactInfo{Phone: " 555-0100 ", Email: " Ada@Example.COM "},
		ArrivalTime: ptr(time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC)),
		TableSize:   ptr(4),
	}
}

func violatedFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *entity.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		fields = append(fields, v.Field)
	}
	sort.Strings(fields)
	return fields
}

func TestValidateDraftNormalises(t *testing.T) {
	v := NewReservationValidator()

	res, err := v.ValidateDraft(validDraft(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.GuestName != "Ada Lovelace" {
		t.Fatalf("guest name not trimmed: %q", res.GuestName)
	}
	if res.ContactInfo.Email != "ada@example.com" {
		t.Fatalf("email not normalised: %q", res.ContactInfo.Email)
	}
	if res.ContactInfo.Phone != "555-0100" {
		t.Fatalf("phone not trimmed: %q", res.ContactInfo.Phone)
	}
	if res.Status != entity.StatusRequested {
		t.Fatalf("expected status requested, got %q", res.Status)
	}
}

func TestValidateDraftRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(d *entity.ReservationDraft)
		fields []string
	}{
		{
			name:   "blank guest name",
			mutate: func(d *entity.ReservationDraft) { d.GuestName = ptr("   ") },
			fields: []string{"guestName"},
		},
		{
			name:   "missing contact info",
			mutate: func(d *entity.ReservationDraft) { d.ContactInfo = nil },
			fields: []string{"contactInfo.email", "contactInfo.phone"},
		},
		{
			name:   "bad email",
			mutate: func(d *entity.ReservationDraft) { d.ContactInfo.Email = "not-an-email" },
			fields: []string{"contactInfo.email"},
		},
		{
			name:   "table size zero",
			mutate: func(d *entity.ReservationDraft) { d.TableSize = ptr(0) },
			fields: []string{"tableSize"},
		},
		{
			name:   "table size too large",
			mutate: func(d *entity.ReservationDraft) { d.TableSize = ptr(21) },
			fields: []string{"tableSize"},
		},
		{
			name:   "table size missing",
			mutate: func(d *entity.ReservationDraft) { d.TableSize = nil },
			fields: []string{"tableSize"},
		},
		{
			name:   "arrival in the past",
			mutate: func(d *entity.ReservationDraft) { d.ArrivalTime = ptr(testNow.Add(-time.Minute)) },
			fields: []string{"arrivalTime"},
		},
		{
			name:   "arrival missing",
			mutate: func(d *entity.ReservationDraft) { d.ArrivalTime = nil },
			fields: []string{"arrivalTime"},
		},
		{
			name:   "special requests too long",
			mutate: func(d *entity.ReservationDraft) { d.SpecialRequests = ptr(strings.Repeat("é", 501)) },
			fields: []string{"specialRequests"},
		},
		{
			name: "every violation reported",
			mutate: func(d *entity.ReservationDraft) {
				d.GuestName = nil
				d.ContactInfo.Email = "x@"
				d.TableSize = ptr(50)
			},
			fields: []string{"contactInfo.email", "guestName", "tableSize"},
		},
	}

	v := NewReservationValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)

			_, err := v.ValidateDraft(draft, testNow)
			got := violatedFields(t, err)
			if strings.Join(got, ",") != strings.Join(tc.fields, ",") {
				t.Fatalf("expected violations %v, got %v", tc.fields, got)
			}
		})
	}
}

func TestValidateDraftBoundaries(t *testing.T) {
	v := NewReservationValidator()
	for _, size := range []int{MinTableSize, MaxTableSize} {
		draft := validDraft()
		draft.TableSize = ptr(size)
		if _, err := v.ValidateDraft(draft, testNow); err != nil {
			t.Fatalf("table size %d should be accepted: %v", size, err)
		}
	}

	draft := validDraft()
	draft.SpecialRequests = ptr(strings.Repeat("a", MaxSpecialRequestsLen))
	if _, err := v.ValidateDraft(draft, testNow); err != nil {
		t.Fatalf("special requests at the limit should be accepted: %v", err)
	}
}

func TestValidatePatchChecksOnlySubmittedFields(t *testing.T) {
	v := NewReservationValidator()

	out, err := v.ValidatePatch(entity.ReservationPatch{TableSize: ptr(6)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *out.TableSize != 6 || out.GuestName != nil {
		t.Fatalf("unexpected patch %+v", out)
	}

	// past arrival is allowed on update
	if _, err := v.ValidatePatch(entity.ReservationPatch{ArrivalTime: ptr(testNow.AddDate(-1, 0, 0))}); err != nil {
		t.Fatalf("past arrival should be accepted on update: %v", err)
	}
}

func TestValidatePatchRejections(t *testing.T) {
	bad := entity.Status("seated")
	cases := []struct {
		name   string
		patch  entity.ReservationPatch
		fields []string
	}{
		{name: "blank name", patch: entity.ReservationPatch{GuestName: ptr(" ")}, fields: []string{"guestName"}},
		{name: "partial contact", patch: entity.ReservationPatch{ContactInfo: &entity.ContactInfo{Email: "a@b.co"}}, fields: []string{"contactInfo.phone"}},
		{name: "table size", patch: entity.ReservationPatch{TableSize: ptr(-1)}, fields: []string{"tableSize"}},
		{name: "status", patch: entity.ReservationPatch{Status: &bad}, fields: []string{"status"}},
		{name: "zero arrival", patch: entity.ReservationPatch{ArrivalTime: &time.Time{}}, fields: []string{"arrivalTime"}},
	}

	v := NewReservationValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.ValidatePatch(tc.patch)
			got := violatedFields(t, err)
			if strings.Join(got, ",") != strings.Join(tc.fields, ",") {
				t.Fatalf("expected violations %v, got %v", tc.fields, got)
			}
		})
	}
}

func TestValidatePatchNormalisesContact(t *testing.T) {
	v := NewReservationValidator()

	out, err := v.ValidatePatch(entity.ReservationPatch{
		ContactInfo: &entity.ContactInfo{Phone: " 1 ", Email: " X@Y.ORG "},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ContactInfo.Email != "x@y.org" || out.ContactInfo.Phone != "1" {
		t.Fatalf("contact not normalised: %+v", out.ContactInfo)
	}
}

func TestValidateRecord(t *testing.T) {
	v := NewReservationValidator()

	res, err := v.ValidateDraft(validDraft(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidateRecord(res); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	res.Status = "seated"
	if err := v.ValidateRecord(res); !errors.Is(err, entity.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
