// internal/domain/entity/reservation.go
package entity

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a reservation
type Status string

// Reservation statuses. Wire and storage form is lower-case.
const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in declaration order
var Statuses = []Status{StatusRequested, StatusConfirmed, StatusPending, StatusCancelled}

// Valid reports whether s is one of the enumerated statuses
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts raw input into a Status. Matching ignores case and surrounding spaces.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", NewValidationError("status", "invalid reservation status: "+raw)
	}
	return status, nil
}

// ContactInfo holds how a guest can be reached
type ContactInfo struct {
	Phone string `json:"phone" bson:"phone" validate:"required"`
	Email string `json:"email" bson:"email" validate:"required,reservationemail"`
}

// Reservation represents a single table reservation
type Reservation struct {
	ID              string      `json:"id" bson:"_id,omitempty"`
	GuestName       string      `json:"guestName" bson:"guestName" validate:"required"`
	ContactInfo     ContactInfo `json:"contactInfo" bson:"contactInfo"`
	ArrivalTime     time.Time   `json:"arrivalTime" bson:"arrivalTime" validate:"required"`
	TableSize       int         `json:"tableSize" bson:"tableSize" validate:"gte=1,lte=20"`
	Status          Status      `json:"status" bson:"status" validate:"reservationstatus"`
	SpecialRequests string      `json:"specialRequests,omitempty" bson:"specialRequests,omitempty" validate:"max=500"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with r
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Apply merges the submitted fields of p into r
func (r *Reservation) Apply(p ReservationPatch) {
	if p.GuestName != nil {
		r.GuestName = *p.GuestName
	}
	if p.ContactInfo != nil {
		r.ContactInfo = *p.ContactInfo
	}
	if p.ArrivalTime != nil {
		r.ArrivalTime = *p.ArrivalTime
	}
	if p.TableSize != nil {
		r.TableSize = *p.TableSize
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.SpecialRequests != nil {
		r.SpecialRequests = *p.SpecialRequests
	}
}

// ReservationDraft is a creation candidate. Pointer fields distinguish absent from zero.
type ReservationDraft struct {
	GuestName       *string
	ContactInfo     *ContactInfo
	ArrivalTime     *time.Time
	TableSize       *int
	SpecialRequests *string
}

// Field names as they appear on the wire
const (
	FieldID              = "id"
	FieldGuestName       = "guestName"
	FieldContactInfo     = "contactInfo"
	FieldArrivalTime     = "arrivalTime"
	FieldTableSize       = "tableSize"
	FieldStatus          = "status"
	FieldSpecialRequests = "specialRequests"
	FieldCreatedAt       = "createdAt"
	FieldUpdatedAt       = "updatedAt"
)

// ReservationPatch is a partial update. Only non-nil fields were submitted.
// Unknown holds submitted keys that do not map to a mutable field.
type ReservationPatch struct {
	GuestName       *string
	ContactInfo     *ContactInfo
	ArrivalTime     *time.Time
	TableSize       *int
	Status          *Status
	SpecialRequests *string
	Unknown         []string
}

// Fields returns the wire names of every submitted key, including unknown ones
func (p ReservationPatch) Fields() []string {
	fields := make([]string, 0, 6+len(p.Unknown))
	if p.GuestName != nil {
		fields = append(fields, FieldGuestName)
	}
	if p.ContactInfo != nil {
		fields = append(fields, FieldContactInfo)
	}
	if p.ArrivalTime != nil {
		fields = append(fields, FieldArrivalTime)
	}
	if p.TableSize != nil {
		fields = append(fields, FieldTableSize)
	}
	if p.Status != nil {
		fields = append(fields, FieldStatus)
	}
	if p.SpecialRequests != nil {
		fields = append(fields, FieldSpecialRequests)
	}
	return append(fields, p.Unknown...)
}

// Empty reports whether the patch changes nothing
func (p ReservationPatch) Empty() bool {
	return p.GuestName == nil && p.ContactInfo == nil && p.ArrivalTime == nil &&
		p.TableSize == nil && p.Status == nil && p.SpecialRequests == nil
}

// ReservationFilter narrows a listing. Zero value lists everything.
type ReservationFilter struct {
	ArrivalFrom *time.Time // inclusive
	ArrivalTo   *time.Time // exclusive
	Status      *Status
}
