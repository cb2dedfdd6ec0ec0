package usecase

import (
	"sort"

	"table-reservation-service/internal/domain/entity"
)

// Role is the capability an update was invoked with. It is selected by the
// entry point the caller used, not by an authenticated identity.
type Role string

const (
	RoleGuest Role = "guest"
	RoleStaff Role = "staff"
)

var guestUpdatableFields = map[string]struct{}{
	entity.FieldGuestName:   {},
	entity.FieldContactInfo: {},
	entity.FieldArrivalTime: {},
	entity.FieldTableSize:   {},
}

// AccessPolicy decides which fields a role may modify
type AccessPolicy struct{}

// Authorize rejects a guest update wholesale if any submitted field is outside
// the guest set. Staff may submit anything.
func (AccessPolicy) Authorize(role Role, fields []string) error {
	switch role {
	case RoleStaff:
		return nil
	case RoleGuest:
		var denied []string
		for _, f := range fields {
			if _, ok := guestUpdatableFields[f]; !ok {
				denied = append(denied, f)
			}
		}
		if len(denied) > 0 {
			sort.Strings(denied)
			return &entity.AccessError{Fields: denied}
		}
		return nil
	default:
		return &entity.AccessError{Fields: fields}
	}
}

// GuestUpdatableFields returns the guest whitelist in sorted order
func GuestUpdatableFields() []string {
	fields := make([]string, 0, len(guestUpdatableFields))
	for f := range guestUpdatableFields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
