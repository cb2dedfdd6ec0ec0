package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/pkg/utils"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

const (
	MinTableSize          = 1
	MaxTableSize          = 20
	MaxSpecialRequestsLen = 500
)

// ReservationValidator normalises and checks reservation input
type ReservationValidator struct {
	validate *validator.Validate
}

// NewReservationValidator creates a validator with the reservation tags registered
func NewReservationValidator() *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("reservationemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	v.RegisterValidation("reservationstatus", func(fl validator.FieldLevel) bool {
		return entity.Status(fl.Field().String()).Valid()
	})

	return &ReservationValidator{validate: v}
}

// ValidateDraft normalises a creation candidate and checks every constraint.
// The returned reservation always has status requested.
func (v *ReservationValidator) ValidateDraft(draft entity.ReservationDraft, now time.Time) (*entity.Reservation, error) {
	var violations []entity.FieldViolation

	res := &entity.Reservation{Status: entity.StatusRequested}

	if draft.GuestName != nil {
		res.GuestName = strings.TrimSpace(*draft.GuestName)
	}
	if draft.ContactInfo != nil {
		res.ContactInfo = normaliseContact(*draft.ContactInfo)
	}
	if draft.ArrivalTime != nil {
		res.ArrivalTime = *draft.ArrivalTime
	}
	if draft.TableSize != nil {
		res.TableSize = *draft.TableSize
	} else {
		violations = append(violations, entity.FieldViolation{Field: entity.FieldTableSize, Message: "table size is required"})
	}
	if draft.SpecialRequests != nil {
		res.SpecialRequests = strings.TrimSpace(*draft.SpecialRequests)
	}

	violations = append(violations, v.check(res, draft.TableSize == nil)...)

	// arrival time is checked against the clock only here, never on update
	if !res.ArrivalTime.IsZero() && res.ArrivalTime.Before(now) {
		violations = append(violations, entity.FieldViolation{Field: entity.FieldArrivalTime, Message: "arrival time cannot be in the past"})
	}

	if len(violations) > 0 {
		return nil, &entity.ValidationError{Violations: violations}
	}
	return res, nil
}

// ValidatePatch normalises and checks only the submitted fields of an update.
// A submitted contactInfo replaces the stored one and must be complete.
func (v *ReservationValidator) ValidatePatch(patch entity.ReservationPatch) (entity.ReservationPatch, error) {
	var violations []entity.FieldViolation

	out := patch
	if patch.GuestName != nil {
		out.GuestName = utils.TrimPtr(ptr(*patch.GuestName))
		if *out.GuestName == "" {
			violations = append(violations, entity.FieldViolation{Field: entity.FieldGuestName, Message: "guest name is required"})
		}
	}
	if patch.ContactInfo != nil {
		contact := normaliseContact(*patch.ContactInfo)
		out.ContactInfo = &contact
		if err := v.validate.Struct(contact); err != nil {
			violations = append(violations, translate(err, entity.FieldContactInfo+".")...)
		}
	}
	if patch.ArrivalTime != nil && patch.ArrivalTime.IsZero() {
		violations = append(violations, entity.FieldViolation{Field: entity.FieldArrivalTime, Message: "arrival time is required"})
	}
	if patch.TableSize != nil {
		if msg := tableSizeMessage(*patch.TableSize); msg != "" {
			violations = append(violations, entity.FieldViolation{Field: entity.FieldTableSize, Message: msg})
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		violations = append(violations, entity.FieldViolation{Field: entity.FieldStatus, Message: "invalid reservation status: " + string(*patch.Status)})
	}
	if patch.SpecialRequests != nil {
		out.SpecialRequests = utils.TrimPtr(ptr(*patch.SpecialRequests))
		if utf8.RuneCountInString(*out.SpecialRequests) > MaxSpecialRequestsLen {
			violations = append(violations, entity.FieldViolation{Field: entity.FieldSpecialRequests, Message: fmt.Sprintf("special requests cannot exceed %d characters", MaxSpecialRequestsLen)})
		}
	}

	if len(violations) > 0 {
		return entity.ReservationPatch{}, &entity.ValidationError{Violations: violations}
	}
	return out, nil
}

// ValidateRecord checks a complete stored document, e.g. the merge of a patch
func (v *ReservationValidator) ValidateRecord(res *entity.Reservation) error {
	if violations := v.check(res, false); len(violations) > 0 {
		return &entity.ValidationError{Violations: violations}
	}
	return nil
}

func (v *ReservationValidator) check(res *entity.Reservation, skipTableSize bool) []entity.FieldViolation {
	err := v.validate.Struct(res)
	if err == nil {
		return nil
	}
	violations := translate(err, "")
	if !skipTableSize {
		return violations
	}
	filtered := violations[:0]
	for _, fv := range violations {
		if fv.Field != entity.FieldTableSize {
			filtered = append(filtered, fv)
		}
	}
	return filtered
}

func translate(err error, prefix string) []entity.FieldViolation {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return []entity.FieldViolation{{Field: strings.TrimSuffix(prefix, "."), Message: err.Error()}}
	}

	violations := make([]entity.FieldViolation, 0, len(errs))
	for _, fe := range errs {
		field := fieldPath(fe.Namespace())
		violations = append(violations, entity.FieldViolation{
			Field:   prefix + field,
			Message: messageFor(prefix+field, fe),
		})
	}
	return violations
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageFor(field string, fe validator.FieldError) string {
	switch field {
	case entity.FieldGuestName:
		return "guest name is required"
	case entity.FieldContactInfo + ".phone":
		return "phone number is required"
	case entity.FieldContactInfo + ".email":
		if fe.Tag() == "required" {
			return "email is required"
		}
		return "please provide a valid email address"
	case entity.FieldArrivalTime:
		return "arrival time is required"
	case entity.FieldTableSize:
		if fe.Tag() == "required" {
			return "table size is required"
		}
		return tableSizeMessage(toInt(fe.Value()))
	case entity.FieldStatus:
		return fmt.Sprintf("invalid reservation status: %v", fe.Value())
	case entity.FieldSpecialRequests:
		return fmt.Sprintf("special requests cannot exceed %d characters", MaxSpecialRequestsLen)
	}
	return fmt.Sprintf("failed %q constraint", fe.Tag())
}

func tableSizeMessage(size int) string {
	switch {
	case size < MinTableSize:
		return fmt.Sprintf("table size must be at least %d", MinTableSize)
	case size > MaxTableSize:
		return fmt.Sprintf("table size cannot exceed %d", MaxTableSize)
	}
	return ""
}

func toInt(v interface{}) int {
	if i, ok := v.(int); ok {
		return i
	}
	return 0
}

func normaliseContact(c entity.ContactInfo) entity.ContactInfo {
	return entity.ContactInfo{
		Phone: strings.TrimSpace(c.Phone),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
	}
}

func ptr[T any](v T) *T {
	return &v
}
