package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/pkg/utils"
)

// ContactInfoResponse is the wire form of entity.ContactInfo
type ContactInfoResponse struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ReservationResponse is the wire form of a reservation. Timestamps are UTC with millisecond precision.
type ReservationResponse struct {
	ID              string              `json:"id"`
	GuestName       string              `json:"guestName"`
	ContactInfo     ContactInfoResponse `json:"contactInfo"`
	ArrivalTime     string              `json:"arrivalTime"`
	TableSize       int                 `json:"tableSize"`
	Status          string              `json:"status"`
	SpecialRequests string              `json:"specialRequests,omitempty"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

// NewReservationResponse converts a reservation to its wire form
func NewReservationResponse(res *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        res.ID,
		GuestName: res.GuestName,
		ContactInfo: ContactInfoResponse{
			Phone: res.ContactInfo.Phone,
			Email: res.ContactInfo.Email,
		},
		ArrivalTime:     utils.FormatTimestamp(res.ArrivalTime),
		TableSize:       res.TableSize,
		Status:          string(res.Status),
		SpecialRequests: res.SpecialRequests,
		CreatedAt:       utils.FormatTimestamp(res.CreatedAt),
		UpdatedAt:       utils.FormatTimestamp(res.UpdatedAt),
	}
}

// NewReservationListResponse converts a list, never returning null
func NewReservationListResponse(list []*entity.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for _, res := range list {
		out = append(out, NewReservationResponse(res))
	}
	return out
}

// CreateReservationRequest is the body of POST /api/reservations.
// A submitted status is accepted but ignored.
type CreateReservationRequest struct {
	GuestName       *string             `json:"guestName"`
	ContactInfo     *entity.ContactInfo `json:"contactInfo"`
	ArrivalTime     *string             `json:"arrivalTime"`
	TableSize       *int                `json:"tableSize"`
	Status          *string             `json:"status"`
	SpecialRequests *string             `json:"specialRequests"`
}

func decodeCreate(body io.Reader) (entity.ReservationDraft, error) {
	var req CreateReservationRequest

	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return entity.ReservationDraft{}, decodeError(err)
	}

	draft := entity.ReservationDraft{
		GuestName:       req.GuestName,
		ContactInfo:     req.ContactInfo,
		TableSize:       req.TableSize,
		SpecialRequests: req.SpecialRequests,
	}
	if req.ArrivalTime != nil {
		t, err := utils.ParseTimestamp(*req.ArrivalTime)
		if err != nil {
			return entity.ReservationDraft{}, entity.NewValidationError(entity.FieldArrivalTime, err.Error())
		}
		draft.ArrivalTime = &t
	}
	return draft, nil
}

var patchFields = map[string]bool{
	entity.FieldGuestName:       true,
	entity.FieldContactInfo:     true,
	entity.FieldArrivalTime:     true,
	entity.FieldTableSize:       true,
	entity.FieldStatus:          true,
	entity.FieldSpecialRequests: true,
}

// decodePatch reads a JSON object into a patch. Every submitted key is returned,
// so the access policy can run before any value-level error is reported.
func decodePatch(body io.Reader) (entity.ReservationPatch, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return entity.ReservationPatch{}, nil, decodeError(err)
	}

	var (
		patch      entity.ReservationPatch
		keys       = make([]string, 0, len(raw))
		violations []entity.FieldViolation
	)

	for key, value := range raw {
		// an explicit null on a known field means "not submitted", as on the typed surface
		if patchFields[key] && string(bytes.TrimSpace(value)) == "null" {
			continue
		}
		keys = append(keys, key)

		var err error
		switch key {
		case entity.FieldGuestName:
			patch.GuestName = new(string)
			err = json.Unmarshal(value, patch.GuestName)
		case entity.FieldContactInfo:
			patch.ContactInfo = new(entity.ContactInfo)
			err = json.Unmarshal(value, patch.ContactInfo)
		case entity.FieldArrivalTime:
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				var t time.Time
				if t, err = utils.ParseTimestamp(s); err == nil {
					patch.ArrivalTime = &t
				}
			}
		case entity.FieldTableSize:
			patch.TableSize = new(int)
			err = json.Unmarshal(value, patch.TableSize)
		case entity.FieldStatus:
			var s string
			if err = json.Unmarshal(value, &s); err == nil {
				status := entity.Status(strings.ToLower(strings.TrimSpace(s)))
				patch.Status = &status
			}
		case entity.FieldSpecialRequests:
			patch.SpecialRequests = new(string)
			err = json.Unmarshal(value, patch.SpecialRequests)
		default:
			patch.Unknown = append(patch.Unknown, key)
		}

		if err != nil {
			violations = append(violations, entity.FieldViolation{Field: key, Message: valueMessage(err)})
		}
	}

	if len(violations) > 0 {
		return entity.ReservationPatch{}, keys, &entity.ValidationError{Violations: violations}
	}
	return patch, keys, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return entity.NewValidationError(typeErr.Field, valueMessage(err))
	}
	if errors.Is(err, io.EOF) {
		return entity.NewValidationError("body", "request body is required")
	}
	return entity.NewValidationError("body", "malformed JSON body")
}

func valueMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("expected %s, got %s", typeErr.Type.String(), typeErr.Value)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "malformed value"
	}
	return err.Error()
}
