package gql

import (
	"context"
	"strings"

	"github.com/graph-gophers/graphql-go"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/infrastructure/auth"
	"table-reservation-service/internal/interface/rest"
	"table-reservation-service/internal/usecase"
	"table-reservation-service/pkg/logger"
	"table-reservation-service/pkg/utils"
)

// Resolver is the root resolver for Query and Mutation
type Resolver struct {
	service *usecase.ReservationService
	guard   *auth.StaffGuard
	errors  *rest.ErrorMapper
	logger  logger.Logger
}

// NewResolver creates the root resolver. guard may be nil.
func NewResolver(service *usecase.ReservationService, guard *auth.StaffGuard, errors *rest.ErrorMapper, logger logger.Logger) *Resolver {
	return &Resolver{
		service: service,
		guard:   guard,
		errors:  errors,
		logger:  logger,
	}
}

// ContactInfoInput mirrors the ContactInfoInput input type
type ContactInfoInput struct {
	Email *string
	Phone *string
}

func (in *ContactInfoInput) toEntity() *entity.ContactInfo {
	if in == nil {
		return nil
	}
	var info entity.ContactInfo
	if in.Email != nil {
		info.Email = *in.Email
	}
	if in.Phone != nil {
		info.Phone = *in.Phone
	}
	return &info
}

// ReservationInput mirrors the ReservationInput input type
type ReservationInput struct {
	GuestName       *string
	ContactInfo     *ContactInfoInput
	ArrivalTime     *string
	TableSize       *int32
	Status          *string
	SpecialRequests *string
}

// ReservationUpdateInput mirrors the ReservationUpdateInput input type
type ReservationUpdateInput struct {
	GuestName       *string
	ContactInfo     *ContactInfoInput
	ArrivalTime     *string
	TableSize       *int32
	Status          *string
	SpecialRequests *string
}

func (r *Resolver) GetAllReservations(ctx context.Context) ([]*reservationResolver, error) {
	list, err := r.service.ListAll(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	return newReservationList(list), nil
}

func (r *Resolver) GetReservationByID(ctx context.Context, args struct{ ID graphql.ID }) (*reservationResolver, error) {
	res, err := r.service.Get(ctx, string(args.ID))
	if err != nil {
		return nil, r.fail(err)
	}
	return &reservationResolver{res: res}, nil
}

func (r *Resolver) GetReservationsByDate(ctx context.Context, args struct{ Date string }) ([]*reservationResolver, error) {
	list, err := r.service.ListByDate(ctx, args.Date)
	if err != nil {
		return nil, r.fail(err)
	}
	return newReservationList(list), nil
}

func (r *Resolver) GetReservationsByStatus(ctx context.Context, args struct{ Status string }) ([]*reservationResolver, error) {
	list, err := r.service.ListByStatus(ctx, args.Status)
	if err != nil {
		return nil, r.fail(err)
	}
	return newReservationList(list), nil
}

// CreateReservation ignores input.status; new reservations always start as requested
func (r *Resolver) CreateReservation(ctx context.Context, args struct{ Input ReservationInput }) (*reservationResolver, error) {
	in := args.Input

	draft := entity.ReservationDraft{
		GuestName:       in.GuestName,
		ContactInfo:     in.ContactInfo.toEntity(),
		SpecialRequests: in.SpecialRequests,
	}
	if in.ArrivalTime != nil {
		arrival, err := utils.ParseTimestamp(*in.ArrivalTime)
		if err != nil {
			return nil, r.fail(entity.NewValidationError(entity.FieldArrivalTime, err.Error()))
		}
		draft.ArrivalTime = &arrival
	}
	if in.TableSize != nil {
		size := int(*in.TableSize)
		draft.TableSize = &size
	}

	res, err := r.service.Create(ctx, draft)
	if err != nil {
		return nil, r.fail(err)
	}
	return &reservationResolver{res: res}, nil
}

// UpdateReservation is the guest path
func (r *Resolver) UpdateReservation(ctx context.Context, args struct {
	ID    graphql.ID
	Input ReservationUpdateInput
}) (*reservationResolver, error) {
	return r.update(ctx, usecase.RoleGuest, string(args.ID), args.Input)
}

// UpdateReservationAsStaff is the staff path. It requires a staff token when the guard is enabled.
func (r *Resolver) UpdateReservationAsStaff(ctx context.Context, args struct {
	ID    graphql.ID
	Input ReservationUpdateInput
}) (*reservationResolver, error) {
	if _, err := r.guard.Authorize(auth.TokenFromContext(ctx)); err != nil {
		r.logger.Warn("Staff mutation rejected", "reservationID", args.ID, "error", err)
		return nil, r.fail(err)
	}
	return r.update(ctx, usecase.RoleStaff, string(args.ID), args.Input)
}

func (r *Resolver) CancelReservation(ctx context.Context, args struct{ ID graphql.ID }) (*reservationResolver, error) {
	res, err := r.service.Cancel(ctx, string(args.ID))
	if err != nil {
		return nil, r.fail(err)
	}
	return &reservationResolver{res: res}, nil
}

func (r *Resolver) update(ctx context.Context, role usecase.Role, id string, in ReservationUpdateInput) (*reservationResolver, error) {
	patch, err := toPatch(in)
	if err != nil {
		// an access denial outranks a malformed value
		if denied := r.service.CheckFields(role, patchKeys(in)); denied != nil {
			return nil, r.fail(denied)
		}
		return nil, r.fail(err)
	}

	res, err := r.service.Update(ctx, role, id, patch)
	if err != nil {
		return nil, r.fail(err)
	}
	return &reservationResolver{res: res}, nil
}

func toPatch(in ReservationUpdateInput) (entity.ReservationPatch, error) {
	patch := entity.ReservationPatch{
		GuestName:       in.GuestName,
		SpecialRequests: in.SpecialRequests,
	}
	patch.ContactInfo = in.ContactInfo.toEntity()
	if in.TableSize != nil {
		size := int(*in.TableSize)
		patch.TableSize = &size
	}
	if in.Status != nil {
		status := entity.Status(strings.ToLower(strings.TrimSpace(*in.Status)))
		patch.Status = &status
	}
	if in.ArrivalTime != nil {
		arrival, err := utils.ParseTimestamp(*in.ArrivalTime)
		if err != nil {
			return entity.ReservationPatch{}, entity.NewValidationError(entity.FieldArrivalTime, err.Error())
		}
		patch.ArrivalTime = &arrival
	}
	return patch, nil
}

// patchKeys lists the submitted input fields, including ones whose value failed to parse
func patchKeys(in ReservationUpdateInput) []string {
	var keys []string
	if in.GuestName != nil {
		keys = append(keys, entity.FieldGuestName)
	}
	if in.ContactInfo != nil {
		keys = append(keys, entity.FieldContactInfo)
	}
	if in.ArrivalTime != nil {
		keys = append(keys, entity.FieldArrivalTime)
	}
	if in.TableSize != nil {
		keys = append(keys, entity.FieldTableSize)
	}
	if in.Status != nil {
		keys = append(keys, entity.FieldStatus)
	}
	if in.SpecialRequests != nil {
		keys = append(keys, entity.FieldSpecialRequests)
	}
	return keys
}

func (r *Resolver) fail(err error) error {
	status, body := r.errors.Body(err)
	return &resolverError{status: status, body: body}
}
