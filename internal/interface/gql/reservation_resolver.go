package gql

import (
	"github.com/graph-gophers/graphql-go"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/pkg/utils"
)

type reservationResolver struct {
	res *entity.Reservation
}

func newReservationList(list []*entity.Reservation) []*reservationResolver {
	out := make([]*reservationResolver, 0, len(list))
	for _, res := range list {
		out = append(out, &reservationResolver{res: res})
	}
	return out
}

func (r *reservationResolver) ID() graphql.ID {
	return graphql.ID(r.res.ID)
}

func (r *reservationResolver) GuestName() string {
	return r.res.GuestName
}

func (r *reservationResolver) ContactInfo() *contactInfoResolver {
	return &contactInfoResolver{info: r.res.ContactInfo}
}

func (r *reservationResolver) ArrivalTime() string {
	return utils.FormatTimestamp(r.res.ArrivalTime)
}

func (r *reservationResolver) TableSize() int32 {
	return int32(r.res.TableSize)
}

func (r *reservationResolver) Status() string {
	return string(r.res.Status)
}

func (r *reservationResolver) SpecialRequests() *string {
	if r.res.SpecialRequests == "" {
		return nil
	}
	s := r.res.SpecialRequests
	return &s
}

func (r *reservationResolver) CreatedAt() string {
	return utils.FormatTimestamp(r.res.CreatedAt)
}

func (r *reservationResolver) UpdatedAt() string {
	return utils.FormatTimestamp(r.res.UpdatedAt)
}

type contactInfoResolver struct {
	info entity.ContactInfo
}

func (c *contactInfoResolver) Email() string {
	return c.info.Email
}

func (c *contactInfoResolver) Phone() string {
	return c.info.Phone
}
