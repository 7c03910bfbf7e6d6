package domain

import "github.com/bwmarrin/snowflake"

// ToResponse maps a stored address to its API shape.
func ToResponse(a *ShippingAddress) Response {
	return Response{
		ID:         snowflake.ID(a.ID).String(),
		FullName:   a.FullName,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		CreatedAt:  a.CreatedAt,
	}
}
