package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrMissingField    = errors.New("missing_required_field")
	ErrNotFound        = errors.New("shipping_address_not_found")
)

type CreateRequest struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type Response struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
}
