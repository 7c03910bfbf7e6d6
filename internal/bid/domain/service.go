package domain

import (
	"context"
	"errors"
	"time"

	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
)

type Service interface {
	Place(ctx context.Context, req PlaceRequest) (*PlaceResponse, error)
	ListByProduct(ctx context.Context, productID string) ([]Response, error)
}

type PlaceRequest struct {
	ProductID string  `json:"product_id"`
	Amount    float64 `json:"amount"`
}

type PlaceResponse struct {
	Product productdomain.Response `json:"product"`
	Bid     Response               `json:"bid"`
}

type Response struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	BidderID       string    `json:"bidder_id"`
	BidderUsername string    `json:"bidder_username,omitempty"`
	Amount         float64   `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrProductNotFound = errors.New("product_not_found")
	ErrNotAuction      = errors.New("not_an_auction")
	ErrAuctionEnded    = errors.New("auction_ended")
	ErrOwnListing      = errors.New("cannot_bid_own_listing")
	ErrBidTooLow       = errors.New("bid_too_low")
	ErrConflict        = errors.New("bid_conflict")
	ErrRateLimited     = errors.New("rate_limited")
	ErrUnauthenticated = errors.New("unauthenticated")
)
