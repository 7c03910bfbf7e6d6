package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/rastro/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetBySlug(ctx context.Context, slug string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Categories(ctx context.Context) ([]string, error)
	UserProducts(ctx context.Context) ([]Response, error)
}

type CreateRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	Type          string         `json:"type"`
	AuctionEndsAt *time.Time     `json:"auction_ends_at"`
	Category      *string        `json:"category"`
	Location      *string        `json:"location"`
	Images        []string       `json:"images"`
	Metadata      map[string]any `json:"metadata"`
}

type UpdateRequest struct {
	ID          string         `json:"-"`
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Price       *float64       `json:"price"`
	Category    *string        `json:"category"`
	Location    *string        `json:"location"`
	Images      []string       `json:"images"`
	Metadata    map[string]any `json:"metadata"`
}

type ListRequest struct {
	Search   string   `form:"search"`
	Category string   `form:"category"`
	MinPrice *float64 `form:"min_price"`
	MaxPrice *float64 `form:"max_price"`
	Location string   `form:"location"`

	pagination.Page
}

type ListResponse struct {
	Items      []Response      `json:"items"`
	Pagination pagination.Info `json:"pagination"`
}

type Response struct {
	ID            string         `json:"id"`
	Slug          string         `json:"slug"`
	SellerID      string         `json:"seller_id"`
	BuyerID       *string        `json:"buyer_id,omitempty"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	BidCount      int            `json:"bid_count"`
	AuctionEndsAt *time.Time     `json:"auction_ends_at,omitempty"`
	Category      *string        `json:"category,omitempty"`
	Location      *string        `json:"location,omitempty"`
	Images        []string       `json:"images"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

var (
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("product_not_found")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrInvalidType        = errors.New("invalid_type")
	ErrInvalidCategory    = errors.New("invalid_category")
	ErrTooManyImages      = errors.New("too_many_images")
	ErrAuctionEndRequired = errors.New("auction_end_required")
	ErrAuctionEndInPast   = errors.New("auction_end_in_past")
	ErrAuctionEndMisused  = errors.New("auction_end_not_allowed")
	ErrAuctionTooLong     = errors.New("auction_end_too_far")
	ErrNotSeller          = errors.New("not_listing_owner")
	ErrNotEditable        = errors.New("listing_not_editable")
	ErrUnauthenticated    = errors.New("unauthenticated")
)
