package domain

import (
	"context"
	"errors"
	"time"

	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	shippingdomain "github.com/smallbiznis/rastro/internal/shippingaddress/domain"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("order_not_found")
	ErrProductNotFound    = errors.New("product_not_found")
	ErrProductUnavailable = errors.New("product_not_available")
	ErrOwnListing         = errors.New("cannot_buy_own_listing")
	ErrNotBuyer           = errors.New("not_order_buyer")
	ErrNotSeller          = errors.New("not_order_seller")
	ErrNotParticipant     = errors.New("not_order_participant")
	ErrInvalidTransition  = errors.New("invalid_order_status")
	ErrActiveOrderExists  = errors.New("order_conflict")
	ErrAddressNotFound    = errors.New("shipping_address_not_found")
	ErrAddressNotOwned    = errors.New("shipping_address_not_owned")
	ErrReceiptUnavailable = errors.New("receipt_not_available")
	ErrNoShippingAddress  = errors.New("shipping_address_missing")
)

type CheckoutRequest struct {
	ProductID         string `json:"product_id"`
	ShippingAddressID string `json:"shipping_address_id"`
}

type Response struct {
	ID                string      `json:"id"`
	Reference         string      `json:"reference"`
	ProductID         string      `json:"product_id"`
	BuyerID           string      `json:"buyer_id"`
	SellerID          string      `json:"seller_id"`
	ShippingAddressID *string     `json:"shipping_address_id,omitempty"`
	Status            OrderStatus `json:"status"`
	TotalAmount       float64     `json:"total_amount"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ReceiptFile is a rendered PDF receipt ready to stream to the client.
type ReceiptFile struct {
	FileName string
	Content  []byte
}

type Service interface {
	// Buy reserves a direct-sale listing for the caller and opens a
	// pending_payment order.
	Buy(ctx context.Context, productID string) (*Response, error)
	// Checkout attaches a shipping address, moving the order to
	// pending_shipping and the listing to sold.
	Checkout(ctx context.Context, req CheckoutRequest) (*Response, error)
	Pay(ctx context.Context, orderID string) (*Response, error)
	Ship(ctx context.Context, orderID string) (*Response, error)
	Complete(ctx context.Context, orderID string) (*Response, error)
	// MarkAsPaid lets the seller confirm an off-platform payment on a sold
	// listing.
	MarkAsPaid(ctx context.Context, productID string) (*productdomain.Response, error)
	Get(ctx context.Context, orderID string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	ShippingDetails(ctx context.Context, orderID string) (*shippingdomain.Response, error)
	Receipt(ctx context.Context, orderID string) (*ReceiptFile, error)
}
