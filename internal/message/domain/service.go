package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidID       = errors.New("invalid_id")
	ErrEmptyContent    = errors.New("empty_message")
	ErrSelfMessage     = errors.New("cannot_message_self")
	ErrNotAllowed      = errors.New("messaging_not_allowed")
	ErrNotParticipant  = errors.New("not_conversation_participant")
)

type SendRequest struct {
	ProductID  string `json:"product_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type Response struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username,omitempty"`
	ReceiverID     string    `json:"receiver_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type Service interface {
	// Send persists a message once the order between both parties allows
	// messaging.
	Send(ctx context.Context, req SendRequest) (*Response, error)
	// Conversation lists a product's messages between the caller and the
	// other party, oldest first.
	Conversation(ctx context.Context, productID string) ([]Response, error)
}
