package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidID       = errors.New("invalid_id")
	ErrEmptyQuestion   = errors.New("empty_question")
	ErrEmptyAnswer     = errors.New("empty_answer")
	ErrProductNotFound = errors.New("product_not_found")
	ErrNotFound        = errors.New("question_not_found")
	ErrNotSeller       = errors.New("not_listing_owner")
	ErrAlreadyAnswered = errors.New("question_already_answered")
)

type CreateRequest struct {
	ProductID string `json:"product_id"`
	Question  string `json:"question"`
}

type AnswerRequest struct {
	QuestionID string `json:"-"`
	Answer     string `json:"answer"`
}

type Response struct {
	ID            string     `json:"id"`
	ProductID     string     `json:"product_id"`
	AskerID       string     `json:"asker_id"`
	AskerUsername string     `json:"asker_username,omitempty"`
	Question      string     `json:"question"`
	Answer        *string    `json:"answer,omitempty"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	// ListByProduct returns questions newest first, enriched with asker
	// usernames.
	ListByProduct(ctx context.Context, productID string) ([]Response, error)
	// Answer sets the seller's answer, at most once per question.
	Answer(ctx context.Context, req AnswerRequest) (*Response, error)
}
