package domain

import "context"

const (
	OutcomeSold      = "sold"
	OutcomeCancelled = "cancelled"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// SettleDetail records what happened to one expired auction.
type SettleDetail struct {
	ProductID string `json:"product_id"`
	Outcome   string `json:"outcome"`
	OrderID   string `json:"order_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SettleReport summarizes one settlement sweep.
type SettleReport struct {
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
	Details   []SettleDetail `json:"details"`
}

type Service interface {
	// Settle closes every expired auction it can find, each one
	// independently. A failure on one auction never aborts the sweep.
	Settle(ctx context.Context) (*SettleReport, error)
}
