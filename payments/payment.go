// Package payments sells the Pro subscription through a configurable
// payment gateway.
package payments

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidPlan      = errors.New("invalid plan, must be monthly or yearly")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("webhook not configured")
)

// Plan identifies a subscription plan.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// PlanInfo is the price list entry of a plan. Amounts are in minor units.
type PlanInfo struct {
	Plan        Plan
	AmountMinor int64
	Currency    string
	Description string
	ProductName string
	PriceLabel  string
}

var plans = map[Plan]PlanInfo{
	PlanMonthly: {
		Plan:        PlanMonthly,
		AmountMinor: 20000,
		Currency:    "INR",
		Description: "Pro Plan - Monthly (₹200)",
		ProductName: "TaskWise Pro - Monthly",
		PriceLabel:  "₹200/month",
	},
	PlanYearly: {
		Plan:        PlanYearly,
		AmountMinor: 200000,
		Currency:    "INR",
		Description: "Pro Plan - Yearly (₹2000)",
		ProductName: "TaskWise Pro - Yearly",
		PriceLabel:  "₹2000/year",
	},
}

// LookupPlan returns the price list entry for name.
func LookupPlan(name string) (PlanInfo, error) {
	p, ok := plans[Plan(name)]
	if !ok {
		return PlanInfo{}, ErrInvalidPlan
	}
	return p, nil
}

// Status is the lifecycle state of a payment record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is a purchase attempt of a plan by a user.
type Payment struct {
	ID                string    `json:"id"`
	UserID            string    `json:"-"`
	Plan              Plan      `json:"plan"`
	AmountMinor       int64     `json:"amountMinor"`
	Currency          string    `json:"currency"`
	Status            Status    `json:"status"`
	Description       string    `json:"description"`
	Provider          string    `json:"provider,omitempty"`
	ProviderSessionID string    `json:"providerSessionId,omitempty"`
	Amount            *float64  `json:"amount"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Completion describes a payment confirmed by a gateway webhook.
type Completion struct {
	PaymentID   string `json:"paymentId"`
	UserID      string `json:"userId"`
	Provider    string `json:"provider"`
	AmountMinor int64  `json:"amountMinor"`
	Payload     []byte `json:"-"`
}

// Store persists payment records partitioned by user.
type Store interface {
	InsertPayment(ctx context.Context, p Payment) error
	SetPaymentProvider(ctx context.Context, userID, paymentID, provider, sessionID string) error
	CompletePayment(ctx context.Context, c Completion) error
	ListPayments(ctx context.Context, userID string) ([]Payment, error)
}

// EventPublisher announces completed payments to downstream consumers.
type EventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, c Completion) error
}

// Deduper records processed webhook deliveries.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, scope, key string) (bool, error)
	// Remove deletes a previously added key so a redelivery is processed.
	Remove(ctx context.Context, scope, key string) error
}
