package storage

import (
	"context"
	"encoding/json"
	"time"

	"taskwise/domain"
	"taskwise/payments"
)

// InsertPayment adds a payment row under the buyer's partition.
func (s *Storage) InsertPayment(ctx context.Context, p payments.Payment) error {
	payload, err := json.Marshal(newPaymentEntity(p))
	if err == nil {
		_, err = s.paymentTable.AddEntity(ctx, payload, nil)
	}
	return err
}

// SetPaymentProvider records which gateway session handles a payment.
func (s *Storage) SetPaymentProvider(ctx context.Context, userID, paymentID, provider, sessionID string) error {
	upd := paymentUpdate{
		Entity:   Entity{PartitionKey: userID, RowKey: paymentID},
		Provider: &provider,
	}
	if sessionID != "" {
		upd.ProviderSessionID = &sessionID
	}
	err := mergeEntity(ctx, s.paymentTable, upd)
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

// CompletePayment marks a payment completed with the settled amount in major
// units and keeps the webhook payload for audit.
func (s *Storage) CompletePayment(ctx context.Context, c payments.Completion) error {
	status := string(payments.StatusCompleted)
	amount := float64(c.AmountMinor) / 100
	now := time.Now().UTC()
	payload := string(c.Payload)
	upd := paymentUpdate{
		Entity:          Entity{PartitionKey: c.UserID, RowKey: c.PaymentID},
		Status:          &status,
		Amount:          &amount,
		AmountType:      ptr(EdmDouble),
		CompletedAt:     &now,
		CompletedAtType: ptr(EdmDateTime),
		WebhookPayload:  &payload,
	}
	if c.Provider != "" {
		upd.Provider = &c.Provider
	}
	err := mergeEntity(ctx, s.paymentTable, upd)
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

// ListPayments retrieves all payments of a user.
func (s *Storage) ListPayments(ctx context.Context, userID string) ([]payments.Payment, error) {
	return listEntities(ctx, s.paymentTable, partitionFilter(userID), decodePayment)
}

func ptr[T any](v T) *T { return &v }
