package storage

import (
	"context"
	"encoding/json"
	"time"

	"taskwise/payments"
)

// PaymentCompletedType is the message type published for settled payments.
const PaymentCompletedType = "payment-completed"

type paymentEventMessage struct {
	Type        string `json:"type"`
	PaymentID   string `json:"paymentId"`
	UserID      string `json:"userId"`
	Provider    string `json:"provider"`
	AmountMinor int64  `json:"amountMinor"`
	Timestamp   int64  `json:"timestamp"`
}

func encodePaymentEvent(c payments.Completion, at time.Time) ([]byte, error) {
	return json.Marshal(paymentEventMessage{
		Type:        PaymentCompletedType,
		PaymentID:   c.PaymentID,
		UserID:      c.UserID,
		Provider:    c.Provider,
		AmountMinor: c.AmountMinor,
		Timestamp:   at.UnixNano(),
	})
}

// PublishPaymentCompleted enqueues a payment-completed message. It is a no-op
// when no queue is configured.
func (s *Storage) PublishPaymentCompleted(ctx context.Context, c payments.Completion) error {
	if s.paymentQueue == nil {
		return nil
	}
	data, err := encodePaymentEvent(c, time.Now())
	if err != nil {
		return err
	}
	_, err = s.paymentQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
