package payments

import (
	"context"
	"sync"

	"taskwise/domain"
)

type fakeStore struct {
	mu       sync.Mutex
	payments map[string]Payment
	payloads map[string][]byte
	fail     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{payments: map[string]Payment{}, payloads: map[string][]byte{}}
}

func (f *fakeStore) InsertPayment(_ context.Context, p Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.payments[p.ID] = p
	return nil
}

func (f *fakeStore) SetPaymentProvider(_ context.Context, userID, paymentID, provider, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	p.Provider = provider
	p.ProviderSessionID = sessionID
	f.payments[paymentID] = p
	return nil
}

func (f *fakeStore) CompletePayment(_ context.Context, c Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	p, ok := f.payments[c.PaymentID]
	if !ok || p.UserID != c.UserID {
		return domain.ErrNotFound
	}
	amount := float64(c.AmountMinor) / 100
	p.Status = StatusCompleted
	p.Amount = &amount
	f.payments[c.PaymentID] = p
	f.payloads[c.PaymentID] = c.Payload
	return nil
}

func (f *fakeStore) ListPayments(_ context.Context, userID string) ([]Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []Completion
	err       error
}

func (f *fakePublisher) PublishPaymentCompleted(_ context.Context, c Completion) error {
	f.published = append(f.published, c)
	return f.err
}

type memDeduper struct {
	seen map[string]bool
}

func (m *memDeduper) Add(_ context.Context, scope, key string) (bool, error) {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	k := scope + ":" + key
	if m.seen[k] {
		return false, nil
	}
	m.seen[k] = true
	return true, nil
}

func (m *memDeduper) Remove(_ context.Context, scope, key string) error {
	delete(m.seen, scope+":"+key)
	return nil
}
