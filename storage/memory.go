package storage

import (
	"context"
	"strings"
	"sync"

	"taskwise/domain"
	"taskwise/payments"
)

// Memory keeps tasks, users and payments in process. It is used when no
// storage account is configured and by tests; data does not survive a
// restart.
type Memory struct {
	mu       sync.RWMutex
	tasks    map[string]map[string]domain.Task
	users    map[string]domain.User
	payments map[string]map[string]payments.Payment
}

func NewMemory() *Memory {
	return &Memory{
		tasks:    map[string]map[string]domain.Task{},
		users:    map[string]domain.User{},
		payments: map[string]map[string]payments.Payment{},
	}
}

func (m *Memory) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Task, 0, len(m.tasks[owner]))
	for _, t := range m.tasks[owner] {
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) GetTask(ctx context.Context, owner, id string) (*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[owner][id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) InsertTask(ctx context.Context, owner string, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks[owner] == nil {
		m.tasks[owner] = map[string]domain.Task{}
	}
	m.tasks[owner][t.ID] = t
	return nil
}

func (m *Memory) ReplaceTask(ctx context.Context, owner string, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[owner][t.ID]; !ok {
		return domain.ErrNotFound
	}
	m.tasks[owner][t.ID] = t
	return nil
}

func (m *Memory) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[owner][id]; !ok {
		return false, nil
	}
	delete(m.tasks[owner], id)
	return true, nil
}

func (m *Memory) UpsertUser(ctx context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	m.users[u.ID] = u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) UserIDByEmail(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return u.ID, nil
		}
	}
	return "", nil
}

func (m *Memory) InsertPayment(ctx context.Context, p payments.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payments[p.UserID] == nil {
		m.payments[p.UserID] = map[string]payments.Payment{}
	}
	m.payments[p.UserID][p.ID] = p
	return nil
}

func (m *Memory) SetPaymentProvider(ctx context.Context, userID, paymentID, provider, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[userID][paymentID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Provider = provider
	if sessionID != "" {
		p.ProviderSessionID = sessionID
	}
	m.payments[userID][paymentID] = p
	return nil
}

func (m *Memory) CompletePayment(ctx context.Context, c payments.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[c.UserID][c.PaymentID]
	if !ok {
		return domain.ErrNotFound
	}
	amount := float64(c.AmountMinor) / 100
	p.Status = payments.StatusCompleted
	p.Amount = &amount
	if c.Provider != "" {
		p.Provider = c.Provider
	}
	m.payments[c.UserID][c.PaymentID] = p
	return nil
}

func (m *Memory) ListPayments(ctx context.Context, userID string) ([]payments.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payments.Payment, 0, len(m.payments[userID]))
	for _, p := range m.payments[userID] {
		out = append(out, p)
	}
	return out, nil
}

// PublishPaymentCompleted drops the event; there is no queue in memory mode.
func (m *Memory) PublishPaymentCompleted(ctx context.Context, c payments.Completion) error {
	return nil
}
