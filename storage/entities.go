package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"taskwise/domain"
	"taskwise/payments"
)

// Entity represents base table entity keys.
type Entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

const (
	EdmInt64    = "Edm.Int64"
	EdmDouble   = "Edm.Double"
	EdmDateTime = "Edm.DateTime"
)

// userPartition holds every user row; users are looked up by id or email.
const userPartition = "user"

type taskEntity struct {
	Entity
	Title          string `json:"Title"`
	Description    string `json:"Description"`
	Status         string `json:"Status"`
	Priority       string `json:"Priority"`
	DueDate        string `json:"DueDate"`
	AssigneeName   string `json:"AssigneeName"`
	AssigneeEmail  string `json:"AssigneeEmail"`
	AssigneeAvatar string `json:"AssigneeAvatar"`
	AssigneeID     string `json:"AssigneeId"`
	CreatedAt      int64  `json:"CreatedAt,string"`
	CreatedAtType  string `json:"CreatedAt@odata.type"`
}

func newTaskEntity(owner string, t domain.Task) taskEntity {
	return taskEntity{
		Entity:         Entity{PartitionKey: owner, RowKey: t.ID},
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		DueDate:        t.DueDate,
		AssigneeName:   t.Assignee.Name,
		AssigneeEmail:  t.Assignee.Email,
		AssigneeAvatar: t.Assignee.Avatar,
		AssigneeID:     t.AssigneeID,
		CreatedAt:      t.CreatedAt,
		CreatedAtType:  EdmInt64,
	}
}

func (e taskEntity) task() (domain.Task, error) {
	status, err := domain.ParseStatus(e.Status)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", e.RowKey, err)
	}
	priority, err := domain.ParsePriority(e.Priority)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", e.RowKey, err)
	}
	return domain.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     e.DueDate,
		Assignee: domain.Assignee{
			Name:   e.AssigneeName,
			Email:  e.AssigneeEmail,
			Avatar: e.AssigneeAvatar,
		},
		AssigneeID: e.AssigneeID,
		CreatedAt:  e.CreatedAt,
	}, nil
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	return ent.task()
}

type userEntity struct {
	Entity
	Email  string `json:"Email"`
	Name   string `json:"Name,omitempty"`
	Avatar string `json:"Avatar,omitempty"`
}

func decodeUser(data []byte) (domain.User, error) {
	var ent userEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: ent.RowKey, Email: ent.Email, Name: ent.Name, Avatar: ent.Avatar}, nil
}

type paymentEntity struct {
	Entity
	Plan              string    `json:"Plan"`
	AmountMinor       int64     `json:"AmountMinor,string"`
	AmountMinorType   string    `json:"AmountMinor@odata.type"`
	Currency          string    `json:"Currency"`
	Status            string    `json:"Status"`
	Description       string    `json:"Description"`
	Provider          string    `json:"Provider,omitempty"`
	ProviderSessionID string    `json:"ProviderSessionId,omitempty"`
	Amount            *float64  `json:"Amount,omitempty"`
	AmountType        *string   `json:"Amount@odata.type,omitempty"`
	CreatedAt         time.Time `json:"CreatedAt"`
	CreatedAtType     string    `json:"CreatedAt@odata.type"`
}

// paymentUpdate carries a partial update merged into a payment row.
type paymentUpdate struct {
	Entity
	Status            *string    `json:"Status,omitempty"`
	Provider          *string    `json:"Provider,omitempty"`
	ProviderSessionID *string    `json:"ProviderSessionId,omitempty"`
	Amount            *float64   `json:"Amount,omitempty"`
	AmountType        *string    `json:"Amount@odata.type,omitempty"`
	CompletedAt       *time.Time `json:"CompletedAt,omitempty"`
	CompletedAtType   *string    `json:"CompletedAt@odata.type,omitempty"`
	WebhookPayload    *string    `json:"WebhookPayload,omitempty"`
}

func newPaymentEntity(p payments.Payment) paymentEntity {
	ent := paymentEntity{
		Entity:            Entity{PartitionKey: p.UserID, RowKey: p.ID},
		Plan:              string(p.Plan),
		AmountMinor:       p.AmountMinor,
		AmountMinorType:   EdmInt64,
		Currency:          p.Currency,
		Status:            string(p.Status),
		Description:       p.Description,
		Provider:          p.Provider,
		ProviderSessionID: p.ProviderSessionID,
		CreatedAt:         p.CreatedAt.UTC(),
		CreatedAtType:     EdmDateTime,
	}
	if p.Amount != nil {
		t := EdmDouble
		ent.Amount = p.Amount
		ent.AmountType = &t
	}
	return ent
}

func decodePayment(data []byte) (payments.Payment, error) {
	var ent paymentEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return payments.Payment{}, err
	}
	return payments.Payment{
		ID:                ent.RowKey,
		UserID:            ent.PartitionKey,
		Plan:              payments.Plan(ent.Plan),
		AmountMinor:       ent.AmountMinor,
		Currency:          ent.Currency,
		Status:            payments.Status(ent.Status),
		Description:       ent.Description,
		Provider:          ent.Provider,
		ProviderSessionID: ent.ProviderSessionID,
		Amount:            ent.Amount,
		CreatedAt:         ent.CreatedAt,
	}, nil
}
