package api

import (
	"context"
	"net/http"

	"taskwise/ai"
	"taskwise/domain"
	"taskwise/payments"
)

// Authenticator is implemented by types able to identify callers from headers.
type Authenticator interface {
	IdentityFromAuthHeader(string) (domain.Identity, error)
}

// TaskService is the task store as seen by handlers.
type TaskService interface {
	List(ctx context.Context, who domain.Identity) ([]domain.Task, error)
	Get(ctx context.Context, who domain.Identity, id string) (domain.Task, error)
	Create(ctx context.Context, who domain.Identity, n domain.NewTask) (domain.Task, error)
	Update(ctx context.Context, who domain.Identity, id string, p domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, who domain.Identity, id string) (bool, error)
}

// Evaluator scores task content. It never fails.
type Evaluator interface {
	Evaluate(ctx context.Context, p ai.Provider, content string) ai.Evaluation
}

// PaymentService drives checkout and webhook handling.
type PaymentService interface {
	Checkout(ctx context.Context, who domain.Identity, plan string) (payments.Checkout, error)
	HandleWebhook(ctx context.Context, raw []byte, header http.Header) error
	Payments(ctx context.Context, who domain.Identity) ([]payments.Payment, error)
	IsPro(ctx context.Context, who domain.Identity) (bool, error)
}

// Profiles stores registered users.
type Profiles interface {
	UpsertUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Deps bundles the collaborators of the HTTP API. Nil Payments, Profiles or
// Evaluator disable their routes' backing features.
type Deps struct {
	Tasks     TaskService
	Auth      Authenticator
	Evaluator Evaluator
	Payments  PaymentService
	Profiles  Profiles
	Health    []HealthCheck
}

// HealthCheck checks that a dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}
