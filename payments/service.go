package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskwise/domain"
)

// Checkout is the client-facing outcome of starting a purchase.
type Checkout struct {
	PaymentID   string
	Provider    string
	RedirectURL string
	Order       *OrderDescriptor
}

// Pending reports whether no gateway took over the checkout.
func (c Checkout) Pending() bool { return c.Provider == "" }

// Service drives checkout sessions and webhook confirmations.
type Service struct {
	gateway Gateway
	store   Store
	events  EventPublisher
	dedupe  Deduper
	appURL  string
	log     *log.Logger
}

type ServiceOptions struct {
	Gateway Gateway
	Store   Store
	Events  EventPublisher
	Dedupe  Deduper
	AppURL  string
	Logger  *log.Logger
}

func NewService(opts ServiceOptions) *Service {
	if opts.Store == nil {
		panic("payments.NewService: store is nil")
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return &Service{
		gateway: opts.Gateway,
		store:   opts.Store,
		events:  opts.Events,
		dedupe:  opts.Dedupe,
		appURL:  strings.TrimRight(opts.AppURL, "/"),
		log:     opts.Logger,
	}
}

// Checkout records a pending payment for plan and opens a session with the
// configured gateway.
func (s *Service) Checkout(ctx context.Context, who domain.Identity, plan string) (Checkout, error) {
	if !who.Authenticated() {
		return Checkout{}, domain.ErrUnauthenticated
	}
	info, err := LookupPlan(plan)
	if err != nil {
		return Checkout{}, err
	}
	p := Payment{
		ID:          uuid.NewString(),
		UserID:      who.UserID,
		Plan:        info.Plan,
		AmountMinor: info.AmountMinor,
		Currency:    info.Currency,
		Status:      StatusPending,
		Description: info.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.InsertPayment(ctx, p); err != nil {
		return Checkout{}, &domain.UpstreamError{Op: "insert payment", Err: err}
	}
	out := Checkout{PaymentID: p.ID}
	if s.gateway == nil {
		s.log.WithField("payment_id", p.ID).Info("no payment provider configured, payment left pending")
		return out, nil
	}

	sess, err := s.gateway.CreateSession(ctx, SessionRequest{
		PaymentID:   p.ID,
		UserID:      who.UserID,
		UserEmail:   who.Email,
		UserName:    who.Name,
		Plan:        info,
		SuccessURL:  fmt.Sprintf("%s/dashboard?payment_status=success&payment_id=%s", s.appURL, p.ID),
		CancelURL:   s.appURL + "/payments?payment_status=canceled",
		CallbackURL: s.appURL + "/api/payments/webhook",
	})
	if err != nil {
		return Checkout{}, &domain.UpstreamError{Op: s.gateway.Name() + " session", Err: err}
	}
	if err := s.store.SetPaymentProvider(ctx, who.UserID, p.ID, s.gateway.Name(), sess.ProviderSessionID); err != nil {
		s.log.WithError(err).WithField("payment_id", p.ID).Warn("failed to record provider session")
	}
	out.Provider = s.gateway.Name()
	out.RedirectURL = sess.RedirectURL
	out.Order = sess.Order
	return out, nil
}

// HandleWebhook verifies and applies a gateway notification. Deliveries that
// do not complete a payment are acknowledged without state changes.
func (s *Service) HandleWebhook(ctx context.Context, raw []byte, header http.Header) error {
	if s.gateway == nil {
		return ErrNotConfigured
	}
	var signature string
	for _, h := range s.gateway.SignatureHeaders() {
		if signature = header.Get(h); signature != "" {
			break
		}
	}
	entry := s.log.WithField("provider", s.gateway.Name())
	ev, err := s.gateway.VerifyWebhook(raw, signature)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			entry.Warn("rejected webhook with invalid signature")
		}
		return err
	}
	entry = entry.WithFields(log.Fields{"event_id": ev.ID, "event_type": ev.Type})
	if !ev.Completed {
		entry.Debug("ignoring webhook event")
		return nil
	}
	if ev.PaymentID == "" || ev.UserID == "" {
		entry.Warn("webhook event without payment reference")
		return nil
	}

	if s.dedupe != nil {
		added, err := s.dedupe.Add(ctx, s.gateway.Name(), ev.ID)
		if err != nil {
			return &domain.UpstreamError{Op: "dedupe webhook", Err: err}
		}
		if !added {
			entry.Info("duplicate webhook delivery")
			return nil
		}
	}

	c := Completion{
		PaymentID:   ev.PaymentID,
		UserID:      ev.UserID,
		Provider:    s.gateway.Name(),
		AmountMinor: ev.AmountMinor,
		Payload:     raw,
	}
	if err := s.store.CompletePayment(ctx, c); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			entry.WithField("payment_id", ev.PaymentID).Warn("webhook references unknown payment")
			return nil
		}
		if s.dedupe != nil {
			if rerr := s.dedupe.Remove(ctx, s.gateway.Name(), ev.ID); rerr != nil {
				entry.WithError(rerr).Error("failed to release webhook dedupe key")
			}
		}
		return &domain.UpstreamError{Op: "complete payment", Err: err}
	}
	entry.WithField("payment_id", ev.PaymentID).Info("payment completed")

	if s.events != nil {
		if err := s.events.PublishPaymentCompleted(ctx, c); err != nil {
			entry.WithError(err).Error("failed to publish payment-completed event")
		}
	}
	return nil
}

// Payments lists the caller's payments, newest first.
func (s *Service) Payments(ctx context.Context, who domain.Identity) ([]Payment, error) {
	if !who.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	ps, err := s.store.ListPayments(ctx, who.UserID)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "list payments", Err: err}
	}
	if ps == nil {
		ps = []Payment{}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
	return ps, nil
}

// IsPro reports whether the caller has a completed payment.
func (s *Service) IsPro(ctx context.Context, who domain.Identity) (bool, error) {
	ps, err := s.Payments(ctx, who)
	if err != nil {
		return false, err
	}
	for _, p := range ps {
		if p.Status == StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}
