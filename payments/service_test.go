package payments

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"taskwise/domain"
)

var alice = domain.Identity{UserID: "u1", Email: "alice@example.com", Name: "Alice"}

func gatewayXService(t *testing.T, store *fakeStore, pub *fakePublisher, dd Deduper) (*Service, *test.Hook) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"gx_1","checkout_url":"https://pay.example/gx_1"}`))
	}))
	t.Cleanup(srv.Close)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	svc := NewService(ServiceOptions{
		Gateway: NewGatewayX(GatewayXConfig{BaseURL: srv.URL, APIKey: "k", WebhookSecret: "gx"}),
		Store:   store,
		Events:  pub,
		Dedupe:  dd,
		AppURL:  "http://app.local/",
		Logger:  logger,
	})
	return svc, hook
}

func signedHeader(body []byte) http.Header {
	h := http.Header{}
	h.Set("X-Signature", hmacHex("gx", body))
	return h
}

func TestCheckoutWithoutProviderLeavesPaymentPending(t *testing.T) {
	store := newFakeStore()
	svc := NewService(ServiceOptions{Store: store})

	out, err := svc.Checkout(context.Background(), alice, "monthly")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !out.Pending() || out.PaymentID == "" {
		t.Fatalf("expected pending checkout, got %+v", out)
	}
	p := store.payments[out.PaymentID]
	if p.Status != StatusPending || p.AmountMinor != 20000 || p.UserID != "u1" || p.Description != "Pro Plan - Monthly (₹200)" {
		t.Fatalf("unexpected payment row %+v", p)
	}
}

func TestCheckoutRejectsInvalidPlanAndAnonymous(t *testing.T) {
	store := newFakeStore()
	svc := NewService(ServiceOptions{Store: store})
	if _, err := svc.Checkout(context.Background(), alice, "lifetime"); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
	if _, err := svc.Checkout(context.Background(), domain.Identity{}, "monthly"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if len(store.payments) != 0 {
		t.Fatalf("no payment should be recorded")
	}
}

func TestCheckoutRecordsProviderSession(t *testing.T) {
	store := newFakeStore()
	svc, _ := gatewayXService(t, store, nil, nil)

	out, err := svc.Checkout(context.Background(), alice, "yearly")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if out.RedirectURL != "https://pay.example/gx_1" || out.Provider != "gatewayx" {
		t.Fatalf("unexpected checkout %+v", out)
	}
	p := store.payments[out.PaymentID]
	if p.Provider != "gatewayx" || p.ProviderSessionID != "gx_1" {
		t.Fatalf("provider session not recorded: %+v", p)
	}
}

func TestHandleWebhookCompletesOnce(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc, _ := gatewayXService(t, store, pub, &memDeduper{})
	out, err := svc.Checkout(context.Background(), alice, "monthly")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	body := []byte(`{"id":"evt_9","metadata":{"payment_id":"` + out.PaymentID + `","user_id":"u1"},"amount":20000}`)
	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhook(context.Background(), body, signedHeader(body)); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	p := store.payments[out.PaymentID]
	if p.Status != StatusCompleted || p.Amount == nil || *p.Amount != 200 {
		t.Fatalf("payment not completed: %+v", p)
	}
	if len(pub.published) != 1 || pub.published[0].PaymentID != out.PaymentID {
		t.Fatalf("expected exactly one published event, got %+v", pub.published)
	}
	pro, err := svc.IsPro(context.Background(), alice)
	if err != nil || !pro {
		t.Fatalf("expected caller to be pro, got %v %v", pro, err)
	}
}

func TestHandleWebhookInvalidSignatureChangesNothing(t *testing.T) {
	store := newFakeStore()
	svc, hook := gatewayXService(t, store, nil, nil)
	out, _ := svc.Checkout(context.Background(), alice, "monthly")

	body := []byte(`{"metadata":{"payment_id":"` + out.PaymentID + `","user_id":"u1"}}`)
	h := http.Header{}
	h.Set("X-Uropay-Signature", hmacHex("forged", body))
	if err := svc.HandleWebhook(context.Background(), body, h); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if store.payments[out.PaymentID].Status != StatusPending {
		t.Fatalf("payment must stay pending")
	}
	if e := hook.LastEntry(); e == nil || e.Level != log.WarnLevel {
		t.Fatalf("expected warning log, got %+v", e)
	}
}

func TestHandleWebhookWithoutReferenceIsAcknowledged(t *testing.T) {
	store := newFakeStore()
	svc, _ := gatewayXService(t, store, nil, nil)
	body := []byte(`{"amount":100}`)
	if err := svc.HandleWebhook(context.Background(), body, signedHeader(body)); err != nil {
		t.Fatalf("expected ack, got %v", err)
	}
}

func TestHandleWebhookReleasesDedupeKeyOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	dd := &memDeduper{}
	svc, _ := gatewayXService(t, store, nil, dd)
	out, _ := svc.Checkout(context.Background(), alice, "monthly")

	store.fail = errors.New("table unavailable")
	body := []byte(`{"id":"evt_1","metadata":{"payment_id":"` + out.PaymentID + `","user_id":"u1"}}`)
	err := svc.HandleWebhook(context.Background(), body, signedHeader(body))
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if len(dd.seen) != 0 {
		t.Fatalf("dedupe key should be released, got %v", dd.seen)
	}

	store.fail = nil
	if err := svc.HandleWebhook(context.Background(), body, signedHeader(body)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if store.payments[out.PaymentID].Status != StatusCompleted {
		t.Fatalf("redelivery should complete the payment")
	}
}

func TestHandleWebhookNotConfigured(t *testing.T) {
	svc := NewService(ServiceOptions{Store: newFakeStore()})
	if err := svc.HandleWebhook(context.Background(), []byte(`{}`), http.Header{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
