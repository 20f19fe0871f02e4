package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const razorpayAPIBase = "https://api.razorpay.com"

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	HTTPClient    *http.Client
}

// Razorpay creates orders that the browser completes with the checkout widget.
type Razorpay struct {
	cfg    RazorpayConfig
	client *http.Client
}

func NewRazorpay(cfg RazorpayConfig) *Razorpay {
	if cfg.BaseURL == "" {
		cfg.BaseURL = razorpayAPIBase
	}
	return &Razorpay{cfg: cfg, client: defaultHTTPClient(cfg.HTTPClient)}
}

func (r *Razorpay) Name() string { return "razorpay" }

func (r *Razorpay) SignatureHeaders() []string { return []string{"X-Razorpay-Signature"} }

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

func (r *Razorpay) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if r.cfg.KeyID == "" || r.cfg.KeySecret == "" {
		return Session{}, fmt.Errorf("razorpay: key id or secret not configured")
	}
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   req.Plan.AmountMinor,
		Currency: req.Plan.Currency,
		Receipt:  "payment_" + req.PaymentID,
		Notes: map[string]string{
			"payment_id": req.PaymentID,
			"user_id":    req.UserID,
			"plan":       string(req.Plan.Plan),
		},
	})
	if err != nil {
		return Session{}, fmt.Errorf("razorpay: encode order: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("razorpay: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(r.cfg.KeyID, r.cfg.KeySecret)

	var out struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := doRequest(r.client, httpReq, r.Name(), &out); err != nil {
		return Session{}, err
	}
	if out.ID == "" {
		return Session{}, fmt.Errorf("razorpay: order response has no id")
	}
	name := req.UserName
	if name == "" {
		name = "User"
	}
	return Session{
		ProviderSessionID: out.ID,
		Order: &OrderDescriptor{
			OrderID:   out.ID,
			Key:       r.cfg.KeyID,
			Amount:    req.Plan.AmountMinor,
			Currency:  req.Plan.Currency,
			UserEmail: req.UserEmail,
			UserName:  name,
		},
	}, nil
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				Amount  int64             `json:"amount"`
				OrderID string            `json:"order_id"`
				Status  string            `json:"status"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (r *Razorpay) VerifyWebhook(raw []byte, signature string) (Event, error) {
	if r.cfg.WebhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	if !validHexSignature(r.cfg.WebhookSecret, raw, signature) {
		return Event{}, ErrInvalidSignature
	}
	var ev razorpayEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("razorpay: decode event: %w", err)
	}
	ent := ev.Payload.Payment.Entity
	id := ev.Event + ":" + ent.ID
	if ent.ID == "" {
		id = bodyDigest(raw)
	}
	return Event{
		ID:          id,
		Type:        ev.Event,
		Completed:   ev.Event == "payment.captured" || ev.Event == "order.paid",
		PaymentID:   ent.Notes["payment_id"],
		UserID:      ent.Notes["user_id"],
		AmountMinor: ent.Amount,
	}, nil
}
