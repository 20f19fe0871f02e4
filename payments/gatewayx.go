package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type GatewayXConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	HTTPClient    *http.Client
}

// GatewayX is a generic hosted-checkout gateway that signs webhooks with a
// hex HMAC-SHA256 of the raw body.
type GatewayX struct {
	cfg    GatewayXConfig
	client *http.Client
}

func NewGatewayX(cfg GatewayXConfig) *GatewayX {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GatewayX{cfg: cfg, client: defaultHTTPClient(cfg.HTTPClient)}
}

func (g *GatewayX) Name() string { return "gatewayx" }

func (g *GatewayX) SignatureHeaders() []string {
	return []string{"X-Uropay-Signature", "X-Signature"}
}

type gatewayXPaymentRequest struct {
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	CallbackURL   string            `json:"callback_url"`
	Metadata      map[string]string `json:"metadata"`
}

func (g *GatewayX) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if g.cfg.BaseURL == "" || g.cfg.APIKey == "" {
		return Session{}, fmt.Errorf("gatewayx: api base or key not configured")
	}
	body, err := json.Marshal(gatewayXPaymentRequest{
		Amount:        req.Plan.AmountMinor,
		Currency:      req.Plan.Currency,
		Description:   req.Plan.Description,
		CustomerEmail: req.UserEmail,
		CallbackURL:   req.CallbackURL,
		Metadata: map[string]string{
			"payment_id": req.PaymentID,
			"user_id":    req.UserID,
			"plan":       string(req.Plan.Plan),
		},
	})
	if err != nil {
		return Session{}, fmt.Errorf("gatewayx: encode payment: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("gatewayx: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	var out struct {
		ID          string `json:"id"`
		PaymentID   string `json:"payment_id"`
		CheckoutURL string `json:"checkout_url"`
		URL         string `json:"url"`
	}
	if err := doRequest(g.client, httpReq, g.Name(), &out); err != nil {
		return Session{}, err
	}
	redirect := out.CheckoutURL
	if redirect == "" {
		redirect = out.URL
	}
	if redirect == "" {
		return Session{}, fmt.Errorf("gatewayx: response has no checkout url")
	}
	id := out.ID
	if id == "" {
		id = out.PaymentID
	}
	return Session{ProviderSessionID: id, RedirectURL: redirect}, nil
}

type gatewayXMetadata struct {
	PaymentID string `json:"payment_id"`
	UserID    string `json:"user_id"`
}

type gatewayXEvent struct {
	ID        string           `json:"id"`
	Event     string           `json:"event"`
	Status    string           `json:"status"`
	Amount    int64            `json:"amount"`
	PaymentID string           `json:"payment_id"`
	UserID    string           `json:"user_id"`
	Metadata  gatewayXMetadata `json:"metadata"`
	Data      struct {
		Status   string           `json:"status"`
		Amount   int64            `json:"amount"`
		Metadata gatewayXMetadata `json:"metadata"`
	} `json:"data"`
}

func (g *GatewayX) VerifyWebhook(raw []byte, signature string) (Event, error) {
	if g.cfg.WebhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	if !validHexSignature(g.cfg.WebhookSecret, raw, signature) {
		return Event{}, ErrInvalidSignature
	}
	var ev gatewayXEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("gatewayx: decode event: %w", err)
	}
	status := firstNonEmpty(ev.Status, ev.Data.Status)
	amount := ev.Amount
	if amount == 0 {
		amount = ev.Data.Amount
	}
	id := ev.ID
	if id == "" {
		id = bodyDigest(raw)
	}
	return Event{
		ID:          id,
		Type:        ev.Event,
		Completed:   gatewayXCompleted(status),
		PaymentID:   firstNonEmpty(ev.Metadata.PaymentID, ev.Data.Metadata.PaymentID, ev.PaymentID),
		UserID:      firstNonEmpty(ev.Metadata.UserID, ev.Data.Metadata.UserID, ev.UserID),
		AmountMinor: amount,
	}, nil
}

// gatewayXCompleted treats a missing status as success; the gateway only
// signs deliveries for settled payments unless it says otherwise.
func gatewayXCompleted(status string) bool {
	switch strings.ToLower(status) {
	case "", "completed", "success", "succeeded", "paid", "captured":
		return true
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
