package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	stripeAPIBase         = "https://api.stripe.com"
	stripeSignatureMaxAge = 5 * time.Minute
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// Stripe opens hosted checkout sessions.
type Stripe struct {
	cfg    StripeConfig
	client *http.Client
	now    func() time.Time
}

func NewStripe(cfg StripeConfig) *Stripe {
	if cfg.BaseURL == "" {
		cfg.BaseURL = stripeAPIBase
	}
	return &Stripe{cfg: cfg, client: defaultHTTPClient(cfg.HTTPClient), now: time.Now}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) SignatureHeaders() []string { return []string{"Stripe-Signature"} }

func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if s.cfg.SecretKey == "" {
		return Session{}, fmt.Errorf("stripe: secret key not configured")
	}
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(req.Plan.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Plan.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", req.Plan.ProductName)
	form.Set("line_items[0][price_data][product_data][description]", req.Plan.PriceLabel)
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("client_reference_id", req.PaymentID)
	form.Set("metadata[payment_id]", req.PaymentID)
	form.Set("metadata[user_id]", req.UserID)
	form.Set("metadata[plan]", string(req.Plan.Plan))
	if req.UserEmail != "" {
		form.Set("customer_email", req.UserEmail)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.SecretKey)

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := doRequest(s.client, httpReq, s.Name(), &out); err != nil {
		return Session{}, err
	}
	if out.URL == "" {
		return Session{}, fmt.Errorf("stripe: session %s has no checkout url", out.ID)
	}
	return Session{ProviderSessionID: out.ID, RedirectURL: out.URL}, nil
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			AmountTotal       int64             `json:"amount_total"`
			PaymentStatus     string            `json:"payment_status"`
			ClientReferenceID string            `json:"client_reference_id"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks a Stripe-Signature header of the form
// "t=<unix>,v1=<hex>[,v1=<hex>...]" against "<t>.<body>".
func (s *Stripe) VerifyWebhook(raw []byte, signature string) (Event, error) {
	if s.cfg.WebhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	ts, sigs := parseStripeSignature(signature)
	if ts == "" || len(sigs) == 0 {
		return Event{}, ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Event{}, ErrInvalidSignature
	}
	if age := s.now().Sub(time.Unix(unix, 0)); age > stripeSignatureMaxAge || age < -stripeSignatureMaxAge {
		return Event{}, ErrInvalidSignature
	}
	payload := append([]byte(ts+"."), raw...)
	ok := false
	for _, sig := range sigs {
		if validHexSignature(s.cfg.WebhookSecret, payload, sig) {
			ok = true
			break
		}
	}
	if !ok {
		return Event{}, ErrInvalidSignature
	}

	var ev stripeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("stripe: decode event: %w", err)
	}
	obj := ev.Data.Object
	paymentID := obj.Metadata["payment_id"]
	if paymentID == "" {
		paymentID = obj.ClientReferenceID
	}
	id := ev.ID
	if id == "" {
		id = bodyDigest(raw)
	}
	return Event{
		ID:          id,
		Type:        ev.Type,
		Completed:   ev.Type == "checkout.session.completed" && (obj.PaymentStatus == "" || obj.PaymentStatus == "paid"),
		PaymentID:   paymentID,
		UserID:      obj.Metadata["user_id"],
		AmountMinor: obj.AmountTotal,
	}, nil
}

func parseStripeSignature(header string) (string, []string) {
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	return ts, sigs
}
