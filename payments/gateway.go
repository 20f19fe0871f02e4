package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const gatewayTimeout = 30 * time.Second

// SessionRequest carries what a gateway needs to open a checkout.
type SessionRequest struct {
	PaymentID   string
	UserID      string
	UserEmail   string
	UserName    string
	Plan        PlanInfo
	SuccessURL  string
	CancelURL   string
	CallbackURL string
}

// OrderDescriptor is returned by gateways whose checkout runs client side.
type OrderDescriptor struct {
	OrderID   string `json:"orderId"`
	Key       string `json:"key"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

// Session is the outcome of opening a checkout: either a hosted page to
// redirect to or an order for a client-side widget.
type Session struct {
	ProviderSessionID string
	RedirectURL       string
	Order             *OrderDescriptor
}

// Event is a verified webhook delivery.
type Event struct {
	// ID identifies the delivery for deduplication.
	ID          string
	Type        string
	Completed   bool
	PaymentID   string
	UserID      string
	AmountMinor int64
}

// Gateway is a payment provider integration.
type Gateway interface {
	Name() string
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	// SignatureHeaders lists the request headers that may carry the webhook
	// signature, in lookup order.
	SignatureHeaders() []string
	VerifyWebhook(rawBody []byte, signature string) (Event, error)
}

// Config selects and configures the gateway.
type Config struct {
	Provider string
	Stripe   StripeConfig
	Razorpay RazorpayConfig
	GatewayX GatewayXConfig
}

// NewGateway builds the configured gateway. It returns nil when no provider
// is configured.
func NewGateway(cfg Config) (Gateway, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "stripe":
		return NewStripe(cfg.Stripe), nil
	case "razorpay":
		return NewRazorpay(cfg.Razorpay), nil
	case "gatewayx", "uropay":
		return NewGatewayX(cfg.GatewayX), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}

// APIError is a non-success response from a gateway API.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

func doRequest(client *http.Client, req *http.Request, provider string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Provider: provider, Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}

func hmacHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// validHexSignature compares signature against the HMAC-SHA256 of payload
// in constant time.
func validHexSignature(secret string, payload []byte, signature string) bool {
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(want) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), want)
}

func bodyDigest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: gatewayTimeout}
}
