package razorpay

import (
	"context"
	"errors"
	"strings"

	razorpaygo "github.com/razorpay/razorpay-go"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	pkgerrors "github.com/rohanjoshi-dev/bitekart-backend/pkg/errors"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
)

const currencyINR = "INR"

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errLoggerRequired        = errors.New("razorpay logger is required")
)

// OrderIntent is the subset of a gateway order the API returns to clients so
// they can open the payment sheet.
type OrderIntent struct {
	GatewayOrderID string
	AmountPaise    int64
	Currency       string
	KeyID          string
}

// Client exposes Razorpay primitives with centralized auth, logging, and
// error mapping.
type Client struct {
	sdk           *razorpaygo.Client
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	sdk := razorpaygo.NewClient(keyID, keySecret)
	if cfg.Timeout > 0 {
		sdk.SetTimeout(int16(cfg.Timeout.Seconds()))
	}

	c := &Client{
		sdk:           sdk,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		logger:        logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key identifier clients embed in the payment sheet.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// CreateOrder registers an order with the gateway and returns the intent the
// client needs to collect payment. Amount is integer paise.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]interface{}) (*OrderIntent, error) {
	if amountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currencyINR,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		c.logger.Error(ctx, "razorpay order create failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "creating gateway order")
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "gateway order response missing id")
	}

	return &OrderIntent{
		GatewayOrderID: id,
		AmountPaise:    amountPaise,
		Currency:       currencyINR,
		KeyID:          c.keyID,
	}, nil
}

// RefundPayment issues a full or partial refund against a captured payment
// and returns the gateway refund id.
func (c *Client) RefundPayment(ctx context.Context, paymentID string, amountPaise int64, notes map[string]interface{}) (string, error) {
	if strings.TrimSpace(paymentID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if amountPaise <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	data := map[string]interface{}{}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := c.sdk.Payment.Refund(paymentID, int(amountPaise), data, nil)
	if err != nil {
		c.logger.Error(ctx, "razorpay refund failed", err)
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "refunding gateway payment")
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", pkgerrors.New(pkgerrors.CodeUpstream, "gateway refund response missing id")
	}
	return id, nil
}
