package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/garagio/garagio-backend/pkg/config"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	errLoggerRequired   = errors.New("stripe logger is required")
)

// Client wraps Stripe's API client with centralized logging, idempotency, and
// error mapping for refund operations.
type Client struct {
	api         *stripe.Client
	environment string
	logger      *logger.Logger
}

// RefundCreateParams describe a gateway refund against a payment intent.
type RefundCreateParams struct {
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        enums.Currency
	Reason          string
	IdempotencyKey  string
	Metadata        map[string]string
}

// RefundResult is the subset of the gateway response the settlement core keeps.
type RefundResult struct {
	ID     string
	Status string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)

	logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))

	return &Client{
		api:         api,
		environment: env,
		logger:      logg,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// NewIdempotencyKey returns a unique key for Stripe operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "garagio"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreateRefund issues a refund against the payment intent, carrying the
// caller's idempotency key so gateway retries never double-refund.
func (c *Client) CreateRefund(ctx context.Context, params RefundCreateParams) (*RefundResult, error) {
	if strings.TrimSpace(params.PaymentIntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	key := c.ensureIdempotencyKey("refund.create", params.IdempotencyKey)
	req := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
		Amount:        stripe.Int64(minorUnits(params.Amount)),
		Currency:      stripe.String(strings.ToLower(params.Currency.String())),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	req.SetIdempotencyKey(key)
	if params.Reason != "" {
		req.AddMetadata("reason", params.Reason)
	}
	for k, v := range params.Metadata {
		req.AddMetadata(k, v)
	}

	c.log(ctx, "request", "create_refund", map[string]any{
		"payment_intent":  params.PaymentIntentID,
		"amount":          params.Amount.String(),
		"currency":        params.Currency,
		"idempotency_key": key,
	})

	refund, err := c.api.V1Refunds.Create(ctx, req)
	if err != nil {
		c.log(ctx, "error", "create_refund", map[string]any{"error": err.Error()})
		return nil, c.mapStripeError(err, "create refund")
	}

	c.log(ctx, "response", "create_refund", map[string]any{
		"refund_id": refund.ID,
		"status":    string(refund.Status),
	})
	return &RefundResult{ID: refund.ID, Status: string(refund.Status)}, nil
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

// minorUnits converts a decimal major-unit amount into the gateway's integer
// minor units (e.g. 12.50 QAR -> 1250 dirhams).
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (c *Client) mapStripeError(err error, op string) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("stripe %s failed", op))
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodeIdempotencyKeyInUse:
		return pkgerrors.Wrap(pkgerrors.CodeIdempotency, err, fmt.Sprintf("stripe %s idempotency conflict", op))
	case stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("stripe %s already refunded", op))
	case stripeErr.Type == stripe.ErrorTypeInvalidRequest:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("stripe %s rejected", op))
	case stripeErr.Type == stripe.ErrorTypeCard:
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, fmt.Sprintf("stripe %s declined", op))
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("stripe %s failed", op))
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("stripe %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("stripe %s", phase))
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
