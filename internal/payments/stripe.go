package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"taxibackend/internal/config"
	"taxibackend/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Webhook event types the reconciliation handler dispatches on.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventCheckoutExpired      = "checkout.session.expired"
	EventPaymentIntentFailed  = "payment_intent.payment_failed"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Event is the provider-neutral view of a verified webhook event. Only the
// fields the reconciliation handler reads are populated.
type Event struct {
	ID              string
	Type            string
	SessionID       string
	CustomerEmail   string
	Metadata        map[string]string
	PaymentIntentID string
	InvoiceID       string
}

type CheckoutParams struct {
	CustomerEmail string
	ProductName   string
	Description   string
	AmountMinor   int64
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (CheckoutSession, error)
	ParseEvent(payload []byte, signature string) (Event, error)
}

type StripeGateway struct {
	secretKey     string
	webhookSecret string
	currency      string
	successURL    string
	cancelURL     string
	backend       stripe.Backend
}

func NewStripeGateway(env config.Env) *StripeGateway {
	return &StripeGateway{
		secretKey:     env.StripeSecretKey,
		webhookSecret: env.StripeWebhookSecret,
		currency:      env.StripeCurrency,
		successURL:    env.StripeSuccessURL,
		cancelURL:     env.StripeCancelURL,
		backend:       stripe.GetBackend(stripe.APIBackend),
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.ProductName),
						Description: stripe.String(p.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(p.CustomerEmail),
		SuccessURL:    stripe.String(g.successURL),
		CancelURL:     stripe.String(g.cancelURL),
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	client := session.Client{B: g.backend, Key: g.secretKey}
	s, err := client.New(params)
	if err != nil {
		return CheckoutSession{}, domain.ExternalServiceError{Service: "payment gateway", Err: err}
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseEvent verifies the signature header against the raw body and decodes
// the event object. Signature failures and malformed bodies are reported
// separately so callers can answer with distinct messages.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if isSignatureError(err) {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out.SessionID = cs.ID
		out.CustomerEmail = cs.CustomerEmail
		if out.CustomerEmail == "" && cs.CustomerDetails != nil {
			out.CustomerEmail = cs.CustomerDetails.Email
		}
		out.Metadata = cs.Metadata
		if cs.PaymentIntent != nil {
			out.PaymentIntentID = cs.PaymentIntent.ID
		}
	case EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out.PaymentIntentID = pi.ID
	case EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out.InvoiceID = inv.ID
		out.CustomerEmail = inv.CustomerEmail
	}
	return out, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
