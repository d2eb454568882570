package payment

import (
	"context"
	"errors"
	"fmt"

	"foodlink/pkg/types"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
)

type Stripe struct {
	client *stripe.Client
}

func NewStripe(secretKey string) (*Stripe, error) {
	if secretKey == "" {
		return nil, errors.New("set STRIPE_SECRET_KEY")
	}
	return &Stripe{client: stripe.NewClient(secretKey)}, nil
}

// CreatePaymentIntent opens a card PaymentIntent under a fresh idempotency key.
func (s *Stripe) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*types.PaymentIntent, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Metadata:           metadata,
	}
	params.SetIdempotencyKey(uuid.NewString())

	intent, err := s.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
			return nil, types.InputError("payment rejected: %s", stripeErr.Msg)
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &types.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}
