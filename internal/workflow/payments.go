package workflow

import (
	"context"
	"errors"
	"math"
	"strings"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// Stripe rejects single charges above this amount.
const maxAmountCents = 99_999_999

var errPaymentsDisabled = errors.New("payment provider is not configured")

type PaymentManager struct {
	provider     PaymentProvider
	transactions TransactionStore
	currency     string
	logger       logrus.FieldLogger
}

func NewPaymentManager(provider PaymentProvider, transactions TransactionStore, currency string, logger logrus.FieldLogger) *PaymentManager {
	return &PaymentManager{
		provider:     provider,
		transactions: transactions,
		currency:     strings.ToLower(currency),
		logger:       logger,
	}
}

func dollarsToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func validAmount(cents int64) error {
	if cents <= 0 {
		return types.InputError("amount must be positive")
	}
	if cents > maxAmountCents {
		return types.InputError("amount is too large")
	}
	return nil
}

type PaymentIntentInput struct {
	Amount  float64 `json:"amount"`
	Purpose string  `json:"purpose"`
}

// CreateIntent starts a card payment of Amount dollars and returns the client secret holder.
// A manager built without a provider rejects every intent.
func (m *PaymentManager) CreateIntent(ctx context.Context, caller types.Identity, in PaymentIntentInput) (*types.PaymentIntent, error) {
	if m.provider == nil {
		return nil, errPaymentsDisabled
	}

	cents := dollarsToCents(in.Amount)
	if err := validAmount(cents); err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"email":   utils.NormalizeEmail(caller.Email),
		"purpose": strings.TrimSpace(in.Purpose),
	}

	intent, err := m.provider.CreatePaymentIntent(ctx, cents, m.currency, metadata)
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"payment_intent_id": intent.ID,
		"amount_cents":      cents,
	}).Info("payment intent created")

	return intent, nil
}

type TransactionInput struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Purpose       string  `json:"purpose"`
}

// Record stores a completed payment reported by the client.
func (m *PaymentManager) Record(ctx context.Context, caller types.Identity, in TransactionInput) (*types.Transaction, error) {
	txn := &types.Transaction{
		Email:         utils.NormalizeEmail(caller.Email),
		TransactionID: strings.TrimSpace(in.TransactionID),
		AmountCents:   dollarsToCents(in.Amount),
		Currency:      m.currency,
		Purpose:       strings.TrimSpace(in.Purpose),
	}

	if txn.TransactionID == "" {
		return nil, types.InputError("transactionId is required")
	}
	if err := validAmount(txn.AmountCents); err != nil {
		return nil, err
	}

	if err := m.transactions.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}
