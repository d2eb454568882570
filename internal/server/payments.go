package server

import (
	"net/http"

	"foodlink/internal/workflow"
)

type paymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (s *Service) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in workflow.PaymentIntentInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	intent, err := s.payments.CreateIntent(ctx, identityFromContext(ctx), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, paymentIntentResponse{ClientSecret: intent.ClientSecret})
}

func (s *Service) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in workflow.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	txn, err := s.payments.Record(ctx, identityFromContext(ctx), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, txn)
}
