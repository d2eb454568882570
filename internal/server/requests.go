package server

import (
	"net/http"

	"foodlink/internal/workflow"
	"foodlink/pkg/types"

	"github.com/alexedwards/flow"
)

type requestStatusBody struct {
	Status types.RequestStatus `json:"status"`
}

func (s *Service) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in workflow.RequestInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.requests.Create(ctx, caller, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, request)
}

func (s *Service) handleListMyRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requests, err := s.requests.ListMine(ctx, caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

func (s *Service) handleListRestaurantRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requests, err := s.requests.ListForRestaurant(ctx, caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

func (s *Service) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.requests.Get(ctx, caller, flow.Param(ctx, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.requests.Cancel(ctx, caller, flow.Param(ctx, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeMessage(w, http.StatusOK, "request cancelled")
}

func (s *Service) handleSetRequestStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body requestStatusBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.requests.SetStatus(ctx, caller, flow.Param(ctx, "id"), body.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleConfirmPickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.requests.ConfirmPickup(ctx, caller, flow.Param(ctx, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}
