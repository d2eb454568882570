package server

import (
	"net/http"
	"strings"

	"foodlink/internal/workflow"
	"foodlink/pkg/types"

	"github.com/alexedwards/flow"
)

type searchQuery struct {
	Query string `form:"q"`
}

type roleBody struct {
	Role types.Role `json:"role"`
}

func (s *Service) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var in workflow.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, users)
}

func (s *Service) handleListCharities(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListCharities(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, users)
}

func (s *Service) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		s.writeError(w, r, types.InputError("invalid search query"))
		return
	}

	if strings.TrimSpace(q.Query) == "" {
		s.writeError(w, r, types.InputError("q is required"))
		return
	}

	users, err := s.users.Search(r.Context(), q.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, users)
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.users.Get(ctx, identityFromContext(ctx), flow.Param(ctx, "email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.users.GetByID(ctx, flow.Param(ctx, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body roleBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.SetRole(ctx, flow.Param(ctx, "id"), body.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}
