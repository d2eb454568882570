package server

import (
	"errors"
	"net/http"

	"foodlink/internal/workflow"
	"foodlink/pkg/types"

	"github.com/alexedwards/flow"
)

const defaultRestaurantDecision = types.UpgradeStatusApproved

type upgradeStatusBody struct {
	Status types.UpgradeStatus `json:"status"`
}

type upgradeStatusResponse struct {
	HasRequest bool                  `json:"hasRequest"`
	Status     types.UpgradeStatus   `json:"status,omitempty"`
	Request    *types.UpgradeRequest `json:"request,omitempty"`
}

// upgradeHandlers binds one upgrade track's manager to its HTTP handlers. Both
// tracks share the same handlers and differ only in the manager they hold.
type upgradeHandlers struct {
	s       *Service
	manager *workflow.UpgradeManager
}

func (s *Service) upgradeHandlers(manager *workflow.UpgradeManager) upgradeHandlers {
	return upgradeHandlers{s: s, manager: manager}
}

func (h upgradeHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in workflow.UpgradeInput
	if err := decodeJSON(r, &in); err != nil {
		h.s.writeError(w, r, err)
		return
	}

	request, err := h.manager.Submit(ctx, identityFromContext(ctx), in)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, http.StatusCreated, request)
}

func (h upgradeHandlers) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := h.manager.Outstanding(ctx, identityFromContext(ctx).Email)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	resp := upgradeStatusResponse{}
	if request != nil {
		resp.HasRequest = true
		resp.Status = request.Status
		resp.Request = request
	}

	h.s.writeJSON(w, http.StatusOK, resp)
}

func (h upgradeHandlers) listAll(w http.ResponseWriter, r *http.Request) {
	requests, err := h.manager.ListAll(r.Context())
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, http.StatusOK, requests)
}

func (h upgradeHandlers) listMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requests, err := h.manager.ListMine(ctx, identityFromContext(ctx).Email)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, http.StatusOK, requests)
}

func (h upgradeHandlers) byOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, err := h.manager.ByOwner(ctx, flow.Param(ctx, "email"))
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeJSON(w, http.StatusOK, request)
}

// decide returns the admin approve/reject handler. When fallback is set an
// empty body decides with it.
func (h upgradeHandlers) decide(fallback types.UpgradeStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body upgradeStatusBody
		if err := decodeJSON(r, &body); err != nil && (fallback == "" || !errors.Is(err, errEmptyBody)) {
			h.s.writeError(w, r, err)
			return
		}
		if body.Status == "" {
			body.Status = fallback
		}

		request, err := h.manager.Decide(ctx, flow.Param(ctx, "id"), body.Status)
		if err != nil {
			h.s.writeError(w, r, err)
			return
		}

		h.s.writeJSON(w, http.StatusOK, request)
	}
}

func (h upgradeHandlers) withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.manager.Withdraw(ctx, identityFromContext(ctx), flow.Param(ctx, "id")); err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeMessage(w, http.StatusOK, "request withdrawn")
}

func (h upgradeHandlers) discard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.manager.Discard(ctx, flow.Param(ctx, "id")); err != nil {
		h.s.writeError(w, r, err)
		return
	}

	h.s.writeMessage(w, http.StatusOK, "request discarded")
}
