package server

import (
	"net/http"

	"foodlink/internal/workflow"
	"foodlink/pkg/types"

	"github.com/alexedwards/flow"
)

const maxImageBytes = 10 << 20

func (s *Service) handleListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.donations.ListPublic(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donations)
}

func (s *Service) handleListRestaurantDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donations, err := s.donations.ListByRestaurant(ctx, flow.Param(ctx, "email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donations)
}

func (s *Service) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donation, err := s.donations.GetWithReviews(ctx, flow.Param(ctx, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donation)
}

func (s *Service) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in workflow.DonationInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	donation, err := s.donations.Create(ctx, caller, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, donation)
}

func (s *Service) handleUploadDonationImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		s.writeError(w, r, types.InputError("image upload must be multipart/form-data under 10MB"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, r, types.InputError("image field is required"))
		return
	}
	defer file.Close()

	url, err := s.donations.UploadImage(ctx, caller, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"imageUrl": url})
}

func (s *Service) handleUpdateDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var patch types.DonationPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	donation, err := s.donations.Update(ctx, caller, flow.Param(ctx, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, donation)
}

func (s *Service) handleDeleteDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := s.callerFromContext(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.donations.Delete(ctx, caller, flow.Param(ctx, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeMessage(w, http.StatusOK, "donation deleted")
}

func (s *Service) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var in workflow.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	review, err := s.donations.AddReview(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, review)
}
