package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"foodlink/pkg/types"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = types.InputError("request body is required")

type messageResponse struct {
	Message string `json:"message"`
}

// statusFor maps an error kind to its HTTP status. Unknown errors are store
// or provider failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrInvalidInput),
		errors.Is(err, types.ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, messageResponse{Message: message})
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		s.writeMessage(w, status, "internal server error")
		return
	}

	s.writeMessage(w, status, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("malformed JSON body: %v: %w", err, types.ErrInvalidInput)
	}
	return nil
}
