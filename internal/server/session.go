package server

import (
	"net/http"
	"time"
)

// handleCreateSession verifies the bearer token and stores it in an encrypted
// cookie so browser clients can drop the Authorization header.
func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	token, err := s.credential(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	identity, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	encoded, err := s.cookie.Encode(s.config.CookieName, token)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode session cookie")
		s.writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   s.config.SessionMaxAgeSec,
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.WithField("email", identity.Email).Info("session created")

	s.writeJSON(w, http.StatusCreated, map[string]string{"email": identity.Email})
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
