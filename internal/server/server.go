package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"foodlink/internal/auth"
	"foodlink/internal/workflow"
	"foodlink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Service struct {
	logger logrus.FieldLogger
	config *types.Config

	verifier auth.Verifier
	guard    *workflow.Guard
	cookie   *securecookie.SecureCookie

	users              *workflow.UserManager
	donations          *workflow.DonationManager
	requests           *workflow.RequestManager
	charityUpgrades    *workflow.UpgradeManager
	restaurantUpgrades *workflow.UpgradeManager
	payments           *workflow.PaymentManager

	server *http.Server
}

func New(
	config *types.Config,
	logger logrus.FieldLogger,
	verifier auth.Verifier,
	guard *workflow.Guard,
	users *workflow.UserManager,
	donations *workflow.DonationManager,
	requests *workflow.RequestManager,
	charityUpgrades *workflow.UpgradeManager,
	restaurantUpgrades *workflow.UpgradeManager,
	payments *workflow.PaymentManager,
) (*Service, error) {
	mux := flow.New()

	cookie, err := newSecureCookie(config, logger)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:   logger,
		config:   config,
		verifier: verifier,
		guard:    guard,
		cookie:   cookie,

		users:              users,
		donations:          donations,
		requests:           requests,
		charityUpgrades:    charityUpgrades,
		restaurantUpgrades: restaurantUpgrades,
		payments:           payments,
	}

	s.buildRouter(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.ServerPort),
		Handler:           s.StripTrailingSlash(s.LoggingMiddleware(corsHandler.Handler(mux))),
		ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func newSecureCookie(config *types.Config, logger logrus.FieldLogger) (*securecookie.SecureCookie, error) {
	if config.CookieHashKey == "" {
		logger.Warn("COOKIE_HASH_KEY not set, session cookies will not survive a restart")
		return securecookie.New(securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)), nil
	}

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_HASH_KEY: %w", err)
	}

	var blockKey []byte
	if config.CookieBlockKey != "" {
		blockKey, err = base64.StdEncoding.DecodeString(config.CookieBlockKey)
		if err != nil {
			return nil, fmt.Errorf("decode COOKIE_BLOCK_KEY: %w", err)
		}
	}

	cookie := securecookie.New(hashKey, blockKey)
	cookie.MaxAge(config.SessionMaxAgeSec)
	return cookie, nil
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	for _, rt := range s.routes() {
		r.Handle(rt.pattern, s.authorize(rt.access, rt.handler), rt.method)
	}
}
