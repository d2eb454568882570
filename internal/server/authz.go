package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"foodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// Access is one way a route may be reached. A route lists the variants it
// accepts and the caller needs to satisfy any one of them.
type Access uint8

const (
	AccessPublic Access = iota
	AccessAuthenticated
	AccessUser
	AccessCharity
	AccessRestaurant
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessAuthenticated:
		return "authenticated"
	case AccessUser:
		return string(types.RoleUser)
	case AccessCharity:
		return string(types.RoleCharity)
	case AccessRestaurant:
		return string(types.RoleRestaurant)
	case AccessAdmin:
		return string(types.RoleAdmin)
	default:
		return fmt.Sprintf("access(%d)", uint8(a))
	}
}

// role is the stored role a variant checks for; ok is false for public and authenticated.
func (a Access) role() (types.Role, bool) {
	switch a {
	case AccessUser:
		return types.RoleUser, true
	case AccessCharity:
		return types.RoleCharity, true
	case AccessRestaurant:
		return types.RoleRestaurant, true
	case AccessAdmin:
		return types.RoleAdmin, true
	}
	return "", false
}

// Context key types to avoid collisions
type contextKey string

const (
	contextKeyIdentity contextKey = "identity"
	contextKeyCaller   contextKey = "caller"
)

// authorize is the single interceptor every route goes through. Public routes
// pass untouched. Anything else needs a verified credential; role variants
// additionally load the caller's record and check its stored role.
func (s *Service) authorize(access []Access, next http.Handler) http.Handler {
	public := false
	anyAuthenticated := false
	roles := make([]types.Role, 0, len(access))
	for _, a := range access {
		switch a {
		case AccessPublic:
			public = true
		case AccessAuthenticated:
			anyAuthenticated = true
		default:
			if role, ok := a.role(); ok {
				roles = append(roles, role)
			}
		}
	}

	if public {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identity, err := s.authenticate(r)
		if err != nil {
			s.logger.WithError(err).Debug("request not authenticated")
			s.writeError(w, r, err)
			return
		}
		ctx = context.WithValue(ctx, contextKeyIdentity, identity)

		if !anyAuthenticated {
			caller, err := s.guard.RequireRole(ctx, identity, roles...)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			ctx = context.WithValue(ctx, contextKeyCaller, caller)
		}

		s.logger.WithFields(logrus.Fields{
			"subject": identity.Subject,
			"email":   identity.Email,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate reads the bearer token from the Authorization header, falling
// back to the encrypted session cookie.
func (s *Service) authenticate(r *http.Request) (types.Identity, error) {
	token, err := s.credential(r)
	if err != nil {
		return types.Identity{}, err
	}

	return s.verifier.Verify(r.Context(), token)
}

func (s *Service) credential(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("malformed authorization header: %w", types.ErrUnauthenticated)
		}
		return strings.TrimSpace(token), nil
	}

	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil {
		return "", fmt.Errorf("no credential supplied: %w", types.ErrUnauthenticated)
	}

	var token string
	if err := s.cookie.Decode(s.config.CookieName, cookie.Value, &token); err != nil {
		return "", fmt.Errorf("session cookie rejected: %w", types.ErrUnauthenticated)
	}

	return token, nil
}

func identityFromContext(ctx context.Context) types.Identity {
	identity, _ := ctx.Value(contextKeyIdentity).(types.Identity)
	return identity
}

// callerFromContext returns the record loaded by a role check, or loads it for
// routes that only required a verified credential.
func (s *Service) callerFromContext(ctx context.Context) (*types.User, error) {
	if caller, ok := ctx.Value(contextKeyCaller).(*types.User); ok {
		return caller, nil
	}
	return s.guard.RequireRole(ctx, identityFromContext(ctx))
}
