package server

import "net/http"

type route struct {
	method  string
	pattern string
	access  []Access
	handler http.Handler
}

func handle(method, pattern string, h http.HandlerFunc, access ...Access) route {
	return route{method: method, pattern: pattern, access: access, handler: h}
}

// routes is the capability table. flow matches in declaration order, so fixed
// segments come before the parameters that would shadow them.
func (s *Service) routes() []route {
	charity := s.upgradeHandlers(s.charityUpgrades)
	restaurant := s.upgradeHandlers(s.restaurantUpgrades)

	return []route{
		handle(http.MethodGet, "/healthz", s.handleHealthz, AccessPublic),
		handle(http.MethodPost, "/sessions", s.handleCreateSession, AccessPublic),
		handle(http.MethodDelete, "/sessions", s.handleDeleteSession, AccessPublic),

		// users
		handle(http.MethodPost, "/users", s.handleRegisterUser, AccessPublic),
		handle(http.MethodGet, "/users", s.handleListUsers, AccessAdmin, AccessCharity, AccessRestaurant),
		handle(http.MethodGet, "/users/charities", s.handleListCharities, AccessAuthenticated),
		handle(http.MethodGet, "/users/search", s.handleSearchUsers, AccessAdmin),
		handle(http.MethodGet, "/users/:email", s.handleGetUser, AccessAuthenticated),
		handle(http.MethodGet, "/users/:id/role", s.handleGetUserByID, AccessPublic),
		handle(http.MethodPatch, "/users/:id/role", s.handleSetUserRole, AccessAdmin),

		// payments
		handle(http.MethodPost, "/create-payment-intent", s.handleCreatePaymentIntent, AccessAuthenticated),
		handle(http.MethodPost, "/transactions", s.handleRecordTransaction, AccessAuthenticated),

		// charity upgrade track
		handle(http.MethodGet, "/role-requests/status", charity.status, AccessAuthenticated),
		handle(http.MethodGet, "/charity-requests/status", charity.status, AccessAuthenticated),
		handle(http.MethodPost, "/role-requests", charity.submit, AccessAuthenticated),
		handle(http.MethodPost, "/charity-requests", charity.submit, AccessAuthenticated),
		handle(http.MethodGet, "/role-requests", charity.listAll, AccessAdmin),
		handle(http.MethodGet, "/role-requests/my-requests", charity.listMine, AccessCharity),
		handle(http.MethodDelete, "/role-requests/:id", charity.withdraw, AccessAuthenticated),
		handle(http.MethodPatch, "/role-requests/:id", charity.decide(""), AccessAdmin),

		// restaurant upgrade track
		handle(http.MethodPost, "/restaurant-requests", restaurant.submit, AccessAuthenticated),
		handle(http.MethodGet, "/restaurant-requests", restaurant.listAll, AccessAdmin),
		handle(http.MethodGet, "/restaurant-requests/status", restaurant.status, AccessAuthenticated),
		handle(http.MethodGet, "/restaurant-requests/owner/:email", restaurant.byOwner, AccessAuthenticated),
		handle(http.MethodPatch, "/restaurant-requests/:id", restaurant.decide(defaultRestaurantDecision), AccessAdmin),
		handle(http.MethodDelete, "/restaurant-requests/:id", restaurant.discard, AccessAdmin),

		// donations
		handle(http.MethodGet, "/donations", s.handleListDonations, AccessPublic),
		handle(http.MethodPost, "/donations", s.handleCreateDonation, AccessRestaurant),
		handle(http.MethodPost, "/donations/images", s.handleUploadDonationImage, AccessRestaurant),
		handle(http.MethodGet, "/donations/restaurant/:email", s.handleListRestaurantDonations, AccessAuthenticated),
		handle(http.MethodGet, "/donations/:id", s.handleGetDonation, AccessPublic),
		handle(http.MethodPut, "/donations/:id", s.handleUpdateDonation, AccessRestaurant),
		handle(http.MethodDelete, "/donations/:id", s.handleDeleteDonation, AccessRestaurant),
		handle(http.MethodPost, "/reviews", s.handleCreateReview, AccessPublic),

		// pickup requests
		handle(http.MethodPost, "/requests", s.handleCreateRequest, AccessCharity),
		handle(http.MethodGet, "/requests", s.handleListMyRequests, AccessCharity),
		handle(http.MethodGet, "/requests/:id", s.handleGetRequest, AccessAuthenticated),
		handle(http.MethodDelete, "/requests/:id", s.handleCancelRequest, AccessCharity),
		handle(http.MethodPatch, "/requests/:id", s.handleSetRequestStatus, AccessRestaurant),
		handle(http.MethodPatch, "/requests/:id/pickup", s.handleConfirmPickup, AccessCharity),
		handle(http.MethodGet, "/restaurant/requests", s.handleListRestaurantRequests, AccessRestaurant),
	}
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
