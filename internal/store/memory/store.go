// Package memory is an in-process Entity Store with the same contracts as the
// Postgres repositories. The workflow and server tests run against it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"foodlink/internal/utils"
	"foodlink/pkg/types"
)

type Store struct {
	mu sync.Mutex

	users        map[string]*types.User
	donations    map[string]*types.Donation
	reviews      map[string]*types.Review
	requests     map[string]*types.Request
	upgrades     map[string]*types.UpgradeRequest
	transactions map[string]*types.Transaction

	// seq orders inserts made within the same clock tick.
	seq   int
	order map[string]int

	// FailDonationStatus, when set, is returned by SetDonationStatus.
	FailDonationStatus error
}

func NewStore() *Store {
	return &Store{
		users:        map[string]*types.User{},
		donations:    map[string]*types.Donation{},
		reviews:      map[string]*types.Review{},
		requests:     map[string]*types.Request{},
		upgrades:     map[string]*types.UpgradeRequest{},
		transactions: map[string]*types.Transaction{},
		order:        map[string]int{},
	}
}

// WithinTx runs fn directly. The store serialises individual calls but has no rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) stamp(id string) time.Time {
	s.seq++
	s.order[id] = s.seq
	return time.Now()
}

func sortNewestFirst[T any](s *Store, items []T, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return s.order[id(items[i])] > s.order[id(items[j])]
	})
}

func sortOldestFirst[T any](s *Store, items []T, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return s.order[id(items[i])] < s.order[id(items[j])]
	})
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

// Users

func (s *Store) UserByID(ctx context.Context, userID string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return clone(user), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return clone(user), nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (s *Store) Users(ctx context.Context) ([]*types.User, error) {
	return s.filterUsers(func(*types.User) bool { return true }), nil
}

func (s *Store) UsersByRole(ctx context.Context, role types.Role) ([]*types.User, error) {
	return s.filterUsers(func(u *types.User) bool { return u.Role == role }), nil
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]*types.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filterUsers(func(u *types.User) bool {
		return strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(strings.ToLower(u.Name), q)
	}), nil
}

func (s *Store) filterUsers(keep func(*types.User) bool) []*types.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.User, 0)
	for _, user := range s.users {
		if keep(user) {
			out = append(out, clone(user))
		}
	}
	sortOldestFirst(s, out, func(u *types.User) string { return u.ID })
	return out
}

func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return types.ErrUserExists
		}
	}

	user.ID = utils.NanoID()
	user.CreatedAt = s.stamp(user.ID)
	s.users[user.ID] = clone(user)
	return nil
}

func (s *Store) SetRoleByID(ctx context.Context, userID string, role types.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return types.ErrUserNotFound
	}
	user.Role = role
	return nil
}

func (s *Store) SetRoleByEmail(ctx context.Context, email string, role types.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			user.Role = role
			return nil
		}
	}
	return types.ErrUserNotFound
}

// Donations

func (s *Store) Donation(ctx context.Context, donationID string) (*types.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	donation, ok := s.donations[donationID]
	if !ok {
		return nil, types.ErrDonationNotFound
	}
	return clone(donation), nil
}

func (s *Store) Donations(ctx context.Context) ([]*types.Donation, error) {
	return s.filterDonations(func(*types.Donation) bool { return true }), nil
}

func (s *Store) DonationsByRestaurant(ctx context.Context, email string) ([]*types.Donation, error) {
	return s.filterDonations(func(d *types.Donation) bool { return d.RestaurantEmail == email }), nil
}

func (s *Store) filterDonations(keep func(*types.Donation) bool) []*types.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Donation, 0)
	for _, donation := range s.donations {
		if keep(donation) {
			out = append(out, clone(donation))
		}
	}
	sortNewestFirst(s, out, func(d *types.Donation) string { return d.ID })
	return out
}

func (s *Store) CreateDonation(ctx context.Context, donation *types.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	donation.ID = utils.NanoID()
	donation.CreatedAt = s.stamp(donation.ID)
	s.donations[donation.ID] = clone(donation)
	return nil
}

func (s *Store) UpdateDonation(ctx context.Context, donationID string, patch types.DonationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	donation, ok := s.donations[donationID]
	if !ok {
		return types.ErrDonationNotFound
	}
	patch.Apply(donation)
	return nil
}

func (s *Store) SetDonationStatus(ctx context.Context, donationID string, from, to types.DonationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDonationStatus != nil {
		return s.FailDonationStatus
	}

	donation, ok := s.donations[donationID]
	if !ok {
		return types.ErrDonationNotFound
	}
	if donation.Status != from {
		return types.TransitionError("donation", donation.Status, to)
	}
	donation.Status = to
	return nil
}

func (s *Store) DeleteDonation(ctx context.Context, donationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.donations[donationID]; !ok {
		return types.ErrDonationNotFound
	}
	delete(s.donations, donationID)
	return nil
}

// Reviews

func (s *Store) CreateReview(ctx context.Context, review *types.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	review.ID = utils.NanoID()
	review.CreatedAt = s.stamp(review.ID)
	s.reviews[review.ID] = clone(review)
	return nil
}

func (s *Store) ReviewsByDonation(ctx context.Context, donationID string) ([]*types.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Review, 0)
	for _, review := range s.reviews {
		if review.DonationID == donationID {
			out = append(out, clone(review))
		}
	}
	sortOldestFirst(s, out, func(r *types.Review) string { return r.ID })
	return out, nil
}

// Requests

func (s *Store) Request(ctx context.Context, requestID string) (*types.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	return clone(request), nil
}

func (s *Store) RequestsByCharity(ctx context.Context, email string) ([]*types.Request, error) {
	return s.filterRequests(func(r *types.Request) bool { return r.CharityEmail == email }), nil
}

func (s *Store) RequestsByDonation(ctx context.Context, donationID string) ([]*types.Request, error) {
	return s.filterRequests(func(r *types.Request) bool { return r.DonationID == donationID }), nil
}

func (s *Store) RequestsByRestaurant(ctx context.Context, email string) ([]*types.Request, error) {
	return s.filterRequests(func(r *types.Request) bool { return r.RestaurantEmail == email }), nil
}

func (s *Store) filterRequests(keep func(*types.Request) bool) []*types.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Request, 0)
	for _, request := range s.requests {
		if keep(request) {
			out = append(out, clone(request))
		}
	}
	sortNewestFirst(s, out, func(r *types.Request) string { return r.ID })
	return out
}

func (s *Store) CreateRequest(ctx context.Context, request *types.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request.ID = utils.NanoID()
	request.CreatedAt = s.stamp(request.ID)
	s.requests[request.ID] = clone(request)
	return nil
}

func (s *Store) SetRequestStatus(ctx context.Context, requestID string, from, to types.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return types.ErrRequestNotFound
	}
	if request.Status != from {
		return types.TransitionError("request", request.Status, to)
	}
	request.Status = to
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, requestID string, status types.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return types.ErrRequestNotFound
	}
	if request.Status != status {
		return fmt.Errorf("request %s is %s, not %s: %w", requestID, request.Status, status, types.ErrInvalidTransition)
	}
	delete(s.requests, requestID)
	return nil
}

// Upgrade requests

func (s *Store) UpgradeRequest(ctx context.Context, requestID string) (*types.UpgradeRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.upgrades[requestID]
	if !ok {
		return nil, types.ErrUpgradeNotFound
	}
	return clone(request), nil
}

func (s *Store) UpgradeRequests(ctx context.Context, track types.UpgradeTrack) ([]*types.UpgradeRequest, error) {
	return s.filterUpgrades(func(r *types.UpgradeRequest) bool { return r.Track == track }), nil
}

func (s *Store) UpgradeRequestsByEmail(ctx context.Context, track types.UpgradeTrack, email string) ([]*types.UpgradeRequest, error) {
	return s.filterUpgrades(func(r *types.UpgradeRequest) bool {
		return r.Track == track && r.Email == email
	}), nil
}

func (s *Store) OutstandingUpgradeRequest(ctx context.Context, track types.UpgradeTrack, email string) (*types.UpgradeRequest, error) {
	matches := s.filterUpgrades(func(r *types.UpgradeRequest) bool {
		return r.Track == track && r.Email == email && r.Status.Outstanding()
	})
	if len(matches) == 0 {
		return nil, types.ErrUpgradeNotFound
	}
	return matches[0], nil
}

func (s *Store) filterUpgrades(keep func(*types.UpgradeRequest) bool) []*types.UpgradeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.UpgradeRequest, 0)
	for _, request := range s.upgrades {
		if keep(request) {
			out = append(out, clone(request))
		}
	}
	sortNewestFirst(s, out, func(r *types.UpgradeRequest) string { return r.ID })
	return out
}

// outstandingExists plays the role of the partial unique index. Callers hold mu.
func (s *Store) outstandingExists(track types.UpgradeTrack, email, exceptID string) bool {
	for id, existing := range s.upgrades {
		if id != exceptID && existing.Track == track && existing.Email == email && existing.Status.Outstanding() {
			return true
		}
	}
	return false
}

func (s *Store) CreateUpgradeRequest(ctx context.Context, request *types.UpgradeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.Status.Outstanding() && s.outstandingExists(request.Track, request.Email, "") {
		return types.ErrUpgradeOutstanding
	}

	request.ID = utils.NanoID()
	request.CreatedAt = s.stamp(request.ID)
	s.upgrades[request.ID] = clone(request)
	return nil
}

func (s *Store) SetUpgradeStatus(ctx context.Context, requestID string, from, to types.UpgradeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.upgrades[requestID]
	if !ok {
		return types.ErrUpgradeNotFound
	}
	if request.Status != from {
		return types.TransitionError("upgrade request", request.Status, to)
	}
	if to.Outstanding() && s.outstandingExists(request.Track, request.Email, requestID) {
		return types.ErrUpgradeOutstanding
	}
	request.Status = to
	return nil
}

func (s *Store) DeleteUpgradeRequest(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.upgrades[requestID]; !ok {
		return types.ErrUpgradeNotFound
	}
	delete(s.upgrades, requestID)
	return nil
}

// Transactions

func (s *Store) CreateTransaction(ctx context.Context, txn *types.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn.ID = utils.NanoID()
	txn.CreatedAt = s.stamp(txn.ID)
	s.transactions[txn.ID] = clone(txn)
	return nil
}

func (s *Store) Transactions() []*types.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Transaction, 0, len(s.transactions))
	for _, txn := range s.transactions {
		out = append(out, clone(txn))
	}
	sortOldestFirst(s, out, func(t *types.Transaction) string { return t.ID })
	return out
}
