// Package workflow holds the lifecycle managers for users, donations, pickup
// requests, role-upgrade requests and payments. Managers keep no state between
// calls: every operation re-reads the entity from the store before mutating it.
package workflow

import (
	"context"
	"io"

	"foodlink/pkg/types"
)

type UserStore interface {
	UserByID(ctx context.Context, userID string) (*types.User, error)
	UserByEmail(ctx context.Context, email string) (*types.User, error)
	Users(ctx context.Context) ([]*types.User, error)
	UsersByRole(ctx context.Context, role types.Role) ([]*types.User, error)
	SearchUsers(ctx context.Context, query string) ([]*types.User, error)
	CreateUser(ctx context.Context, user *types.User) error
	SetRoleByID(ctx context.Context, userID string, role types.Role) error
	SetRoleByEmail(ctx context.Context, email string, role types.Role) error
}

type DonationStore interface {
	Donation(ctx context.Context, donationID string) (*types.Donation, error)
	Donations(ctx context.Context) ([]*types.Donation, error)
	DonationsByRestaurant(ctx context.Context, email string) ([]*types.Donation, error)
	CreateDonation(ctx context.Context, donation *types.Donation) error
	UpdateDonation(ctx context.Context, donationID string, patch types.DonationPatch) error
	// SetDonationStatus moves the donation from one status to another and
	// fails with ErrInvalidTransition when it is no longer in from.
	SetDonationStatus(ctx context.Context, donationID string, from, to types.DonationStatus) error
	DeleteDonation(ctx context.Context, donationID string) error
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *types.Review) error
	ReviewsByDonation(ctx context.Context, donationID string) ([]*types.Review, error)
}

type RequestStore interface {
	Request(ctx context.Context, requestID string) (*types.Request, error)
	RequestsByCharity(ctx context.Context, email string) ([]*types.Request, error)
	RequestsByRestaurant(ctx context.Context, email string) ([]*types.Request, error)
	CreateRequest(ctx context.Context, request *types.Request) error
	RequestsByDonation(ctx context.Context, donationID string) ([]*types.Request, error)
	SetRequestStatus(ctx context.Context, requestID string, from, to types.RequestStatus) error
	DeleteRequest(ctx context.Context, requestID string, status types.RequestStatus) error
}

type UpgradeStore interface {
	UpgradeRequest(ctx context.Context, requestID string) (*types.UpgradeRequest, error)
	UpgradeRequests(ctx context.Context, track types.UpgradeTrack) ([]*types.UpgradeRequest, error)
	UpgradeRequestsByEmail(ctx context.Context, track types.UpgradeTrack, email string) ([]*types.UpgradeRequest, error)
	OutstandingUpgradeRequest(ctx context.Context, track types.UpgradeTrack, email string) (*types.UpgradeRequest, error)
	CreateUpgradeRequest(ctx context.Context, request *types.UpgradeRequest) error
	SetUpgradeStatus(ctx context.Context, requestID string, from, to types.UpgradeStatus) error
	DeleteUpgradeRequest(ctx context.Context, requestID string) error
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *types.Transaction) error
}

// Transactor groups store calls that touch more than one entity.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// DeleteByURL removes an image previously returned by Upload. URLs it did
	// not issue are ignored.
	DeleteByURL(ctx context.Context, url string) error
}

type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*types.PaymentIntent, error)
}
