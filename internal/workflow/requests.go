package workflow

import (
	"context"
	"fmt"
	"strings"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// requestTransitions lists the legal moves of a pickup request.
var requestTransitions = map[types.RequestStatus][]types.RequestStatus{
	types.RequestStatusPending:  {types.RequestStatusAccepted, types.RequestStatusRejected},
	types.RequestStatusAccepted: {types.RequestStatusPickedUp},
}

func canTransition(from, to types.RequestStatus) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type RequestManager struct {
	requests  RequestStore
	donations DonationStore
	tx        Transactor
	logger    logrus.FieldLogger
}

func NewRequestManager(requests RequestStore, donations DonationStore, tx Transactor, logger logrus.FieldLogger) *RequestManager {
	return &RequestManager{
		requests:  requests,
		donations: donations,
		tx:        tx,
		logger:    logger,
	}
}

type RequestInput struct {
	DonationID  string `json:"donationId"`
	Description string `json:"description"`
	PickupTime  string `json:"pickupTime"`
}

// Create files a charity's claim against a Pending donation. The charity is
// the caller and the restaurant is the donation's owner, whatever the client sent.
func (m *RequestManager) Create(ctx context.Context, caller *types.User, in RequestInput) (*types.Request, error) {
	donationID := strings.TrimSpace(in.DonationID)
	if donationID == "" {
		return nil, types.InputError("donationId is required")
	}

	donation, err := m.donations.Donation(ctx, donationID)
	if err != nil {
		return nil, err
	}

	if donation.Status != types.DonationStatusPending {
		return nil, fmt.Errorf("donation %s is %s: %w", donationID, donation.Status, types.ErrInvalidTransition)
	}

	request := &types.Request{
		DonationID:      donation.ID,
		DonationTitle:   donation.Title,
		CharityName:     caller.Name,
		CharityEmail:    caller.Email,
		RestaurantEmail: donation.RestaurantEmail,
		Description:     utils.TrimmedPtr(in.Description),
		PickupTime:      utils.TrimmedPtr(in.PickupTime),
		Status:          types.RequestStatusPending,
	}

	if err := m.requests.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"request_id":    request.ID,
		"donation_id":   request.DonationID,
		"charity_email": request.CharityEmail,
	}).Info("pickup request created")

	return request, nil
}

// Get is visible to the requesting charity, the donation's restaurant and admins.
func (m *RequestManager) Get(ctx context.Context, caller *types.User, requestID string) (*types.Request, error) {
	request, err := m.requests.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if caller.Role != types.RoleAdmin && caller.Email != request.CharityEmail && caller.Email != request.RestaurantEmail {
		return nil, fmt.Errorf("request %s is not visible to %s: %w", requestID, caller.Email, types.ErrForbidden)
	}

	return request, nil
}

// ListMine returns the caller's requests, newest first.
func (m *RequestManager) ListMine(ctx context.Context, caller *types.User) ([]*types.Request, error) {
	return m.requests.RequestsByCharity(ctx, caller.Email)
}

func (m *RequestManager) ListForRestaurant(ctx context.Context, caller *types.User) ([]*types.Request, error) {
	return m.requests.RequestsByRestaurant(ctx, caller.Email)
}

// Cancel deletes a Pending request. Only the charity that filed it may cancel.
func (m *RequestManager) Cancel(ctx context.Context, caller *types.User, requestID string) error {
	request, err := m.requests.Request(ctx, requestID)
	if err != nil {
		return err
	}

	if request.CharityEmail != caller.Email {
		return fmt.Errorf("request %s was filed by another charity: %w", requestID, types.ErrForbidden)
	}

	if request.Status != types.RequestStatusPending {
		return fmt.Errorf("only pending requests can be cancelled, request is %s: %w", request.Status, types.ErrInvalidTransition)
	}

	if err := m.requests.DeleteRequest(ctx, requestID, types.RequestStatusPending); err != nil {
		return err
	}

	m.logger.WithField("request_id", requestID).Info("pickup request cancelled")

	return nil
}

// SetStatus is the restaurant's accept/reject decision on a Pending request
// against one of its own donations. Only a donation that is still Pending can
// have a request accepted.
func (m *RequestManager) SetStatus(ctx context.Context, caller *types.User, requestID string, status types.RequestStatus) (*types.Request, error) {
	if status != types.RequestStatusAccepted && status != types.RequestStatusRejected {
		return nil, types.InputError("status must be %q or %q", types.RequestStatusAccepted, types.RequestStatusRejected)
	}

	var decided *types.Request

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := m.requests.Request(ctx, requestID)
		if err != nil {
			return err
		}

		if request.RestaurantEmail != caller.Email {
			return fmt.Errorf("request %s targets another restaurant: %w", requestID, types.ErrForbidden)
		}

		if !canTransition(request.Status, status) {
			return types.TransitionError("request", request.Status, status)
		}

		if status == types.RequestStatusAccepted {
			if err := m.requirePendingDonation(ctx, request.DonationID); err != nil {
				return err
			}
		}

		if err := m.requests.SetRequestStatus(ctx, requestID, request.Status, status); err != nil {
			return err
		}

		request.Status = status
		decided = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{"request_id": requestID, "status": status}).Info("pickup request decided")

	return decided, nil
}

func (m *RequestManager) requirePendingDonation(ctx context.Context, donationID string) error {
	donation, err := m.donations.Donation(ctx, donationID)
	if err != nil {
		return err
	}

	if donation.Status != types.DonationStatusPending {
		return fmt.Errorf("donation %s is already %s: %w", donationID, donation.Status, types.ErrInvalidTransition)
	}

	return nil
}

// ConfirmPickup marks an Accepted request and its donation as Picked Up, the
// donation first, inside one transaction, and rejects the donation's other
// Pending requests. A donation already collected through another request
// cannot be picked up again. Confirming a request that is already Picked Up
// re-applies the donation update, so an interrupted cascade can be repaired by
// calling it again.
func (m *RequestManager) ConfirmPickup(ctx context.Context, caller *types.User, requestID string) (*types.Request, error) {
	var confirmed *types.Request

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := m.requests.Request(ctx, requestID)
		if err != nil {
			return err
		}

		if request.CharityEmail != caller.Email {
			return fmt.Errorf("request %s was filed by another charity: %w", requestID, types.ErrForbidden)
		}

		alreadyPickedUp := request.Status == types.RequestStatusPickedUp
		if !alreadyPickedUp && !canTransition(request.Status, types.RequestStatusPickedUp) {
			return types.TransitionError("request", request.Status, types.RequestStatusPickedUp)
		}

		donation, err := m.donations.Donation(ctx, request.DonationID)
		if err != nil {
			return err
		}

		switch {
		case donation.Status == types.DonationStatusPending:
			err := m.donations.SetDonationStatus(ctx, donation.ID, types.DonationStatusPending, types.DonationStatusPickedUp)
			if err != nil {
				return fmt.Errorf("failed to mark donation %s picked up: %w", donation.ID, err)
			}
		case !alreadyPickedUp:
			return fmt.Errorf("donation %s was already picked up: %w", donation.ID, types.ErrInvalidTransition)
		}

		if alreadyPickedUp {
			confirmed = request
			return nil
		}

		if err := m.requests.SetRequestStatus(ctx, requestID, request.Status, types.RequestStatusPickedUp); err != nil {
			return err
		}
		request.Status = types.RequestStatusPickedUp

		if err := m.rejectOthers(ctx, donation.ID, requestID); err != nil {
			return err
		}

		confirmed = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"request_id":  confirmed.ID,
		"donation_id": confirmed.DonationID,
	}).Info("pickup confirmed")

	return confirmed, nil
}

// rejectOthers rejects every Pending request on the donation except keepID.
func (m *RequestManager) rejectOthers(ctx context.Context, donationID, keepID string) error {
	requests, err := m.requests.RequestsByDonation(ctx, donationID)
	if err != nil {
		return err
	}

	for _, other := range requests {
		if other.ID == keepID || other.Status != types.RequestStatusPending {
			continue
		}
		if err := m.requests.SetRequestStatus(ctx, other.ID, types.RequestStatusPending, types.RequestStatusRejected); err != nil {
			return err
		}
	}

	return nil
}
