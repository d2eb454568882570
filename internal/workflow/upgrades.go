package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

// UpgradeManager runs one role-upgrade track. Approval grants the track's role
// to the applicant.
type UpgradeManager struct {
	track    types.UpgradeTrack
	upgrades UpgradeStore
	users    UserStore
	tx       Transactor
	logger   logrus.FieldLogger
}

func NewUpgradeManager(track types.UpgradeTrack, upgrades UpgradeStore, users UserStore, tx Transactor, logger logrus.FieldLogger) *UpgradeManager {
	return &UpgradeManager{
		track:    track,
		upgrades: upgrades,
		users:    users,
		tx:       tx,
		logger:   logger.WithField("track", track),
	}
}

func (m *UpgradeManager) Track() types.UpgradeTrack {
	return m.track
}

type UpgradeInput struct {
	Name             string  `json:"name"`
	OrganizationName string  `json:"organizationName"`
	Mission          string  `json:"mission"`
	RestaurantName   string  `json:"restaurantName"`
	Address          string  `json:"address"`
	Phone            string  `json:"phone"`
	Description      string  `json:"description"`
	TransactionID    string  `json:"transactionId"`
	Amount           float64 `json:"amount"`
}

// Submit files a Pending request for the caller. A second submission while one
// is Pending or Approved fails with ErrConflict; the store's unique index makes
// that hold under concurrent submits. Admins cannot apply on either track.
func (m *UpgradeManager) Submit(ctx context.Context, caller types.Identity, in UpgradeInput) (*types.UpgradeRequest, error) {
	email := utils.NormalizeEmail(caller.Email)

	user, err := m.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("register before applying: %w", types.ErrForbidden)
		}
		return nil, err
	}

	switch user.Role {
	case m.track.Grants():
		return nil, fmt.Errorf("%s already has role %s: %w", email, user.Role, types.ErrConflict)
	case types.RoleAdmin:
		return nil, fmt.Errorf("admins cannot apply for role %s: %w", m.track.Grants(), types.ErrConflict)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = user.Name
	}

	request := &types.UpgradeRequest{
		Track:            m.track,
		Email:            email,
		Name:             name,
		OrganizationName: utils.TrimmedPtr(in.OrganizationName),
		Mission:          utils.TrimmedPtr(in.Mission),
		RestaurantName:   utils.TrimmedPtr(in.RestaurantName),
		Address:          utils.TrimmedPtr(in.Address),
		Phone:            utils.TrimmedPtr(in.Phone),
		Description:      utils.TrimmedPtr(in.Description),
		TransactionID:    utils.TrimmedPtr(in.TransactionID),
		AmountCents:      dollarsToCents(in.Amount),
		Status:           types.UpgradeStatusPending,
	}

	switch {
	case m.track == types.UpgradeTrackCharity && request.OrganizationName == nil:
		return nil, types.InputError("organizationName is required")
	case m.track == types.UpgradeTrackRestaurant && request.RestaurantName == nil:
		return nil, types.InputError("restaurantName is required")
	case request.AmountCents < 0:
		return nil, types.InputError("amount cannot be negative")
	}

	if err := m.upgrades.CreateUpgradeRequest(ctx, request); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{"upgrade_id": request.ID, "email": email}).Info("upgrade request submitted")

	return request, nil
}

// Outstanding returns the caller's Pending or Approved request, or nil.
func (m *UpgradeManager) Outstanding(ctx context.Context, email string) (*types.UpgradeRequest, error) {
	request, err := m.upgrades.OutstandingUpgradeRequest(ctx, m.track, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return request, nil
}

func (m *UpgradeManager) ListAll(ctx context.Context) ([]*types.UpgradeRequest, error) {
	return m.upgrades.UpgradeRequests(ctx, m.track)
}

func (m *UpgradeManager) ListMine(ctx context.Context, email string) ([]*types.UpgradeRequest, error) {
	return m.upgrades.UpgradeRequestsByEmail(ctx, m.track, utils.NormalizeEmail(email))
}

// ByOwner returns the owner's most recent request on this track.
func (m *UpgradeManager) ByOwner(ctx context.Context, email string) (*types.UpgradeRequest, error) {
	requests, err := m.ListMine(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, types.ErrUpgradeNotFound
	}
	return requests[0], nil
}

// load fetches a request and hides requests filed on the other track.
func (m *UpgradeManager) load(ctx context.Context, requestID string) (*types.UpgradeRequest, error) {
	request, err := m.upgrades.UpgradeRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Track != m.track {
		return nil, types.ErrUpgradeNotFound
	}
	return request, nil
}

// Decide approves or rejects a Pending request. Approval sets the applicant's
// role in the same transaction as the status change.
func (m *UpgradeManager) Decide(ctx context.Context, requestID string, status types.UpgradeStatus) (*types.UpgradeRequest, error) {
	if status != types.UpgradeStatusApproved && status != types.UpgradeStatusRejected {
		return nil, types.InputError("status must be %q or %q", types.UpgradeStatusApproved, types.UpgradeStatusRejected)
	}

	var decided *types.UpgradeRequest

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := m.load(ctx, requestID)
		if err != nil {
			return err
		}

		if request.Status != types.UpgradeStatusPending {
			return types.TransitionError("upgrade request", request.Status, status)
		}

		if err := m.upgrades.SetUpgradeStatus(ctx, requestID, request.Status, status); err != nil {
			return err
		}

		if status == types.UpgradeStatusApproved {
			if err := m.users.SetRoleByEmail(ctx, request.Email, m.track.Grants()); err != nil {
				return fmt.Errorf("failed to grant role to %s: %w", request.Email, err)
			}
		}

		request.Status = status
		decided = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"upgrade_id": decided.ID,
		"email":      decided.Email,
		"status":     decided.Status,
	}).Info("upgrade request decided")

	return decided, nil
}

// Withdraw lets the applicant delete their own Pending request.
func (m *UpgradeManager) Withdraw(ctx context.Context, caller types.Identity, requestID string) error {
	request, err := m.load(ctx, requestID)
	if err != nil {
		return err
	}

	if request.Email != utils.NormalizeEmail(caller.Email) {
		return fmt.Errorf("upgrade request %s belongs to another applicant: %w", requestID, types.ErrForbidden)
	}

	if request.Status != types.UpgradeStatusPending {
		return fmt.Errorf("only pending requests can be withdrawn, request is %s: %w", request.Status, types.ErrInvalidTransition)
	}

	if err := m.upgrades.DeleteUpgradeRequest(ctx, requestID); err != nil {
		return err
	}

	m.logger.WithField("upgrade_id", requestID).Info("upgrade request withdrawn")

	return nil
}

// Discard is the admin's deletion-as-rejection. It never touches the
// applicant's role, even for an already Approved request.
func (m *UpgradeManager) Discard(ctx context.Context, requestID string) error {
	if _, err := m.load(ctx, requestID); err != nil {
		return err
	}

	if err := m.upgrades.DeleteUpgradeRequest(ctx, requestID); err != nil {
		return err
	}

	m.logger.WithField("upgrade_id", requestID).Info("upgrade request discarded")

	return nil
}
