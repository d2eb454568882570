package types

import "time"

type UpgradeTrack string

const (
	UpgradeTrackCharity    UpgradeTrack = "charity"
	UpgradeTrackRestaurant UpgradeTrack = "restaurant"
)

// Grants is the role an approved request on this track confers.
func (t UpgradeTrack) Grants() Role {
	switch t {
	case UpgradeTrackRestaurant:
		return RoleRestaurant
	default:
		return RoleCharity
	}
}

type UpgradeStatus string

const (
	UpgradeStatusPending  UpgradeStatus = "Pending"
	UpgradeStatusApproved UpgradeStatus = "Approved"
	UpgradeStatusRejected UpgradeStatus = "Rejected"
)

// Outstanding reports whether a request in this status blocks a new submission.
func (s UpgradeStatus) Outstanding() bool {
	return s == UpgradeStatusPending || s == UpgradeStatusApproved
}

type UpgradeRequest struct {
	ID               string        `db:"id" json:"id"`
	Track            UpgradeTrack  `db:"track" json:"track"`
	Email            string        `db:"email" json:"email"`
	Name             string        `db:"name" json:"name"`
	OrganizationName *string       `db:"organization_name" json:"organizationName,omitempty"`
	Mission          *string       `db:"mission" json:"mission,omitempty"`
	RestaurantName   *string       `db:"restaurant_name" json:"restaurantName,omitempty"`
	Address          *string       `db:"address" json:"address,omitempty"`
	Phone            *string       `db:"phone" json:"phone,omitempty"`
	Description      *string       `db:"description" json:"description,omitempty"`
	TransactionID    *string       `db:"transaction_id" json:"transactionId,omitempty"`
	AmountCents      int64         `db:"amount_cents" json:"amountCents"`
	Status           UpgradeStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
}
