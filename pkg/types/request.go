package types

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusAccepted RequestStatus = "Accepted"
	RequestStatusRejected RequestStatus = "Rejected"
	RequestStatusPickedUp RequestStatus = "Picked Up"
)

// Request is a charity's pickup claim on a donation.
type Request struct {
	ID              string        `db:"id" json:"id"`
	DonationID      string        `db:"donation_id" json:"donationId"`
	DonationTitle   string        `db:"donation_title" json:"donationTitle"`
	CharityName     string        `db:"charity_name" json:"charityName"`
	CharityEmail    string        `db:"charity_email" json:"charityEmail"`
	RestaurantEmail string        `db:"restaurant_email" json:"restaurantEmail"`
	Description     *string       `db:"description" json:"description,omitempty"`
	PickupTime      *string       `db:"pickup_time" json:"pickupTime,omitempty"`
	Status          RequestStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
}
