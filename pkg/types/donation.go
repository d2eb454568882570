package types

import "time"

type DonationStatus string

const (
	DonationStatusPending  DonationStatus = "Pending"
	DonationStatusPickedUp DonationStatus = "Picked Up"
)

type Donation struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	FoodType        string         `db:"food_type" json:"foodType"`
	Quantity        string         `db:"quantity" json:"quantity"`
	PickupTime      string         `db:"pickup_time" json:"pickupTime"`
	RestaurantName  string         `db:"restaurant_name" json:"restaurantName"`
	RestaurantEmail string         `db:"restaurant_email" json:"restaurantEmail"`
	Location        string         `db:"location" json:"location"`
	ImageURL        *string        `db:"image_url" json:"imageUrl,omitempty"`
	Status          DonationStatus `db:"status" json:"status"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

// DonationPatch carries the client-editable donation fields. Nil fields are left untouched.
type DonationPatch struct {
	Title          *string `db:"title" json:"title"`
	FoodType       *string `db:"food_type" json:"foodType"`
	Quantity       *string `db:"quantity" json:"quantity"`
	PickupTime     *string `db:"pickup_time" json:"pickupTime"`
	RestaurantName *string `db:"restaurant_name" json:"restaurantName"`
	Location       *string `db:"location" json:"location"`
	ImageURL       *string `db:"image_url" json:"imageUrl"`
}

func (p DonationPatch) Apply(d *Donation) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.FoodType != nil {
		d.FoodType = *p.FoodType
	}
	if p.Quantity != nil {
		d.Quantity = *p.Quantity
	}
	if p.PickupTime != nil {
		d.PickupTime = *p.PickupTime
	}
	if p.RestaurantName != nil {
		d.RestaurantName = *p.RestaurantName
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.ImageURL != nil {
		d.ImageURL = p.ImageURL
	}
}

type DonationWithReviews struct {
	Donation *Donation `json:"donation"`
	Reviews  []*Review `json:"reviews"`
}

type Review struct {
	ID           string    `db:"id" json:"id"`
	DonationID   string    `db:"donation_id" json:"donationId"`
	ReviewerName string    `db:"reviewer_name" json:"reviewerName"`
	Description  string    `db:"description" json:"description"`
	Rating       int       `db:"rating" json:"rating"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
