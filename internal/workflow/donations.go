package workflow

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	minRating = 1
	maxRating = 5
)

type DonationManager struct {
	donations DonationStore
	reviews   ReviewStore
	requests  RequestStore
	tx        Transactor
	images    ImageStore
	logger    logrus.FieldLogger
}

func NewDonationManager(donations DonationStore, reviews ReviewStore, requests RequestStore, tx Transactor, images ImageStore, logger logrus.FieldLogger) *DonationManager {
	return &DonationManager{
		donations: donations,
		reviews:   reviews,
		requests:  requests,
		tx:        tx,
		images:    images,
		logger:    logger,
	}
}

type DonationInput struct {
	Title          string  `json:"title"`
	FoodType       string  `json:"foodType"`
	Quantity       string  `json:"quantity"`
	PickupTime     string  `json:"pickupTime"`
	RestaurantName string  `json:"restaurantName"`
	Location       string  `json:"location"`
	ImageURL       *string `json:"imageUrl"`
}

// Create lists a new donation owned by the calling restaurant. The status is
// always Pending regardless of input.
func (m *DonationManager) Create(ctx context.Context, caller *types.User, in DonationInput) (*types.Donation, error) {
	restaurantName := strings.TrimSpace(in.RestaurantName)
	if restaurantName == "" {
		restaurantName = caller.Name
	}

	donation := &types.Donation{
		Title:           strings.TrimSpace(in.Title),
		FoodType:        strings.TrimSpace(in.FoodType),
		Quantity:        strings.TrimSpace(in.Quantity),
		PickupTime:      strings.TrimSpace(in.PickupTime),
		RestaurantName:  restaurantName,
		RestaurantEmail: caller.Email,
		Location:        strings.TrimSpace(in.Location),
		ImageURL:        utils.TrimmedPtr(utils.PtrString(in.ImageURL)),
		Status:          types.DonationStatusPending,
	}

	required := []struct{ field, value string }{
		{"title", donation.Title},
		{"foodType", donation.FoodType},
		{"quantity", donation.Quantity},
		{"pickupTime", donation.PickupTime},
		{"restaurantName", donation.RestaurantName},
		{"location", donation.Location},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, types.InputError("%s is required", r.field)
		}
	}

	if err := m.donations.CreateDonation(ctx, donation); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"donation_id":      donation.ID,
		"restaurant_email": donation.RestaurantEmail,
	}).Info("donation created")

	return donation, nil
}

// owned loads a donation and checks the caller is the restaurant that listed it.
func (m *DonationManager) owned(ctx context.Context, caller *types.User, donationID string) (*types.Donation, error) {
	donation, err := m.donations.Donation(ctx, donationID)
	if err != nil {
		return nil, err
	}

	if donation.RestaurantEmail != caller.Email {
		return nil, fmt.Errorf("donation %s belongs to another restaurant: %w", donationID, types.ErrForbidden)
	}

	return donation, nil
}

// Update applies the non-nil patch fields. Status is not client editable.
func (m *DonationManager) Update(ctx context.Context, caller *types.User, donationID string, patch types.DonationPatch) (*types.Donation, error) {
	donation, err := m.owned(ctx, caller, donationID)
	if err != nil {
		return nil, err
	}

	mandatory := map[string]*string{
		"title":          patch.Title,
		"foodType":       patch.FoodType,
		"quantity":       patch.Quantity,
		"pickupTime":     patch.PickupTime,
		"restaurantName": patch.RestaurantName,
		"location":       patch.Location,
	}
	for field, value := range mandatory {
		if value != nil && strings.TrimSpace(*value) == "" {
			return nil, types.InputError("%s cannot be blank", field)
		}
	}

	if err := m.donations.UpdateDonation(ctx, donationID, patch); err != nil {
		return nil, err
	}

	patch.Apply(donation)
	return donation, nil
}

// Delete removes the donation and then its uploaded image. A donation with an
// Accepted or Picked Up request cannot be deleted. Pending requests on it are
// rejected and every request is kept for the charities' history. An image
// that cannot be removed is logged, not returned.
func (m *DonationManager) Delete(ctx context.Context, caller *types.User, donationID string) error {
	donation, err := m.owned(ctx, caller, donationID)
	if err != nil {
		return err
	}

	rejected := 0
	err = m.tx.WithinTx(ctx, func(ctx context.Context) error {
		requests, err := m.requests.RequestsByDonation(ctx, donationID)
		if err != nil {
			return err
		}

		for _, request := range requests {
			if request.Status == types.RequestStatusAccepted || request.Status == types.RequestStatusPickedUp {
				return fmt.Errorf("donation %s has a request that is %s: %w", donationID, request.Status, types.ErrInvalidTransition)
			}
		}

		for _, request := range requests {
			if request.Status != types.RequestStatusPending {
				continue
			}
			if err := m.requests.SetRequestStatus(ctx, request.ID, types.RequestStatusPending, types.RequestStatusRejected); err != nil {
				return err
			}
			rejected++
		}

		return m.donations.DeleteDonation(ctx, donationID)
	})
	if err != nil {
		return err
	}

	if donation.ImageURL != nil && m.images != nil {
		if err := m.images.DeleteByURL(ctx, *donation.ImageURL); err != nil {
			m.logger.WithError(err).WithField("donation_id", donationID).Warn("failed to delete donation image")
		}
	}

	m.logger.WithFields(logrus.Fields{
		"donation_id":       donationID,
		"requests_rejected": rejected,
	}).Info("donation deleted")

	return nil
}

func (m *DonationManager) ListPublic(ctx context.Context) ([]*types.Donation, error) {
	return m.donations.Donations(ctx)
}

func (m *DonationManager) ListByRestaurant(ctx context.Context, email string) ([]*types.Donation, error) {
	return m.donations.DonationsByRestaurant(ctx, utils.NormalizeEmail(email))
}

func (m *DonationManager) GetWithReviews(ctx context.Context, donationID string) (*types.DonationWithReviews, error) {
	donation, err := m.donations.Donation(ctx, donationID)
	if err != nil {
		return nil, err
	}

	reviews, err := m.reviews.ReviewsByDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}

	return &types.DonationWithReviews{Donation: donation, Reviews: reviews}, nil
}

type ReviewInput struct {
	DonationID   string `json:"donationId"`
	ReviewerName string `json:"reviewerName"`
	Description  string `json:"description"`
	Rating       int    `json:"rating"`
}

// AddReview accepts any number of reviews per donation and reviewer.
func (m *DonationManager) AddReview(ctx context.Context, in ReviewInput) (*types.Review, error) {
	review := &types.Review{
		DonationID:   strings.TrimSpace(in.DonationID),
		ReviewerName: strings.TrimSpace(in.ReviewerName),
		Description:  strings.TrimSpace(in.Description),
		Rating:       in.Rating,
	}

	switch {
	case review.DonationID == "":
		return nil, types.InputError("donationId is required")
	case review.ReviewerName == "":
		return nil, types.InputError("reviewerName is required")
	case review.Rating < minRating || review.Rating > maxRating:
		return nil, types.InputError("rating must be between %d and %d", minRating, maxRating)
	}

	if err := m.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// UploadImage stores a donation photo and returns the URL to put in imageUrl.
func (m *DonationManager) UploadImage(ctx context.Context, caller *types.User, filename, contentType string, body io.Reader) (string, error) {
	if m.images == nil {
		return "", fmt.Errorf("image storage is not configured")
	}

	if !strings.HasPrefix(contentType, "image/") {
		return "", types.InputError("content type %q is not an image", contentType)
	}

	key := fmt.Sprintf("donations/%s%s", utils.NanoID(), strings.ToLower(path.Ext(filename)))

	url, err := m.images.Upload(ctx, key, contentType, body)
	if err != nil {
		return "", err
	}

	m.logger.WithFields(logrus.Fields{"key": key, "restaurant_email": caller.Email}).Info("donation image uploaded")

	return url, nil
}
