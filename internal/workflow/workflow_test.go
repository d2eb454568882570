package workflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"foodlink/internal/store/memory"
	"foodlink/pkg/types"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *memory.Store
	images    *fakeImages
	payments  *fakePayments
	guard     *Guard
	users     *UserManager
	donations *DonationManager
	requests  *RequestManager
	charity   *UpgradeManager
	rest      *UpgradeManager
	payment   *PaymentManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	s := memory.NewStore()
	images := &fakeImages{objects: map[string]string{}}
	payments := &fakePayments{}

	return &fixture{
		store:     s,
		images:    images,
		payments:  payments,
		guard:     NewGuard(s),
		users:     NewUserManager(s, logger),
		donations: NewDonationManager(s, s, s, s, images, logger),
		requests:  NewRequestManager(s, s, s, logger),
		charity:   NewUpgradeManager(types.UpgradeTrackCharity, s, s, s, logger),
		rest:      NewUpgradeManager(types.UpgradeTrackRestaurant, s, s, s, logger),
		payment:   NewPaymentManager(payments, s, "USD", logger),
	}
}

// user registers email and gives it role.
func (f *fixture) user(t *testing.T, email string, role types.Role) *types.User {
	t.Helper()

	ctx := context.Background()
	user, err := f.users.Register(ctx, RegisterInput{Name: strings.Split(email, "@")[0], Email: email})
	require.NoError(t, err)

	if role != types.RoleUser {
		user, err = f.users.SetRole(ctx, user.ID, role)
		require.NoError(t, err)
	}
	return user
}

func (f *fixture) donation(t *testing.T, restaurant *types.User) *types.Donation {
	t.Helper()

	donation, err := f.donations.Create(context.Background(), restaurant, DonationInput{
		Title:      "Vegetable soup",
		FoodType:   "Cooked meal",
		Quantity:   "20 portions",
		PickupTime: "2026-10-20T18:00",
		Location:   "12 Market St",
	})
	require.NoError(t, err)
	return donation
}

func identity(u *types.User) types.Identity {
	return types.Identity{Subject: u.ID, Email: u.Email}
}

type fakeImages struct {
	objects map[string]string
	deleted []string
}

func (f *fakeImages) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	url := "https://images.test/" + key
	f.objects[url] = string(data)
	return url, nil
}

func (f *fakeImages) DeleteByURL(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	delete(f.objects, url)
	return nil
}

type fakePayments struct {
	calls    int
	cents    int64
	currency string
	metadata map[string]string
	err      error
}

func (f *fakePayments) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*types.PaymentIntent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.cents, f.currency, f.metadata = amountCents, currency, metadata
	return &types.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func TestGuardRolesAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin@x.com", types.RoleAdmin)

	_, err := f.guard.RequireRole(ctx, identity(admin), types.RoleCharity)
	require.ErrorIs(t, err, types.ErrForbidden)

	caller, err := f.guard.RequireRole(ctx, identity(admin), types.RoleAdmin, types.RoleCharity)
	require.NoError(t, err)
	require.Equal(t, admin.ID, caller.ID)

	_, err = f.guard.RequireRole(ctx, types.Identity{Email: "ghost@x.com"})
	require.ErrorIs(t, err, types.ErrForbidden)

	_, err = f.guard.RequireRole(ctx, types.Identity{})
	require.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestRegisterTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, RegisterInput{Name: "Ann", Email: "Ann@X.com "})
	require.NoError(t, err)
	require.Equal(t, "ann@x.com", user.Email)
	require.Equal(t, types.RoleUser, user.Role)

	_, err = f.users.Register(ctx, RegisterInput{Name: "Ann again", Email: "ann@x.com"})
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterInput{Email: "a@x.com"})
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = f.users.Register(ctx, RegisterInput{Name: "A", Email: "not-an-email"})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestGetIsSelfOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann@x.com", types.RoleUser)
	bob := f.user(t, "bob@x.com", types.RoleAdmin)

	got, err := f.users.Get(ctx, identity(ann), "ann@x.com")
	require.NoError(t, err)
	require.Equal(t, ann.ID, got.ID)

	_, err = f.users.Get(ctx, identity(bob), "ann@x.com")
	require.ErrorIs(t, err, types.ErrForbidden)
}

func TestSearchMatchesEmailOrName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "ann@kitchen.com", types.RoleUser)
	f.user(t, "bob@pantry.org", types.RoleUser)

	found, err := f.users.Search(ctx, "KITCHEN")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "ann@kitchen.com", found[0].Email)

	found, err = f.users.Search(ctx, "bo")
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	ann := f.user(t, "ann@x.com", types.RoleUser)

	_, err := f.users.SetRole(context.Background(), ann.ID, types.Role("owner"))
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = f.users.SetRole(context.Background(), "missing", types.RoleAdmin)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestListCharities(t *testing.T) {
	f := newFixture(t)
	f.user(t, "c1@x.com", types.RoleCharity)
	f.user(t, "r1@x.com", types.RoleRestaurant)
	f.user(t, "c2@x.com", types.RoleCharity)

	charities, err := f.users.ListCharities(context.Background())
	require.NoError(t, err)
	require.Len(t, charities, 2)
}

func TestCreateDonationForcesPendingAndOwner(t *testing.T) {
	f := newFixture(t)
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)

	donation := f.donation(t, rest)
	require.Equal(t, types.DonationStatusPending, donation.Status)
	require.Equal(t, rest.Email, donation.RestaurantEmail)
	require.Equal(t, rest.Name, donation.RestaurantName)
	require.Nil(t, donation.ImageURL)

	_, err := f.donations.Create(context.Background(), rest, DonationInput{Title: "Bread"})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDonationOwnershipIsEnforced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@x.com", types.RoleRestaurant)
	other := f.user(t, "other@x.com", types.RoleRestaurant)
	donation := f.donation(t, owner)

	title := "Lentil soup"
	_, err := f.donations.Update(ctx, other, donation.ID, types.DonationPatch{Title: &title})
	require.ErrorIs(t, err, types.ErrForbidden)
	require.ErrorIs(t, f.donations.Delete(ctx, other, donation.ID), types.ErrForbidden)

	updated, err := f.donations.Update(ctx, owner, donation.ID, types.DonationPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, donation.FoodType, updated.FoodType)

	blank := " "
	_, err = f.donations.Update(ctx, owner, donation.ID, types.DonationPatch{Location: &blank})
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = f.donations.Update(ctx, owner, "missing", types.DonationPatch{Title: &title})
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteDonationRemovesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)

	url, err := f.donations.UploadImage(ctx, rest, "Soup.JPG", "image/jpeg", bytes.NewBufferString("jpeg"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(url, ".jpg"))

	donation, err := f.donations.Create(ctx, rest, DonationInput{
		Title: "Soup", FoodType: "Meal", Quantity: "5", PickupTime: "18:00", Location: "Here", ImageURL: &url,
	})
	require.NoError(t, err)

	require.NoError(t, f.donations.Delete(ctx, rest, donation.ID))
	require.Equal(t, []string{url}, f.images.deleted)

	_, err = f.donations.GetWithReviews(ctx, donation.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	f := newFixture(t)
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)

	_, err := f.donations.UploadImage(context.Background(), rest, "notes.txt", "text/plain", strings.NewReader("hi"))
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestReviewsAreUnlimitedAndValidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	donation := f.donation(t, rest)

	for i := 0; i < 3; i++ {
		_, err := f.donations.AddReview(ctx, ReviewInput{DonationID: donation.ID, ReviewerName: "Kim", Rating: 5})
		require.NoError(t, err)
	}

	_, err := f.donations.AddReview(ctx, ReviewInput{DonationID: donation.ID, ReviewerName: "Kim", Rating: 6})
	require.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = f.donations.AddReview(ctx, ReviewInput{DonationID: donation.ID, Rating: 4})
	require.ErrorIs(t, err, types.ErrInvalidInput)

	full, err := f.donations.GetWithReviews(ctx, donation.ID)
	require.NoError(t, err)
	require.Len(t, full.Reviews, 3)
}

func TestRequestLifecycleToPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	request, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	require.Equal(t, types.RequestStatusPending, request.Status)
	require.Equal(t, rest.Email, request.RestaurantEmail)
	require.Equal(t, charity.Email, request.CharityEmail)

	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusAccepted)
	require.NoError(t, err)

	picked, err := f.requests.ConfirmPickup(ctx, charity, request.ID)
	require.NoError(t, err)
	require.Equal(t, types.RequestStatusPickedUp, picked.Status)

	stored, err := f.store.Donation(ctx, donation.ID)
	require.NoError(t, err)
	require.Equal(t, types.DonationStatusPickedUp, stored.Status)

	// a picked-up donation cannot be claimed again
	_, err = f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestPickupRequiresAcceptance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	request, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)

	_, err = f.requests.ConfirmPickup(ctx, charity, request.ID)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusRejected)
	require.NoError(t, err)

	_, err = f.requests.ConfirmPickup(ctx, charity, request.ID)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusAccepted)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	stored, err := f.store.Donation(ctx, donation.ID)
	require.NoError(t, err)
	require.Equal(t, types.DonationStatusPending, stored.Status)

	_, err = f.requests.ConfirmPickup(ctx, charity, "missing")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestSetStatusChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	other := f.user(t, "other@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	request, err := f.requests.Create(ctx, charity, RequestInput{DonationID: f.donation(t, rest).ID})
	require.NoError(t, err)

	_, err = f.requests.SetStatus(ctx, other, request.ID, types.RequestStatusAccepted)
	require.ErrorIs(t, err, types.ErrForbidden)

	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusPickedUp)
	require.ErrorIs(t, err, types.ErrInvalidInput)

	mine, err := f.requests.ListForRestaurant(ctx, rest)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := f.requests.ListForRestaurant(ctx, other)
	require.NoError(t, err)
	require.Empty(t, theirs)
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	otherCharity := f.user(t, "other@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	first, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	second, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)

	require.ErrorIs(t, f.requests.Cancel(ctx, otherCharity, first.ID), types.ErrForbidden)

	_, err = f.requests.SetStatus(ctx, rest, second.ID, types.RequestStatusAccepted)
	require.NoError(t, err)
	require.ErrorIs(t, f.requests.Cancel(ctx, charity, second.ID), types.ErrInvalidTransition)

	require.NoError(t, f.requests.Cancel(ctx, charity, first.ID))
	_, err = f.store.Request(ctx, first.ID)
	require.ErrorIs(t, err, types.ErrNotFound)

	mine, err := f.requests.ListMine(ctx, charity)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, second.ID, mine[0].ID)
}

func TestConfirmPickupIsRedrivable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	request, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusAccepted)
	require.NoError(t, err)

	f.store.FailDonationStatus = errors.New("store unavailable")
	_, err = f.requests.ConfirmPickup(ctx, charity, request.ID)
	require.Error(t, err)

	stored, err := f.store.Request(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, types.RequestStatusAccepted, stored.Status)

	f.store.FailDonationStatus = nil
	_, err = f.requests.ConfirmPickup(ctx, charity, request.ID)
	require.NoError(t, err)

	// simulate a donation left behind by an interrupted cascade
	require.NoError(t, f.store.SetDonationStatus(ctx, donation.ID, types.DonationStatusPickedUp, types.DonationStatusPending))
	again, err := f.requests.ConfirmPickup(ctx, charity, request.ID)
	require.NoError(t, err)
	require.Equal(t, types.RequestStatusPickedUp, again.Status)

	repaired, err := f.store.Donation(ctx, donation.ID)
	require.NoError(t, err)
	require.Equal(t, types.DonationStatusPickedUp, repaired.Status)
}

func TestRequestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	stranger := f.user(t, "stranger@x.com", types.RoleCharity)
	admin := f.user(t, "admin@x.com", types.RoleAdmin)
	request, err := f.requests.Create(ctx, charity, RequestInput{DonationID: f.donation(t, rest).ID})
	require.NoError(t, err)

	for _, u := range []*types.User{rest, charity, admin} {
		_, err := f.requests.Get(ctx, u, request.ID)
		require.NoError(t, err)
	}

	_, err = f.requests.Get(ctx, stranger, request.ID)
	require.ErrorIs(t, err, types.ErrForbidden)
}

func TestApprovalGrantsTrackRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann@x.com", types.RoleUser)
	bob := f.user(t, "bob@x.com", types.RoleUser)

	charityReq, err := f.charity.Submit(ctx, identity(ann), UpgradeInput{OrganizationName: "Food Bank", Amount: 25})
	require.NoError(t, err)
	require.Equal(t, int64(2500), charityReq.AmountCents)

	restReq, err := f.rest.Submit(ctx, identity(bob), UpgradeInput{RestaurantName: "Bob's Diner"})
	require.NoError(t, err)

	_, err = f.charity.Decide(ctx, charityReq.ID, types.UpgradeStatusApproved)
	require.NoError(t, err)
	_, err = f.rest.Decide(ctx, restReq.ID, types.UpgradeStatusApproved)
	require.NoError(t, err)

	annNow, err := f.store.UserByEmail(ctx, ann.Email)
	require.NoError(t, err)
	require.Equal(t, types.RoleCharity, annNow.Role)

	bobNow, err := f.store.UserByEmail(ctx, bob.Email)
	require.NoError(t, err)
	require.Equal(t, types.RoleRestaurant, bobNow.Role)

	_, err = f.rest.Decide(ctx, restReq.ID, types.UpgradeStatusRejected)
	require.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestRejectingOrDiscardingLeavesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann@x.com", types.RoleUser)

	first, err := f.rest.Submit(ctx, identity(ann), UpgradeInput{RestaurantName: "Ann's"})
	require.NoError(t, err)
	_, err = f.rest.Decide(ctx, first.ID, types.UpgradeStatusRejected)
	require.NoError(t, err)

	second, err := f.rest.Submit(ctx, identity(ann), UpgradeInput{RestaurantName: "Ann's"})
	require.NoError(t, err)
	require.NoError(t, f.rest.Discard(ctx, second.ID))

	annNow, err := f.store.UserByEmail(ctx, ann.Email)
	require.NoError(t, err)
	require.Equal(t, types.RoleUser, annNow.Role)

	_, err = f.rest.ByOwner(ctx, ann.Email)
	require.NoError(t, err)
}

func TestSecondOutstandingSubmissionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann@x.com", types.RoleUser)

	first, err := f.charity.Submit(ctx, identity(ann), UpgradeInput{OrganizationName: "Pantry"})
	require.NoError(t, err)

	_, err = f.charity.Submit(ctx, identity(ann), UpgradeInput{OrganizationName: "Pantry"})
	require.ErrorIs(t, err, types.ErrConflict)

	// the other track is independent
	_, err = f.rest.Submit(ctx, identity(ann), UpgradeInput{RestaurantName: "Ann's"})
	require.NoError(t, err)

	outstanding, err := f.charity.Outstanding(ctx, ann.Email)
	require.NoError(t, err)
	require.Equal(t, first.ID, outstanding.ID)

	_, err = f.charity.Decide(ctx, first.ID, types.UpgradeStatusApproved)
	require.NoError(t, err)

	// approved is still outstanding, and ann is now a charity
	_, err = f.charity.Submit(ctx, identity(ann), UpgradeInput{OrganizationName: "Pantry"})
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestSubmitRequiresRegistrationAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.charity.Submit(ctx, types.Identity{Email: "ghost@x.com"}, UpgradeInput{OrganizationName: "X"})
	require.ErrorIs(t, err, types.ErrForbidden)

	ann := f.user(t, "ann@x.com", types.RoleUser)
	_, err = f.charity.Submit(ctx, identity(ann), UpgradeInput{})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann@x.com", types.RoleUser)
	bob := f.user(t, "bob@x.com", types.RoleUser)

	request, err := f.charity.Submit(ctx, identity(ann), UpgradeInput{OrganizationName: "Pantry"})
	require.NoError(t, err)

	require.ErrorIs(t, f.charity.Withdraw(ctx, identity(bob), request.ID), types.ErrForbidden)
	require.ErrorIs(t, f.rest.Withdraw(ctx, identity(ann), request.ID), types.ErrNotFound)

	_, err = f.charity.Decide(ctx, request.ID, types.UpgradeStatusRejected)
	require.NoError(t, err)
	require.ErrorIs(t, f.charity.Withdraw(ctx, identity(ann), request.ID), types.ErrInvalidTransition)

	next, err := f.charity.Submit(ctx, identity(ann), UpgradeInput{OrganizationName: "Pantry"})
	require.NoError(t, err)
	require.NoError(t, f.charity.Withdraw(ctx, identity(ann), next.ID))

	mine, err := f.charity.ListMine(ctx, ann.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestPaymentIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := types.Identity{Email: "Ann@X.com"}

	intent, err := f.payment.CreateIntent(ctx, caller, PaymentIntentInput{Amount: 19.99, Purpose: "charity-role"})
	require.NoError(t, err)
	require.Equal(t, "pi_1_secret", intent.ClientSecret)
	require.Equal(t, int64(1999), f.payments.cents)
	require.Equal(t, "usd", f.payments.currency)
	require.Equal(t, "ann@x.com", f.payments.metadata["email"])

	_, err = f.payment.CreateIntent(ctx, caller, PaymentIntentInput{Amount: 0})
	require.ErrorIs(t, err, types.ErrInvalidInput)
	require.Equal(t, 1, f.payments.calls)
}

func TestRecordTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := types.Identity{Email: "ann@x.com"}

	txn, err := f.payment.Record(ctx, caller, TransactionInput{TransactionID: "pi_1", Amount: 10, Purpose: "restaurant-role"})
	require.NoError(t, err)
	require.Equal(t, int64(1000), txn.AmountCents)
	require.Len(t, f.store.Transactions(), 1)

	_, err = f.payment.Record(ctx, caller, TransactionInput{Amount: 10})
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDeleteDonationWithAcceptedRequestFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	request, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusAccepted)
	require.NoError(t, err)

	require.ErrorIs(t, f.donations.Delete(ctx, rest, donation.ID), types.ErrInvalidTransition)

	_, err = f.store.Donation(ctx, donation.ID)
	require.NoError(t, err)

	_, err = f.requests.ConfirmPickup(ctx, charity, request.ID)
	require.NoError(t, err)
	require.ErrorIs(t, f.donations.Delete(ctx, rest, donation.ID), types.ErrInvalidTransition)
}

func TestDeleteDonationRejectsPendingRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	pending, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	declined, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	_, err = f.requests.SetStatus(ctx, rest, declined.ID, types.RequestStatusRejected)
	require.NoError(t, err)

	require.NoError(t, f.donations.Delete(ctx, rest, donation.ID))

	_, err = f.store.Donation(ctx, donation.ID)
	require.ErrorIs(t, err, types.ErrNotFound)

	mine, err := f.requests.ListMine(ctx, charity)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, request := range mine {
		require.Equal(t, types.RequestStatusRejected, request.Status)
	}

	stored, err := f.store.Request(ctx, pending.ID)
	require.NoError(t, err)
	require.Equal(t, types.RequestStatusRejected, stored.Status)
}

func TestDonationIsPickedUpOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	first := f.user(t, "first@x.com", types.RoleCharity)
	second := f.user(t, "second@x.com", types.RoleCharity)
	third := f.user(t, "third@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	a, err := f.requests.Create(ctx, first, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	b, err := f.requests.Create(ctx, second, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)
	c, err := f.requests.Create(ctx, third, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)

	// both accepted while the donation is still on offer
	_, err = f.requests.SetStatus(ctx, rest, a.ID, types.RequestStatusAccepted)
	require.NoError(t, err)
	_, err = f.requests.SetStatus(ctx, rest, c.ID, types.RequestStatusAccepted)
	require.NoError(t, err)

	_, err = f.requests.ConfirmPickup(ctx, first, a.ID)
	require.NoError(t, err)

	stored, err := f.store.Request(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, types.RequestStatusRejected, stored.Status)

	_, err = f.requests.SetStatus(ctx, rest, b.ID, types.RequestStatusAccepted)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = f.requests.ConfirmPickup(ctx, third, c.ID)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	stored, err = f.store.Request(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, types.RequestStatusAccepted, stored.Status)
}

func TestAcceptRequiresPendingDonation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rest := f.user(t, "rest@x.com", types.RoleRestaurant)
	charity := f.user(t, "charity@x.com", types.RoleCharity)
	donation := f.donation(t, rest)

	request, err := f.requests.Create(ctx, charity, RequestInput{DonationID: donation.ID})
	require.NoError(t, err)

	require.NoError(t, f.store.SetDonationStatus(ctx, donation.ID, types.DonationStatusPending, types.DonationStatusPickedUp))

	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusAccepted)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	// rejecting is still allowed
	_, err = f.requests.SetStatus(ctx, rest, request.ID, types.RequestStatusRejected)
	require.NoError(t, err)
}

func TestDecideIsApplyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "ann@x.com", types.RoleUser)

	request, err := f.charity.Submit(ctx, identity(ann), UpgradeInput{OrganizationName: "Pantry"})
	require.NoError(t, err)
	_, err = f.charity.Decide(ctx, request.ID, types.UpgradeStatusRejected)
	require.NoError(t, err)

	_, err = f.charity.Decide(ctx, request.ID, types.UpgradeStatusApproved)
	require.ErrorIs(t, err, types.ErrInvalidTransition)

	annNow, err := f.store.UserByEmail(ctx, ann.Email)
	require.NoError(t, err)
	require.Equal(t, types.RoleUser, annNow.Role)
}

func TestAdminsCannotApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin@x.com", types.RoleAdmin)

	_, err := f.charity.Submit(ctx, identity(admin), UpgradeInput{OrganizationName: "Pantry"})
	require.ErrorIs(t, err, types.ErrConflict)

	_, err = f.rest.Submit(ctx, identity(admin), UpgradeInput{RestaurantName: "Diner"})
	require.ErrorIs(t, err, types.ErrConflict)

	mine, err := f.charity.ListMine(ctx, admin.Email)
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestPaymentsWithoutProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	payment := NewPaymentManager(nil, f.store, "USD", logger)
	caller := types.Identity{Email: "ann@x.com"}

	_, err := payment.CreateIntent(ctx, caller, PaymentIntentInput{Amount: 10})
	require.Error(t, err)
	for _, kind := range []error{types.ErrInvalidInput, types.ErrNotFound, types.ErrForbidden, types.ErrConflict} {
		require.False(t, errors.Is(err, kind))
	}

	_, err = payment.Record(ctx, caller, TransactionInput{TransactionID: "pi_1", Amount: 10})
	require.NoError(t, err)
}
