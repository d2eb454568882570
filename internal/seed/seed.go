package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodlink/pkg/types"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sirupsen/logrus"
)

type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*types.User, error)
	CreateUser(ctx context.Context, user *types.User) error
}

type DonationStore interface {
	DonationsByRestaurant(ctx context.Context, email string) ([]*types.Donation, error)
	CreateDonation(ctx context.Context, donation *types.Donation) error
}

type account struct {
	Email string
	Name  string
	Role  types.Role
}

// Accounts are stable so a local JWT from the token command can log in as any of them.
var Accounts = []account{
	{Email: "admin@foodlink.test", Name: "Site Admin", Role: types.RoleAdmin},
	{Email: "kitchen@foodlink.test", Name: "Corner Kitchen", Role: types.RoleRestaurant},
	{Email: "bakery@foodlink.test", Name: "Daily Bread Bakery", Role: types.RoleRestaurant},
	{Email: "pantry@foodlink.test", Name: "Eastside Pantry", Role: types.RoleCharity},
	{Email: "shelter@foodlink.test", Name: "Harbor Shelter", Role: types.RoleCharity},
	{Email: "sam@foodlink.test", Name: "Sam Volunteer", Role: types.RoleUser},
}

var foodTypes = []string{"Cooked meal", "Bakery", "Produce", "Dairy", "Canned goods", "Sandwiches"}

type Seeder struct {
	users     UserStore
	donations DonationStore
	faker     *gofakeit.Faker
	logger    logrus.FieldLogger
}

// New returns a Seeder whose fake data is reproducible for a given seed.
func New(users UserStore, donations DonationStore, seed int64, logger logrus.FieldLogger) *Seeder {
	return &Seeder{
		users:     users,
		donations: donations,
		faker:     gofakeit.New(seed),
		logger:    logger,
	}
}

// SeedAccounts creates the fixed accounts that do not exist yet and returns
// every account's record.
func (s *Seeder) SeedAccounts(ctx context.Context) ([]*types.User, error) {
	users := make([]*types.User, 0, len(Accounts))
	created := 0

	for _, a := range Accounts {
		existing, err := s.users.UserByEmail(ctx, a.Email)
		if err == nil {
			users = append(users, existing)
			continue
		}
		if !errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("failed to fetch seed account %s: %w", a.Email, err)
		}

		user := &types.User{Email: a.Email, Name: a.Name, Role: a.Role}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create seed account %s: %w", a.Email, err)
		}

		users = append(users, user)
		created++
	}

	s.logger.WithField("created", created).Info("seed accounts ready")

	return users, nil
}

// SeedDonations tops every restaurant account up to perRestaurant donations.
func (s *Seeder) SeedDonations(ctx context.Context, restaurants []*types.User, perRestaurant int) ([]*types.Donation, error) {
	var out []*types.Donation

	for _, r := range restaurants {
		if r.Role != types.RoleRestaurant {
			continue
		}

		existing, err := s.donations.DonationsByRestaurant(ctx, r.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to list donations for %s: %w", r.Email, err)
		}

		for range perRestaurant - len(existing) {
			donation := s.fakeDonation(r)
			if err := s.donations.CreateDonation(ctx, donation); err != nil {
				return nil, fmt.Errorf("failed to create donation for %s: %w", r.Email, err)
			}
			out = append(out, donation)
		}
	}

	s.logger.WithField("created", len(out)).Info("seed donations ready")

	return out, nil
}

func (s *Seeder) fakeDonation(restaurant *types.User) *types.Donation {
	pickup := time.Now().Add(time.Duration(s.faker.Number(2, 72)) * time.Hour).Truncate(time.Hour)
	address := s.faker.Address()

	return &types.Donation{
		Title:           s.faker.Dinner(),
		FoodType:        s.faker.RandomString(foodTypes),
		Quantity:        fmt.Sprintf("%d portions", s.faker.Number(5, 60)),
		PickupTime:      pickup.Format("2006-01-02T15:04"),
		RestaurantName:  restaurant.Name,
		RestaurantEmail: restaurant.Email,
		Location:        address.Street + ", " + address.City,
		Status:          types.DonationStatusPending,
	}
}
