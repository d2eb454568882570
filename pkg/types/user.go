package types

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleCharity    Role = "charity"
	RoleRestaurant Role = "restaurant"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCharity, RoleRestaurant, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	PhotoURL  *string   `db:"photo_url" json:"photoUrl,omitempty"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Identity is what a verified credential yields.
type Identity struct {
	Subject string
	Email   string
}
