package domain

import "time"

type Membership string

const (
	MembershipBronze Membership = "bronze"
	MembershipSilver Membership = "silver"
	MembershipGold   Membership = "gold"
)

func (m Membership) Valid() bool {
	switch m {
	case MembershipBronze, MembershipSilver, MembershipGold:
		return true
	}
	return false
}

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsStaff      bool      `json:"is_staff"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Customer struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone"`
	Birthday   *time.Time `json:"birthday,omitempty"`
	Membership Membership `json:"membership"`
}

type Address struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer"`
	Street     string `json:"street"`
	City       string `json:"city"`
}

// Identity is the authenticated caller as supplied by the auth layer.
type Identity struct {
	UserID int64
	Staff  bool
}
