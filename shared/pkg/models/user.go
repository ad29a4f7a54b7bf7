package models

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleArtisan  Role = "artisan"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleArtisan
}

// User is the profile record keyed by the account id. Role never changes after signup.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	Location    string    `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (u User) HasCoordinates() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// ProfileUpdate is the self-service subset of User.
type ProfileUpdate struct {
	Name        string
	Location    string
	Description *string
	Latitude    *float64
	Longitude   *float64
}

// ArtisanProfile is an artisan with the number of products they list.
type ArtisanProfile struct {
	User
	ProductCount int `json:"product_count"`
}
