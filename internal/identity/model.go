package identity

import "time"

const (
	// RoleUser is the default role for registered accounts.
	RoleUser = "user"
	// RoleAdmin unlocks administrative operations such as payout processing.
	RoleAdmin = "admin"
)

// User represents a registered account owning a VCreds balance.
type User struct {
	ID           string
	Email        string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials is the login/registration request structure.
type Credentials struct {
	Email    string
	Password string
}
