// internal/membership/domain.go
package membership

import (
	"errors"
	"time"
)

var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrMemberExists       = errors.New("member already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidMember      = errors.New("invalid member data")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// Member is a registered library user. IdentityNumber is the member's ID
// everywhere else in the desk.
type Member struct {
	IdentityNumber string    `json:"identity_number"`
	FullName       string    `json:"full_name"`
	BirthDate      string    `json:"birth_date"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	CreatedAt      time.Time `json:"created_at"`
}

// Credential holds a member's login secret.
type Credential struct {
	IdentityNumber string `json:"-"`
	PasswordHash   string `json:"-"`
	Salt           string `json:"-"`
}

// Registration is the sign-up form.
type Registration struct {
	FullName       string `json:"full_name"`
	IdentityNumber string `json:"identity_number"`
	BirthDate      string `json:"birth_date"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
}

// DemoRegistration is the account seeded at start-up for quick access.
func DemoRegistration() Registration {
	return Registration{
		FullName:       "Usuario Admin",
		IdentityNumber: "0000",
		BirthDate:      "01/01/2000",
		Age:            25,
		Gender:         "N/A",
		Email:          "admin@test.com",
		Username:       "admin",
		Password:       "admin",
	}
}
