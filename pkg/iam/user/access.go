package user

import (
	"fmt"

	"github.com/chriswk/auth-app/pkg/kernel"
)

// UserInstanceAccess is a grant joined with the instance region, used to
// build per-region sign-in links.
type UserInstanceAccess struct {
	ClientID kernel.ClientID `db:"client_id" json:"client_id"`
	Email    kernel.Email    `db:"email" json:"email"`
	Role     Role            `db:"role" json:"role"`
	Region   string          `db:"region" json:"region"`
}

// AccessWithSignInURL is the sign-in discovery projection.
type AccessWithSignInURL struct {
	ClientID  kernel.ClientID `json:"client_id"`
	Email     kernel.Email    `json:"email"`
	Role      Role            `json:"role"`
	SignInURL string          `json:"sign_in_url"`
}

// WithSignInURL resolves the region-prefixed sign-in link against the
// configured base host.
func (a UserInstanceAccess) WithSignInURL(baseURL string) AccessWithSignInURL {
	return AccessWithSignInURL{
		ClientID:  a.ClientID,
		Email:     a.Email,
		Role:      a.Role,
		SignInURL: signInURL(baseURL, a.Region, a.ClientID),
	}
}

// signInURL prefixes the base host by region: "eu2" → eu., "us" → us.,
// anything else unprefixed.
func signInURL(baseURL, region string, clientID kernel.ClientID) string {
	switch region {
	case "eu2":
		return fmt.Sprintf("https://eu.%s/%s", baseURL, clientID)
	case "us":
		return fmt.Sprintf("https://us.%s/%s", baseURL, clientID)
	default:
		return fmt.Sprintf("https://%s/%s", baseURL, clientID)
	}
}
