package dto

import "time"

// CredentialsRequest is the body of sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// IdentityResponse describes a sign-in account.
type IdentityResponse struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Groups []string `json:"groups,omitempty"`
}

// TokenResponse is returned by a successful sign-in.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
