package api

import "time"

// TokenResponse is the wire format of the login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is the bearer token used to access the admin API.
	AccessToken *string `json:"access_token,omitempty"`

	// TokenType indicates how to use the access token (always "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Note: This is a hint - servers that omit it issue JWTs whose "exp"
	// claim carries the actual expiry.
	ExpiresIn int `json:"expires_in,omitempty"`
}

// Access returns the access token, or "" when the response carried none.
func (tr *TokenResponse) Access() string {
	if tr == nil || tr.AccessToken == nil {
		return ""
	}
	return *tr.AccessToken
}

// Token is a resolved access token: the raw bearer value plus whatever
// expiry could be determined from the response or the token itself.
type Token struct {
	AccessToken string
	ExpiresAt   *time.Time
}

// AdminInfo is the cached admin profile. Advisory only, for UI display.
type AdminInfo map[string]interface{}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Error string `json:"error,omitempty"`
}
