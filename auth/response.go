package auth

import "github.com/jrsteele09/bookstore-auth/users"

const TokenTypeBearer = "Bearer"

// TokenResponse is what a successful login, register or refresh hands back
type TokenResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	TokenType    string     `json:"tokenType"`
	ExpiresIn    int        `json:"expiresIn"` // access token lifetime in seconds
	Email        string     `json:"email"`
	Role         users.Role `json:"role"`
}
