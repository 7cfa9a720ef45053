package model

import "time"

// Account is the credential record for one principal. PasswordHash and
// RefreshToken never leave the repository/service layer; AuthAccount is the
// shape handed to handlers and serialized in responses.
type Account struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	RefreshToken string // current legitimate refresh token, empty after logout
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AuthAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	Account      AuthAccount `json:"account"`
}
