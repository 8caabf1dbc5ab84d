package domain

import "time"

// Account is the single persisted record of this service. Session state is a
// field on the account, not a separate table: at most one session token is
// active at a time, a new login overwrites it and a logout clears it.
type Account struct {
	AccountID         string    `json:"id" dynamodbav:"account_id"`
	Name              string    `json:"name" dynamodbav:"name"`
	Email             string    `json:"email" dynamodbav:"email"`
	PasswordHash      string    `json:"-" dynamodbav:"password_hash"`
	AvatarURL         string    `json:"avatar_url" dynamodbav:"avatar_url"`
	VerificationToken string    `json:"-" dynamodbav:"verification_token,omitempty"`
	Verified          bool      `json:"verified" dynamodbav:"verified"`
	SessionToken      string    `json:"-" dynamodbav:"session_token"`
	CreatedAt         time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}
