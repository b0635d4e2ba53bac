package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionRequest picks a simulated identity from the directory.
type SessionRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	AcceptedTerms bool   `json:"accepted_terms"`
}

// SessionResponse returns the issued token and the resolved viewer.
type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Viewer      Viewer    `json:"viewer"`
	IssuedAt    time.Time `json:"issued_at"`
}

// SessionClaims represents the JWT payload for simulated sessions.
type SessionClaims struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Viewer converts the claims into a board identity.
func (c *SessionClaims) Viewer() Viewer {
	return Viewer{ID: c.UserID, Name: c.Name, Role: c.Role}
}
