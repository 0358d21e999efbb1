package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTClaims struct {
	Subject  string `json:"sub_id"`
	APIKey   string `json:"api_key,omitempty"`
	UserTier string `json:"user_tier"` // free, premium, enterprise
	jwt.RegisteredClaims
}

type AuthRequest struct {
	APIKey  string `json:"apiKey" validate:"required"`
	Subject string `json:"subject,omitempty"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserTier  string    `json:"userTier"`
}

type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"resetTime"`
}
