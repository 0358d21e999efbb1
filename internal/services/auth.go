package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/pkg/models"
)

var ErrInvalidAPIKey = errors.New("invalid API key")

type AuthService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
}

func NewAuthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
	}
}

// IssueToken exchanges a valid API key for a signed session token.
func (s *AuthService) IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error) {
	tier, err := s.ValidateAPIKey(req.APIKey)
	if err != nil {
		return nil, err
	}

	subject := req.Subject
	if subject == "" {
		subject = APIKeySubject(req.APIKey)
	}

	token, expiresAt, err := s.GenerateToken(ctx, subject, req.APIKey, tier)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserTier:  tier,
	}, nil
}

func (s *AuthService) GenerateToken(ctx context.Context, subject, apiKey, userTier string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.Auth.TokenTTL)
	claims := &models.JWTClaims{
		Subject:  subject,
		APIKey:   maskKey(apiKey),
		UserTier: userTier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "github.com/temcen/vendex",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	// Store token in Redis for session management
	err = s.redisClient.Set(ctx, sessionKey(subject), tokenString, s.config.Auth.TokenTTL).Err()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to store session in Redis")
		// Don't fail token generation if Redis is down
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	// Check if session exists in Redis
	exists, err := s.redisClient.Exists(ctx, sessionKey(claims.Subject)).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to check session in Redis")
		// Continue validation even if Redis is down
	} else if exists == 0 {
		return nil, fmt.Errorf("session not found or expired")
	}

	return claims, nil
}

func (s *AuthService) RevokeToken(ctx context.Context, subject string) error {
	if err := s.redisClient.Del(ctx, sessionKey(subject)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// ValidateAPIKey returns the tier configured for apiKey.
func (s *AuthService) ValidateAPIKey(apiKey string) (string, error) {
	if tier, exists := s.config.Auth.APIKeys[apiKey]; exists && apiKey != "" {
		return tier, nil
	}
	return "", ErrInvalidAPIKey
}

// APIKeySubject is the subject recorded for requests authenticated by a raw
// API key. Distinct keys map to distinct subjects without exposing the key.
func APIKeySubject(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "apikey:" + hex.EncodeToString(sum[:6])
}

func sessionKey(subject string) string {
	return fmt.Sprintf("session:%s", subject)
}

// maskKey keeps API keys out of tokens and logs.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
