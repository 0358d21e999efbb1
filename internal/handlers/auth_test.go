package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/vendex/internal/services"
	"github.com/temcen/vendex/pkg/models"
)

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockTokenIssuer) RevokeToken(ctx context.Context, subject string) error {
	return m.Called(ctx, subject).Error(0)
}

func newAuthRouter(issuer services.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/api/v1/auth/token", NewAuthHandler(issuer, testLogger()).Token)
	return router
}

func TestAuthHandler_Token(t *testing.T) {
	expiresAt := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)

	t.Run("valid key", func(t *testing.T) {
		issuer := new(MockTokenIssuer)
		issuer.On("IssueToken", mock.Anything, &models.AuthRequest{APIKey: "site-premium-key", Subject: "buyer-17"}).
			Return(&models.AuthResponse{Token: "a.b.c", ExpiresAt: expiresAt, UserTier: "premium"}, nil).Once()

		w := doJSON(newAuthRouter(issuer), http.MethodPost, "/api/v1/auth/token",
			models.AuthRequest{APIKey: "site-premium-key", Subject: "buyer-17"})

		require.Equal(t, http.StatusOK, w.Code)
		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "a.b.c", resp.Token)
		assert.Equal(t, "premium", resp.UserTier)
		assert.True(t, expiresAt.Equal(resp.ExpiresAt))
		issuer.AssertExpectations(t)
	})

	t.Run("unknown key", func(t *testing.T) {
		issuer := new(MockTokenIssuer)
		issuer.On("IssueToken", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidAPIKey).Once()

		w := doJSON(newAuthRouter(issuer), http.MethodPost, "/api/v1/auth/token", models.AuthRequest{APIKey: "nope"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_API_KEY", decodeError(t, w).Error.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		issuer := new(MockTokenIssuer)

		w := doJSON(newAuthRouter(issuer), http.MethodPost, "/api/v1/auth/token", `{"subject":"buyer-17"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "apiKey", body.Error.Field)
		issuer.AssertNotCalled(t, "IssueToken", mock.Anything, mock.Anything)
	})

	t.Run("session store failure", func(t *testing.T) {
		issuer := new(MockTokenIssuer)
		issuer.On("IssueToken", mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()

		w := doJSON(newAuthRouter(issuer), http.MethodPost, "/api/v1/auth/token", models.AuthRequest{APIKey: "site-free-key"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "TOKEN_ISSUE_FAILED", decodeError(t, w).Error.Code)
	})
}

func TestAuthHandler_Revoke(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(issuer services.TokenIssuer, subject string) *gin.Engine {
		router := gin.New()
		router.DELETE("/api/v1/auth/token", func(c *gin.Context) {
			if subject != "" {
				c.Set("subject", subject)
			}
			c.Next()
		}, NewAuthHandler(issuer, testLogger()).Revoke)
		return router
	}

	t.Run("ends the caller's session", func(t *testing.T) {
		issuer := new(MockTokenIssuer)
		issuer.On("RevokeToken", mock.Anything, "buyer-17").Return(nil).Once()

		w := doJSON(newRouter(issuer, "buyer-17"), http.MethodDelete, "/api/v1/auth/token", nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		issuer.AssertExpectations(t)
	})

	t.Run("no authenticated subject", func(t *testing.T) {
		issuer := new(MockTokenIssuer)

		w := doJSON(newRouter(issuer, ""), http.MethodDelete, "/api/v1/auth/token", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_AUTHORIZATION")
		issuer.AssertNotCalled(t, "RevokeToken", mock.Anything, mock.Anything)
	})

	t.Run("session store failure", func(t *testing.T) {
		issuer := new(MockTokenIssuer)
		issuer.On("RevokeToken", mock.Anything, "buyer-17").Return(errors.New("redis: connection refused")).Once()

		w := doJSON(newRouter(issuer, "buyer-17"), http.MethodDelete, "/api/v1/auth/token", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_REVOKE_FAILED")
	})
}
