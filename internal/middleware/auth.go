package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/services"
)

const (
	APIKeyHeader = "X-API-Key"

	subjectKey  = "subject"
	userTierKey = "user_tier"
)

// Auth accepts either a bearer JWT issued by /auth/token or a raw API key,
// passed as "Bearer <key>" or in X-API-Key.
func Auth(authService *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.GetHeader(APIKeyHeader)
		if credential == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				abortUnauthorized(c, "MISSING_AUTHORIZATION", "Authorization header or X-API-Key is required")
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" || token == "" {
				abortUnauthorized(c, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
				return
			}
			credential = token
		}

		// API keys never contain dots; JWTs always do.
		if !strings.Contains(credential, ".") {
			userTier, err := authService.ValidateAPIKey(credential)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				abortUnauthorized(c, "INVALID_API_KEY", "Invalid API key")
				return
			}

			c.Set(subjectKey, services.APIKeySubject(credential))
			c.Set(userTierKey, userTier)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), credential)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Set(userTierKey, claims.UserTier)
		c.Next()
	}
}

// GetSubjectFromContext returns the authenticated subject and tier.
func GetSubjectFromContext(c *gin.Context) (subject, userTier string) {
	return c.GetString(subjectKey), c.GetString(userTierKey)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
