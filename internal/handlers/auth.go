package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/middleware"
	"github.com/temcen/vendex/internal/services"
	"github.com/temcen/vendex/pkg/models"
)

type AuthHandler struct {
	issuer services.TokenIssuer
	logger *logrus.Logger
}

func NewAuthHandler(issuer services.TokenIssuer, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		issuer: issuer,
		logger: logger,
	}
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_JSON", "Request body must be a JSON object with an apiKey", ""))
		return
	}
	if err := structValidator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, validationErrorResponse(err))
		return
	}

	resp, err := h.issuer.IssueToken(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			c.JSON(http.StatusUnauthorized, errorResponse("INVALID_API_KEY", "Invalid API key", "apiKey"))
			return
		}
		h.logger.WithError(err).Error("Failed to issue token")
		c.JSON(http.StatusInternalServerError, errorResponse("TOKEN_ISSUE_FAILED", "Failed to issue token", ""))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Revoke handles DELETE /auth/token. It ends the caller's session, so the
// bearer token stops validating before it expires.
func (h *AuthHandler) Revoke(c *gin.Context) {
	subject, _ := middleware.GetSubjectFromContext(c)
	if subject == "" {
		c.JSON(http.StatusUnauthorized, errorResponse("MISSING_AUTHORIZATION", "Authentication required", ""))
		return
	}

	if err := h.issuer.RevokeToken(c.Request.Context(), subject); err != nil {
		h.logger.WithError(err).WithField("subject", subject).Error("Failed to revoke token")
		c.JSON(http.StatusInternalServerError, errorResponse("TOKEN_REVOKE_FAILED", "Failed to revoke token", ""))
		return
	}

	h.logger.WithField("subject", subject).Info("Session revoked")
	c.Status(http.StatusNoContent)
}
