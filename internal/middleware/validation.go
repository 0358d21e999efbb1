package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/temcen/vendex/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ValidationMiddleware checks request shape before handlers bind it.
type ValidationMiddleware struct {
	validator *validation.SchemaValidator
}

func NewValidationMiddleware(validator *validation.SchemaValidator) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validator,
	}
}

func (vm *ValidationMiddleware) ValidateCompareRequest() gin.HandlerFunc {
	return vm.validateRequestBody(validation.CompareRequestSchema)
}

func (vm *ValidationMiddleware) ValidateDirectoryCompareRequest() gin.HandlerFunc {
	return vm.validateRequestBody(validation.DirectoryCompareRequestSchema)
}

func (vm *ValidationMiddleware) ValidateAuthRequest() gin.HandlerFunc {
	return vm.validateRequestBody(validation.AuthRequestSchema)
}

// validateRequestBody validates the request body against a schema
func (vm *ValidationMiddleware) validateRequestBody(schemaName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			vm.sendValidationError(c, "BODY_READ_ERROR", "Failed to read request body", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}

		// Restore request body for downstream handlers
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		if len(bytes.TrimSpace(bodyBytes)) == 0 {
			vm.sendValidationError(c, "EMPTY_BODY", "Request body is required", nil)
			return
		}

		if !json.Valid(bodyBytes) {
			vm.sendValidationError(c, "INVALID_JSON", "Request body must be valid JSON", nil)
			return
		}

		result := vm.validator.ValidateJSON(schemaName, bodyBytes)
		if !result.Valid {
			apiError := result.ToAPIError()
			if errorObj, ok := apiError["error"].(map[string]interface{}); ok {
				vm.stamp(c, errorObj)
			}

			c.AbortWithStatusJSON(http.StatusBadRequest, apiError)
			return
		}

		c.Next()
	}
}

// ValidatePathParams validates identifiers in the route path.
func (vm *ValidationMiddleware) ValidatePathParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		errors := make([]validation.ValidationError, 0)

		if comparisonID := c.Param("comparisonId"); comparisonID != "" {
			if _, err := uuid.Parse(comparisonID); err != nil {
				errors = append(errors, validation.ValidationError{
					Field:   "comparisonId",
					Message: "Comparison ID must be a valid UUID",
					Code:    "INVALID_PATH_PARAM",
					Value:   comparisonID,
				})
			}
		}

		if len(errors) > 0 {
			vm.sendValidationErrors(c, errors)
			return
		}

		c.Next()
	}
}

// ValidateHeaders validates required headers
func (vm *ValidationMiddleware) ValidateHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		errors := make([]validation.ValidationError, 0)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := c.GetHeader("Content-Type")
			if contentType == "" {
				errors = append(errors, validation.ValidationError{
					Field:   "Content-Type",
					Message: "Content-Type header is required",
					Code:    "MISSING_HEADER",
				})
			} else if !strings.Contains(contentType, "application/json") {
				errors = append(errors, validation.ValidationError{
					Field:   "Content-Type",
					Message: "Content-Type must be application/json",
					Code:    "INVALID_HEADER",
					Value:   contentType,
				})
			}
		}

		if len(errors) > 0 {
			vm.sendValidationErrors(c, errors)
			return
		}

		c.Next()
	}
}

func (vm *ValidationMiddleware) stamp(c *gin.Context, errorObj map[string]interface{}) {
	errorObj["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	errorObj["requestId"] = requestID(c)
	errorObj["path"] = c.Request.URL.Path
	errorObj["method"] = c.Request.Method
}

func (vm *ValidationMiddleware) sendValidationError(c *gin.Context, code, message string, details map[string]interface{}) {
	errorObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if details != nil {
		errorObj["details"] = details
	}
	vm.stamp(c, errorObj)

	c.AbortWithStatusJSON(http.StatusBadRequest, map[string]interface{}{"error": errorObj})
}

func (vm *ValidationMiddleware) sendValidationErrors(c *gin.Context, errors []validation.ValidationError) {
	result := &validation.ValidationResult{Valid: false, Errors: errors}
	apiError := result.ToAPIError()
	if errorObj, ok := apiError["error"].(map[string]interface{}); ok {
		errorObj["code"] = errors[0].Code
		vm.stamp(c, errorObj)
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, apiError)
}
