package docs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/temcen/vendex/internal/validation"
)

//go:embed openapi.yaml
var openAPISpec []byte

// ErrorCodeInfo documents one API error code
type ErrorCodeInfo struct {
	Code        string `json:"code"`
	HTTPStatus  int    `json:"httpStatus"`
	Description string `json:"description"`
}

// ErrorCodes lists every code the API can return.
var ErrorCodes = []ErrorCodeInfo{
	{"INSUFFICIENT_VENDORS", http.StatusBadRequest, "Fewer than two vendors were submitted"},
	{"INVALID_REQUIREMENTS", http.StatusBadRequest, "Material, quantity, budget or deadline is missing or out of range"},
	{"INVALID_WEIGHTS", http.StatusBadRequest, "Weights name an unknown criterion, are not finite, or sum to zero"},
	{"MALFORMED_VENDOR", http.StatusBadRequest, "A vendor has an empty or duplicate name or an unusable number"},
	{"UNKNOWN_PROFILE", http.StatusBadRequest, "requirements.profile names no configured weight profile"},
	{"VALIDATION_ERROR", http.StatusBadRequest, "The request body does not match its JSON schema"},
	{"INVALID_JSON", http.StatusBadRequest, "The request body is not valid JSON"},
	{"INVALID_COMPARISON_ID", http.StatusBadRequest, "The comparison id is not a UUID"},
	{"MISSING_AUTHORIZATION", http.StatusUnauthorized, "Neither a bearer token nor an X-API-Key header was sent"},
	{"INVALID_API_KEY", http.StatusUnauthorized, "The API key is not configured"},
	{"INVALID_TOKEN", http.StatusUnauthorized, "The bearer token is invalid, expired or revoked"},
	{"VENDOR_NOT_FOUND", http.StatusNotFound, "A directory bid names a vendor that is not stored"},
	{"COMPARISON_NOT_FOUND", http.StatusNotFound, "No stored comparison has this id"},
	{"RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, "The caller exceeded its tier's request window"},
	{"HISTORY_DISABLED", http.StatusNotImplemented, "Comparison history is turned off"},
	{"COMPARISON_FAILED", http.StatusInternalServerError, "Unexpected failure while comparing"},
	{"TOKEN_ISSUE_FAILED", http.StatusInternalServerError, "The token could not be signed"},
	{"TOKEN_REVOKE_FAILED", http.StatusInternalServerError, "The session store could not end the session"},
}

// Handler serves the API description.
type Handler struct {
	specJSON []byte
}

// NewHandler converts the embedded OpenAPI document to JSON once.
func NewHandler() (*Handler, error) {
	var spec map[string]interface{}
	if err := yaml.Unmarshal(openAPISpec, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse openapi.yaml: %w", err)
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to convert openapi.yaml: %w", err)
	}

	return &Handler{specJSON: specJSON}, nil
}

// RegisterRoutes registers documentation routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	docs := router.Group("/docs")
	{
		docs.GET("/openapi.yaml", h.OpenAPISpec)
		docs.GET("/openapi.json", h.OpenAPISpecJSON)
		docs.GET("/errors", h.Errors)
		docs.GET("/schemas/:name", h.Schema)
	}
}

func (h *Handler) OpenAPISpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/x-yaml", openAPISpec)
}

func (h *Handler) OpenAPISpecJSON(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", h.specJSON)
}

func (h *Handler) Errors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"errors": ErrorCodes})
}

// Schema serves the JSON schema a request body is validated against.
func (h *Handler) Schema(c *gin.Context) {
	schema, ok := validation.SchemaDocument(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "SCHEMA_NOT_FOUND",
				"message": "Unknown schema",
			},
		})
		return
	}
	c.Data(http.StatusOK, "application/schema+json", schema)
}
