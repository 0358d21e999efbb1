package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/scoring"
	"github.com/temcen/vendex/internal/services"
	"github.com/temcen/vendex/pkg/models"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ComparisonHandler struct {
	service services.ComparisonServiceInterface
	logger  *logrus.Logger
}

func NewComparisonHandler(service services.ComparisonServiceInterface, logger *logrus.Logger) *ComparisonHandler {
	return &ComparisonHandler{
		service: service,
		logger:  logger,
	}
}

// Compare handles POST /procurement/compare
func (h *ComparisonHandler) Compare(c *gin.Context) {
	var req models.ComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_JSON", "Request body must be a comparison request: "+err.Error(), ""))
		return
	}

	response, err := h.service.Compare(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// CompareDirectory handles POST /procurement/compare/directory
func (h *ComparisonHandler) CompareDirectory(c *gin.Context) {
	var req models.DirectoryComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_JSON", "Request body must be a directory comparison request: "+err.Error(), ""))
		return
	}
	if err := structValidator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, validationErrorResponse(err))
		return
	}

	response, err := h.service.CompareDirectory(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetComparison handles GET /procurement/comparisons/:comparisonId
func (h *ComparisonHandler) GetComparison(c *gin.Context) {
	id, err := uuid.Parse(c.Param("comparisonId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_COMPARISON_ID", "Comparison ID must be a valid UUID", "comparisonId"))
		return
	}

	record, err := h.service.GetComparison(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Profiles handles GET /procurement/profiles
func (h *ComparisonHandler) Profiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.service.Profiles()})
}

func (h *ComparisonHandler) writeError(c *gin.Context, err error) {
	var inputErr scoring.InputError
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, errorResponse(string(inputErr.Code()), inputErr.Error(), inputErr.Field()))
	case errors.Is(err, services.ErrVendorNotFound):
		c.JSON(http.StatusNotFound, errorResponse("VENDOR_NOT_FOUND", err.Error(), "bids"))
	case errors.Is(err, services.ErrComparisonNotFound):
		c.JSON(http.StatusNotFound, errorResponse("COMPARISON_NOT_FOUND", "Comparison not found", "comparisonId"))
	case errors.Is(err, services.ErrHistoryDisabled):
		c.JSON(http.StatusNotImplemented, errorResponse("HISTORY_DISABLED", "Comparison history is disabled", ""))
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Comparison request failed")
		c.JSON(http.StatusInternalServerError, errorResponse("COMPARISON_FAILED", "Failed to compare vendors", ""))
	}
}

// validationErrorResponse reports the first failing struct field by its
// JSON path.
func validationErrorResponse(err error) gin.H {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errorResponse("VALIDATION_ERROR", err.Error(), "")
	}

	first := fieldErrs[0]
	field := first.Namespace()
	if _, rest, found := strings.Cut(field, "."); found {
		field = rest
	}

	message := field + " failed '" + first.Tag() + "' validation"
	if first.Param() != "" {
		message = field + " failed '" + first.Tag() + "=" + first.Param() + "' validation"
	}
	return errorResponse("VALIDATION_ERROR", message, field)
}
