package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/vendex/internal/scoring"
	"github.com/temcen/vendex/internal/services"
	"github.com/temcen/vendex/pkg/models"
)

type MockComparisonService struct {
	mock.Mock
}

func (m *MockComparisonService) Compare(ctx context.Context, req *models.ComparisonRequest) (*models.ComparisonResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComparisonResponse), args.Error(1)
}

func (m *MockComparisonService) CompareDirectory(ctx context.Context, req *models.DirectoryComparisonRequest) (*models.ComparisonResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComparisonResponse), args.Error(1)
}

func (m *MockComparisonService) GetComparison(ctx context.Context, id uuid.UUID) (*models.ComparisonRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComparisonRecord), args.Error(1)
}

func (m *MockComparisonService) Profiles() []models.WeightProfileView {
	args := m.Called()
	return args.Get(0).([]models.WeightProfileView)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func newComparisonRouter(service services.ComparisonServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewComparisonHandler(service, testLogger())
	router := gin.New()
	router.POST("/api/v1/procurement/compare", handler.Compare)
	router.POST("/api/v1/procurement/compare/directory", handler.CompareDirectory)
	router.GET("/api/v1/procurement/comparisons/:comparisonId", handler.GetComparison)
	router.GET("/api/v1/procurement/profiles", handler.Profiles)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleResponse() *models.ComparisonResponse {
	top := models.VendorScoreResult{Name: "Shree Cement", TotalScore: 81.25, Rank: 1, UnitPrice: 380, TotalCost: 190000}
	return &models.ComparisonResponse{
		ComparisonID: uuid.New(),
		ComparisonResult: &models.ComparisonResult{
			Vendors:   []models.VendorScoreResult{top, {Name: "Ambuja", TotalScore: 62.5, Rank: 2, UnitPrice: 420, TotalCost: 210000}},
			TopVendor: top,
			Recommendations: []models.Recommendation{
				{Type: scoring.RecommendationWellBalanced, Title: "Selection is well-balanced", Priority: models.PriorityLow},
			},
			Profile: "default",
		},
		GeneratedAt: time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestComparisonHandler_Compare(t *testing.T) {
	service := new(MockComparisonService)
	router := newComparisonRouter(service)

	request := models.ComparisonRequest{
		Vendors: []models.VendorCandidate{
			{Name: "Shree Cement", Pricing: models.Pricing{UnitPrice: 380}, LeadTimeDays: 5},
			{Name: "Ambuja", Pricing: models.Pricing{UnitPrice: 420}, LeadTimeDays: 3},
		},
		Requirements: models.Requirements{Material: "OPC 53 cement", Quantity: 500},
	}
	response := sampleResponse()

	service.On("Compare", mock.Anything, mock.MatchedBy(func(req *models.ComparisonRequest) bool {
		return len(req.Vendors) == 2 && req.Requirements.Material == "OPC 53 cement"
	})).Return(response, nil).Once()

	w := doJSON(router, http.MethodPost, "/api/v1/procurement/compare", request)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, response.ComparisonID.String(), body["comparisonId"])
	assert.Equal(t, "Shree Cement", body["topVendor"].(map[string]interface{})["name"])
	assert.Len(t, body["vendors"], 2)
	assert.Equal(t, false, body["cacheHit"])

	service.AssertExpectations(t)
}

func TestComparisonHandler_CompareErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedField  string
	}{
		{
			name:           "insufficient vendors",
			err:            &scoring.InsufficientVendorsError{Count: 1},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INSUFFICIENT_VENDORS",
			expectedField:  "vendors",
		},
		{
			name:           "invalid requirements",
			err:            &scoring.InvalidRequirementsError{FieldName: "quantity", Reason: "must be greater than 0"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUIREMENTS",
			expectedField:  "requirements.quantity",
		},
		{
			name:           "invalid weights",
			err:            &scoring.InvalidWeightsError{Reason: "all weights are zero"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_WEIGHTS",
			expectedField:  "requirements.weights",
		},
		{
			name:           "malformed vendor",
			err:            &scoring.MalformedVendorError{Index: 1, Vendor: "Ambuja", FieldName: "pricing.unitPrice", Reason: "must not be negative"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "MALFORMED_VENDOR",
			expectedField:  "vendors[1].pricing.unitPrice",
		},
		{
			name:           "wrapped unknown profile",
			err:            fmt.Errorf("resolve weights: %w", &scoring.UnknownProfileError{Profile: "monsoon"}),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "UNKNOWN_PROFILE",
			expectedField:  "requirements.profile",
		},
		{
			name:           "unexpected failure",
			err:            fmt.Errorf("marshal: boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "COMPARISON_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockComparisonService)
			router := newComparisonRouter(service)
			service.On("Compare", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := doJSON(router, http.MethodPost, "/api/v1/procurement/compare", models.ComparisonRequest{})

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, body.Error.Code)
			assert.Equal(t, tt.expectedField, body.Error.Field)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestComparisonHandler_CompareInvalidJSON(t *testing.T) {
	service := new(MockComparisonService)
	router := newComparisonRouter(service)

	w := doJSON(router, http.MethodPost, "/api/v1/procurement/compare", `{"vendors": [`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", decodeError(t, w).Error.Code)
	service.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything)
}

func TestComparisonHandler_CompareDirectory(t *testing.T) {
	vendorID := uuid.MustParse("6f1c2f4e-2b7a-4c43-9a55-1d9b3c2f8e01")

	t.Run("valid bids", func(t *testing.T) {
		service := new(MockComparisonService)
		router := newComparisonRouter(service)
		service.On("CompareDirectory", mock.Anything, mock.MatchedBy(func(req *models.DirectoryComparisonRequest) bool {
			return len(req.Bids) == 2 && req.Bids[0].VendorID == vendorID
		})).Return(sampleResponse(), nil).Once()

		w := doJSON(router, http.MethodPost, "/api/v1/procurement/compare/directory", models.DirectoryComparisonRequest{
			Bids: []models.VendorBid{
				{VendorID: vendorID, UnitPrice: 380, LeadTimeDays: 5},
				{VendorID: uuid.New(), UnitPrice: 420, LeadTimeDays: 3},
			},
			Requirements: models.Requirements{Material: "OPC 53 cement", Quantity: 500},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		service.AssertExpectations(t)
	})

	t.Run("missing vendor id", func(t *testing.T) {
		service := new(MockComparisonService)
		router := newComparisonRouter(service)

		w := doJSON(router, http.MethodPost, "/api/v1/procurement/compare/directory",
			`{"bids":[{"unitPrice":380}],"requirements":{"material":"OPC 53 cement","quantity":500}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "bids[0].vendorId", body.Error.Field)
		service.AssertNotCalled(t, "CompareDirectory", mock.Anything, mock.Anything)
	})

	t.Run("negative bid price", func(t *testing.T) {
		service := new(MockComparisonService)
		router := newComparisonRouter(service)

		w := doJSON(router, http.MethodPost, "/api/v1/procurement/compare/directory", models.DirectoryComparisonRequest{
			Bids:         []models.VendorBid{{VendorID: vendorID, UnitPrice: -5}},
			Requirements: models.Requirements{Material: "OPC 53 cement", Quantity: 500},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bids[0].unitPrice", decodeError(t, w).Error.Field)
	})

	t.Run("unknown vendor", func(t *testing.T) {
		service := new(MockComparisonService)
		router := newComparisonRouter(service)
		service.On("CompareDirectory", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: %s", services.ErrVendorNotFound, vendorID)).Once()

		w := doJSON(router, http.MethodPost, "/api/v1/procurement/compare/directory", models.DirectoryComparisonRequest{
			Bids:         []models.VendorBid{{VendorID: vendorID, UnitPrice: 380}},
			Requirements: models.Requirements{Material: "OPC 53 cement", Quantity: 500},
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "VENDOR_NOT_FOUND", body.Error.Code)
		assert.Contains(t, body.Error.Message, vendorID.String())
	})
}

func TestComparisonHandler_GetComparison(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		path           string
		record         *models.ComparisonRecord
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "stored comparison",
			path:           id.String(),
			record:         &models.ComparisonRecord{ID: id, Material: "OPC 53 cement", TopVendor: "Shree Cement", VendorCount: 2},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown comparison",
			path:           id.String(),
			err:            services.ErrComparisonNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "COMPARISON_NOT_FOUND",
		},
		{
			name:           "history disabled",
			path:           id.String(),
			err:            services.ErrHistoryDisabled,
			expectedStatus: http.StatusNotImplemented,
			expectedCode:   "HISTORY_DISABLED",
		},
		{
			name:           "invalid id",
			path:           "not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_COMPARISON_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockComparisonService)
			router := newComparisonRouter(service)
			if tt.record != nil || tt.err != nil {
				service.On("GetComparison", mock.Anything, id).Return(tt.record, tt.err).Once()
			}

			w := doJSON(router, http.MethodGet, "/api/v1/procurement/comparisons/"+tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error.Code)
				return
			}

			var record models.ComparisonRecord
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
			assert.Equal(t, id, record.ID)
			assert.Equal(t, "Shree Cement", record.TopVendor)
		})
	}
}

func TestComparisonHandler_Profiles(t *testing.T) {
	service := new(MockComparisonService)
	router := newComparisonRouter(service)
	service.On("Profiles").Return([]models.WeightProfileView{
		{Name: "default", Default: true, Weights: map[models.Criterion]float64{models.CriterionPrice: 100}},
		{Name: "urgent"},
	})

	w := doJSON(router, http.MethodGet, "/api/v1/procurement/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Profiles []models.WeightProfileView `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Profiles, 2)
	assert.True(t, body.Profiles[0].Default)
	assert.Equal(t, 100.0, body.Profiles[0].Weights[models.CriterionPrice])
}
