package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/internal/handlers"
	"github.com/temcen/vendex/internal/scoring"
	"github.com/temcen/vendex/internal/services"
	"github.com/temcen/vendex/internal/validation"
	"github.com/temcen/vendex/pkg/models"
)

type testServer struct {
	router *gin.Engine
	redis  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "app-test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.RateLimit = config.RateLimitConfig{Default: 50, Premium: 100, Window: time.Minute}
	cfg.Auth.APIKeys = map[string]string{"site-free-key": "free"}
	cfg.Monitoring.Enabled = true
	cfg.Monitoring.MetricsPath = "/metrics"

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	reg := prometheus.NewRegistry()
	metrics := services.NewMetricsCollector(reg)
	svc := &services.Services{
		Auth:      services.NewAuthService(cfg, logger, redisClient),
		RateLimit: services.NewRateLimitService(cfg, logger, redisClient),
		Health: services.NewHealthService(logger, reg, map[string]services.HealthCheck{
			"redis_hot": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}, nil),
		Metrics: metrics,
		Comparison: services.NewComparisonService(scoring.NewDefaultEngine(), services.ComparisonOptions{
			Cache:    redisClient,
			CacheTTL: time.Minute,
			Metrics:  metrics,
		}, logger),
	}

	validator, err := validation.NewEmbeddedSchemaValidator()
	require.NoError(t, err)

	router := newRouter(cfg, logger, svc, handlers.New(logger, svc, reg), validator)
	return &testServer{router: router, redis: mr}
}

func (s *testServer) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

var apiKey = map[string]string{"X-API-Key": "site-free-key"}

func ptr[T any](v T) *T {
	return &v
}

func cementRequest() models.ComparisonRequest {
	return models.ComparisonRequest{
		Vendors: []models.VendorCandidate{
			{
				Name:           "Shree Cement Depot",
				Pricing:        models.Pricing{UnitPrice: 380, Currency: "INR"},
				Rating:         ptr(4.4),
				LeadTimeDays:   4,
				Capacity:       ptr(1000.0),
				Certifications: []string{"BIS", "ISO 9001"},
			},
			{
				Name:           "Ambuja Traders",
				Pricing:        models.Pricing{UnitPrice: 420, Currency: "INR"},
				Rating:         ptr(4.1),
				LeadTimeDays:   2,
				Capacity:       ptr(800.0),
				Certifications: []string{"BIS"},
			},
		},
		Requirements: models.Requirements{Material: "OPC 53 cement", Quantity: 500},
	}
}

func TestCompareEndToEnd(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodPost, "/api/v1/procurement/compare", cementRequest(), apiKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var first models.ComparisonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.False(t, first.CacheHit)
	require.Len(t, first.Vendors, 2)
	assert.Equal(t, first.Vendors[0].Name, first.TopVendor.Name)
	assert.Equal(t, 1, first.Vendors[0].Rank)
	assert.Equal(t, 2, first.Vendors[1].Rank)
	assert.Equal(t, "default", first.Profile)
	assert.NotEmpty(t, first.Recommendations)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.True(t, server.redis.Exists("comparison:"+first.ComparisonID.String()))

	w = server.do(http.MethodPost, "/api/v1/procurement/compare", cementRequest(), apiKey)
	require.Equal(t, http.StatusOK, w.Code)

	var second models.ComparisonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.ComparisonID, second.ComparisonID)
	assert.Equal(t, first.TopVendor, second.TopVendor)
}

func TestCompareErrorsThroughRouter(t *testing.T) {
	server := newTestServer(t)

	single := cementRequest()
	single.Vendors = single.Vendors[:1]

	zeroQuantity := cementRequest()
	zeroQuantity.Requirements.Quantity = 0

	tests := []struct {
		name           string
		body           interface{}
		headers        map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{"no credentials", cementRequest(), nil, http.StatusUnauthorized, "MISSING_AUTHORIZATION"},
		{"single vendor", single, apiKey, http.StatusBadRequest, "INSUFFICIENT_VENDORS"},
		{"zero quantity", zeroQuantity, apiKey, http.StatusBadRequest, "INVALID_REQUIREMENTS"},
		{"schema violation", `{"vendors":{},"requirements":{}}`, apiKey, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"broken JSON", `{"vendors":[`, apiKey, http.StatusBadRequest, "INVALID_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := server.do(http.MethodPost, "/api/v1/procurement/compare", tt.body, tt.headers)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedCode, body.Error.Code)
		})
	}
}

func TestTokenFlow(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodPost, "/api/v1/auth/token", models.AuthRequest{APIKey: "site-free-key", Subject: "site-office-3"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var token models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	assert.Equal(t, "free", token.UserTier)

	w = server.do(http.MethodGet, "/api/v1/procurement/profiles", nil, map[string]string{"Authorization": "Bearer " + token.Token})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Profiles []models.WeightProfileView `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	names := make([]string, 0, len(body.Profiles))
	for _, p := range body.Profiles {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"cost_focused", "default", "quality_focused", "urgent"}, names)

	w = server.do(http.MethodPost, "/api/v1/auth/token", `{"apiKey":"site-free-key","role":"admin"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bearer := map[string]string{"Authorization": "Bearer " + token.Token}
	w = server.do(http.MethodDelete, "/api/v1/auth/token", nil, bearer)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = server.do(http.MethodGet, "/api/v1/procurement/profiles", nil, bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")

	w = server.do(http.MethodDelete, "/api/v1/auth/token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHistoryDisabledWithoutStore(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodGet, "/api/v1/procurement/comparisons/0b8f3c2e-6a51-4d0e-9f7b-2c4d5e6f7a80", nil, apiKey)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = server.do(http.MethodGet, "/api/v1/procurement/comparisons/latest", nil, apiKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	server.do(http.MethodPost, "/api/v1/procurement/compare", cementRequest(), apiKey)

	w = server.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vendex_comparison_requests_total{outcome="computed"} 1`)
	assert.Contains(t, w.Body.String(), "health_check_status")
}
