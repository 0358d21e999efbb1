package services

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.RateLimit = config.RateLimitConfig{Default: 3, Premium: 5, Window: time.Minute}
	cfg.Auth.APIKeys = map[string]string{
		"site-free-key":    "free",
		"site-premium-key": "premium",
	}
	return cfg
}

func floatPtr(v float64) *float64 {
	return &v
}

func sampleRequest() *models.ComparisonRequest {
	return &models.ComparisonRequest{
		Vendors: []models.VendorCandidate{
			{Name: "Shree Cement Depot", Pricing: models.Pricing{UnitPrice: 380}, LeadTimeDays: 3, Capacity: floatPtr(800)},
			{Name: "Ambuja Traders", Pricing: models.Pricing{UnitPrice: 420}, LeadTimeDays: 2, Capacity: floatPtr(1000)},
		},
		Requirements: models.Requirements{Material: "OPC 53 cement", Quantity: 500},
	}
}
