package services

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/internal/database"
	"github.com/temcen/vendex/internal/messaging"
)

type Services struct {
	Auth       *AuthService
	Health     *HealthService
	RateLimit  *RateLimitService
	MessageBus *messaging.MessageBus
	Metrics    *MetricsCollector
	Comparison *ComparisonService
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	engine, err := cfg.Scoring.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring engine: %w", err)
	}

	authService := NewAuthService(cfg, logger, db.Redis.Hot)
	rateLimitService := NewRateLimitService(cfg, logger, db.Redis.Hot)

	critical, nonCritical := DatabaseHealthChecks(db)
	healthService := NewHealthService(logger, prometheus.DefaultRegisterer, critical, nonCritical)
	metrics := NewMetricsCollector(prometheus.DefaultRegisterer)

	opts := ComparisonOptions{
		Directory: NewVendorDirectory(db.PG, logger),
		Cache:     db.Redis.Warm,
		CacheTTL:  cfg.Scoring.CacheTTL,
		Metrics:   metrics,
	}

	if cfg.Scoring.HistoryEnabled {
		opts.Store = NewComparisonStore(db.PG, logger)
	}

	var messageBus *messaging.MessageBus
	if cfg.Kafka.Enabled {
		messageBus = messaging.NewMessageBus(cfg, logger)
		opts.Publisher = messageBus
	}

	return &Services{
		Auth:       authService,
		Health:     healthService,
		RateLimit:  rateLimitService,
		MessageBus: messageBus,
		Metrics:    metrics,
		Comparison: NewComparisonService(engine, opts, logger),
	}, nil
}

func (s *Services) Close() error {
	if s.MessageBus != nil {
		return s.MessageBus.Close()
	}
	return nil
}
