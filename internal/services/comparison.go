package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/messaging"
	"github.com/temcen/vendex/internal/scoring"
	"github.com/temcen/vendex/pkg/models"
)

// comparisonNamespace scopes deterministic comparison ids.
var comparisonNamespace = uuid.MustParse("6f0c5b6e-2f57-4a8e-9d43-5b1f0e7c9a21")

var ErrHistoryDisabled = errors.New("comparison history is disabled")

// ComparisonService runs the scoring engine and handles caching, history and
// events around it. Only the engine can fail a comparison.
type ComparisonService struct {
	engine    *scoring.Engine
	store     ComparisonStoreInterface
	directory VendorDirectoryInterface
	publisher EventPublisher
	cache     *redis.Client // warm cache
	cacheTTL  time.Duration
	metrics   *MetricsCollector
	logger    *logrus.Logger
	now       func() time.Time
}

type ComparisonOptions struct {
	Store     ComparisonStoreInterface
	Directory VendorDirectoryInterface
	Publisher EventPublisher
	Cache     *redis.Client
	CacheTTL  time.Duration
	Metrics   *MetricsCollector
}

func NewComparisonService(engine *scoring.Engine, opts ComparisonOptions, logger *logrus.Logger) *ComparisonService {
	return &ComparisonService{
		engine:    engine,
		store:     opts.Store,
		directory: opts.Directory,
		publisher: opts.Publisher,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// ComparisonID derives a stable id from the request content and the
// effective weights it resolves to, so a changed profile yields a new id.
func ComparisonID(req *models.ComparisonRequest, weights map[models.Criterion]float64) (uuid.UUID, error) {
	data, err := json.Marshal(struct {
		Request *models.ComparisonRequest    `json:"request"`
		Weights map[models.Criterion]float64 `json:"weights"`
	}{req, weights})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal comparison request: %w", err)
	}
	return uuid.NewSHA1(comparisonNamespace, data), nil
}

func (s *ComparisonService) Compare(ctx context.Context, req *models.ComparisonRequest) (*models.ComparisonResponse, error) {
	start := s.now()

	weights, _, err := s.engine.ResolveWeights(req.Requirements)
	if err != nil {
		// The engine reports input errors in its own order.
		_, err = s.engine.Compare(req.Requirements, req.Vendors)
		return nil, s.failed(err, start)
	}

	id, err := ComparisonID(req, weights)
	if err != nil {
		s.record(OutcomeError, start)
		return nil, err
	}

	if cached, err := s.getCached(ctx, id); err == nil {
		s.logger.WithField("comparison_id", id).Debug("Comparison cache hit")
		s.record(OutcomeCached, start)
		return cached, nil
	}

	result, err := s.engine.Compare(req.Requirements, req.Vendors)
	if err != nil {
		return nil, s.failed(err, start)
	}

	response := &models.ComparisonResponse{
		ComparisonID:     id,
		ComparisonResult: result,
		GeneratedAt:      s.now().UTC(),
	}

	s.cacheResponse(ctx, response)
	s.saveHistory(ctx, req.Requirements, response)
	s.publish(ctx, req.Requirements, response)

	if s.metrics != nil {
		s.metrics.RecordResult(result)
	}
	s.record(OutcomeComputed, start)

	s.logger.WithFields(logrus.Fields{
		"comparison_id": id,
		"material":      req.Requirements.Material,
		"vendors":       len(result.Vendors),
		"top_vendor":    result.TopVendor.Name,
		"profile":       result.Profile,
	}).Info("Comparison completed")

	return response, nil
}

// CompareDirectory merges bids with stored vendor attributes and compares them.
func (s *ComparisonService) CompareDirectory(ctx context.Context, req *models.DirectoryComparisonRequest) (*models.ComparisonResponse, error) {
	if s.directory == nil {
		return nil, fmt.Errorf("vendor directory is not configured")
	}

	ids := make([]uuid.UUID, len(req.Bids))
	for i, bid := range req.Bids {
		ids[i] = bid.VendorID
	}

	vendors, err := s.directory.GetVendors(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.VendorCandidate, len(req.Bids))
	for i, bid := range req.Bids {
		vendor, ok := vendors[bid.VendorID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrVendorNotFound, bid.VendorID)
		}
		candidates[i] = vendor.ToCandidate(bid)
	}

	return s.Compare(ctx, &models.ComparisonRequest{
		Vendors:      candidates,
		Requirements: req.Requirements,
	})
}

func (s *ComparisonService) GetComparison(ctx context.Context, id uuid.UUID) (*models.ComparisonRecord, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	return s.store.Get(ctx, id)
}

func (s *ComparisonService) Profiles() []models.WeightProfileView {
	return s.engine.Profiles()
}

func (s *ComparisonService) getCached(ctx context.Context, id uuid.UUID) (*models.ComparisonResponse, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("cache not available")
	}

	cached, err := s.cache.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var response models.ComparisonResponse
	if err := json.Unmarshal(cached, &response); err != nil {
		return nil, err
	}

	response.CacheHit = true
	return &response, nil
}

func (s *ComparisonService) cacheResponse(ctx context.Context, response *models.ComparisonResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	data, err := json.Marshal(response)
	if err == nil {
		err = s.cache.Set(ctx, cacheKey(response.ComparisonID), data, s.cacheTTL).Err()
	}
	if err != nil {
		s.sideEffectFailed("cache", response.ComparisonID, err)
	}
}

func (s *ComparisonService) saveHistory(ctx context.Context, req models.Requirements, response *models.ComparisonResponse) {
	if s.store == nil {
		return
	}

	record := &models.ComparisonRecord{
		ID:          response.ComparisonID,
		Material:    req.Material,
		Quantity:    req.Quantity,
		TopVendor:   response.TopVendor.Name,
		VendorCount: len(response.Vendors),
		Profile:     response.Profile,
		Result:      response.ComparisonResult,
		CreatedAt:   response.GeneratedAt,
	}

	if err := s.store.Save(ctx, record); err != nil {
		s.sideEffectFailed("history", response.ComparisonID, err)
	}
}

func (s *ComparisonService) publish(ctx context.Context, req models.Requirements, response *models.ComparisonResponse) {
	if s.publisher == nil {
		return
	}

	event := messaging.NewComparisonEvent(response.ComparisonID, req, response.ComparisonResult, response.GeneratedAt)
	if err := s.publisher.PublishComparison(ctx, event); err != nil {
		s.sideEffectFailed("events", response.ComparisonID, err)
	}
}

func (s *ComparisonService) sideEffectFailed(target string, id uuid.UUID, err error) {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"comparison_id": id,
		"target":        target,
	}).Warn("Comparison side effect failed")

	if s.metrics != nil {
		s.metrics.RecordSideEffectFailure(target)
	}
}

func (s *ComparisonService) failed(err error, start time.Time) error {
	var inputErr scoring.InputError
	if errors.As(err, &inputErr) {
		s.record(OutcomeInvalid, start)
	} else {
		s.record(OutcomeError, start)
	}
	return err
}

func (s *ComparisonService) record(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest(outcome, s.now().Sub(start))
	}
}

func cacheKey(id uuid.UUID) string {
	return "comparison:" + id.String()
}
