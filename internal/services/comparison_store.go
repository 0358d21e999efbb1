package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/pkg/models"
)

var ErrComparisonNotFound = errors.New("comparison not found")

// ComparisonStore keeps comparison results in the comparisons table.
type ComparisonStore struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewComparisonStore(db DatabaseQuerier, logger *logrus.Logger) *ComparisonStore {
	return &ComparisonStore{
		db:     db,
		logger: logger,
	}
}

// Save inserts record. Comparison ids are derived from the request, so a
// repeated request is a no-op.
func (s *ComparisonStore) Save(ctx context.Context, record *models.ComparisonRecord) error {
	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison result: %w", err)
	}

	query := `
		INSERT INTO comparisons (id, material, quantity, top_vendor, vendor_count, profile, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := s.db.Exec(ctx, query,
		record.ID,
		record.Material,
		record.Quantity,
		record.TopVendor,
		record.VendorCount,
		record.Profile,
		result,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save comparison: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"comparison_id": record.ID,
		"inserted":      tag.RowsAffected() > 0,
	}).Debug("Comparison stored")

	return nil
}

func (s *ComparisonStore) Get(ctx context.Context, id uuid.UUID) (*models.ComparisonRecord, error) {
	query := `
		SELECT id, material, quantity, top_vendor, vendor_count, profile, result, created_at
		FROM comparisons
		WHERE id = $1
	`

	var record models.ComparisonRecord
	var result []byte
	err := s.db.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.Material,
		&record.Quantity,
		&record.TopVendor,
		&record.VendorCount,
		&record.Profile,
		&result,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrComparisonNotFound
		}
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}

	if err := json.Unmarshal(result, &record.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison result: %w", err)
	}

	return &record, nil
}
