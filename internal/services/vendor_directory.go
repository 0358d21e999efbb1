package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/pkg/models"
)

var ErrVendorNotFound = errors.New("vendor not found")

// VendorDirectory reads vendor master data from the vendors table.
type VendorDirectory struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewVendorDirectory(db DatabaseQuerier, logger *logrus.Logger) *VendorDirectory {
	return &VendorDirectory{
		db:     db,
		logger: logger,
	}
}

// GetVendors returns the requested vendors keyed by id. Ids with no record
// are absent from the map.
func (d *VendorDirectory) GetVendors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.DirectoryVendor, error) {
	query := `
		SELECT id, name, location, rating, years_in_business, payment_term_days,
		       certifications, documents, defect_rate, return_rate,
		       on_time_rate, average_delay, success_rate, total_orders, penalties
		FROM vendors
		WHERE id = ANY($1)
	`

	rows, err := d.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	vendors := make(map[uuid.UUID]models.DirectoryVendor, len(ids))
	for rows.Next() {
		var v models.DirectoryVendor
		if err := rows.Scan(
			&v.ID,
			&v.Name,
			&v.Location,
			&v.Rating,
			&v.YearsInBusiness,
			&v.PaymentTermDays,
			&v.Certifications,
			&v.Documents,
			&v.DefectRate,
			&v.ReturnRate,
			&v.OnTimeRate,
			&v.AverageDelay,
			&v.SuccessRate,
			&v.TotalOrders,
			&v.Penalties,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors[v.ID] = v
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vendors: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"requested": len(ids),
		"found":     len(vendors),
	}).Debug("Vendor directory lookup")

	return vendors, nil
}
