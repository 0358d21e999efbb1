package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/vendex/internal/messaging"
	"github.com/temcen/vendex/pkg/models"
)

// DatabaseQuerier is the subset of *pgxpool.Pool the postgres-backed
// services use.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// ComparisonServiceInterface defines the comparison operations exposed over HTTP
type ComparisonServiceInterface interface {
	Compare(ctx context.Context, req *models.ComparisonRequest) (*models.ComparisonResponse, error)
	CompareDirectory(ctx context.Context, req *models.DirectoryComparisonRequest) (*models.ComparisonResponse, error)
	GetComparison(ctx context.Context, id uuid.UUID) (*models.ComparisonRecord, error)
	Profiles() []models.WeightProfileView
}

// ComparisonStoreInterface persists comparison history
type ComparisonStoreInterface interface {
	Save(ctx context.Context, record *models.ComparisonRecord) error
	Get(ctx context.Context, id uuid.UUID) (*models.ComparisonRecord, error)
}

// VendorDirectoryInterface looks up stored vendor attributes
type VendorDirectoryInterface interface {
	GetVendors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.DirectoryVendor, error)
}

// EventPublisher announces completed comparisons
type EventPublisher interface {
	PublishComparison(ctx context.Context, event messaging.ComparisonEvent) error
}

// TokenIssuer exchanges API keys for session tokens and ends sessions
type TokenIssuer interface {
	IssueToken(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error)
	RevokeToken(ctx context.Context, subject string) error
}

// HealthChecker reports dependency health
type HealthChecker interface {
	CheckHealth(ctx context.Context) *HealthStatus
}
