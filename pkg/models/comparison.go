package models

import (
	"time"

	"github.com/google/uuid"
)

// Criterion is one of the fixed scoring dimensions.
type Criterion string

const (
	CriterionPrice       Criterion = "price"
	CriterionQuality     Criterion = "quality"
	CriterionDelivery    Criterion = "delivery"
	CriterionReliability Criterion = "reliability"
	CriterionCompliance  Criterion = "compliance"
	CriterionPayment     Criterion = "payment"
	CriterionLocation    Criterion = "location"
	CriterionCapacity    Criterion = "capacity"
)

// Criteria lists every criterion in scoring order.
var Criteria = []Criterion{
	CriterionPrice,
	CriterionQuality,
	CriterionDelivery,
	CriterionReliability,
	CriterionCompliance,
	CriterionPayment,
	CriterionLocation,
	CriterionCapacity,
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

type VendorScoreResult struct {
	Name         string                `json:"name"`
	Scores       map[Criterion]float64 `json:"scores"`
	TotalScore   float64               `json:"totalScore"`
	Rank         int                   `json:"rank"`
	UnitPrice    float64               `json:"unitPrice"`
	TotalCost    float64               `json:"totalCost"`
	LeadTimeDays int                   `json:"leadTimeDays"`
	Rating       float64               `json:"rating"`
	Capacity     *float64              `json:"capacity,omitempty"`
	Location     *string               `json:"location,omitempty"`
}

type Savings struct {
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type SavingsAnalysis struct {
	SavingsVsMax        Savings `json:"savingsVsMax"`
	SavingsVsAvg        Savings `json:"savingsVsAvg"`
	PotentialMaxSavings float64 `json:"potentialMaxSavings"`
	PremiumVsCheapest   Savings `json:"premiumVsCheapest"`
	TopIsCheapest       bool    `json:"topIsCheapest"`
	MaxUnitPrice        float64 `json:"maxUnitPrice"`
	MinUnitPrice        float64 `json:"minUnitPrice"`
	AvgUnitPrice        float64 `json:"avgUnitPrice"`
}

type Recommendation struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Savings     *Savings `json:"savings,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty"`
}

// ComparisonResult is the pure output of one comparison.
type ComparisonResult struct {
	Vendors         []VendorScoreResult   `json:"vendors"`
	TopVendor       VendorScoreResult     `json:"topVendor"`
	Recommendations []Recommendation      `json:"recommendations"`
	SavingsAnalysis SavingsAnalysis       `json:"savingsAnalysis"`
	Weights         map[Criterion]float64 `json:"weights"`
	Profile         string                `json:"profile"`
}

type ComparisonRequest struct {
	Vendors      []VendorCandidate `json:"vendors"`
	Requirements Requirements      `json:"requirements"`
}

type DirectoryComparisonRequest struct {
	Bids         []VendorBid  `json:"bids" validate:"required,min=1,dive"`
	Requirements Requirements `json:"requirements"`
}

// ComparisonResponse wraps a result with request metadata; the result fields
// are inlined so the UI contract shape is preserved.
type ComparisonResponse struct {
	ComparisonID uuid.UUID `json:"comparisonId"`
	*ComparisonResult
	GeneratedAt time.Time `json:"generatedAt"`
	CacheHit    bool      `json:"cacheHit"`
}

// ComparisonRecord is a stored comparison.
type ComparisonRecord struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	Material    string            `json:"material" db:"material"`
	Quantity    float64           `json:"quantity" db:"quantity"`
	TopVendor   string            `json:"topVendor" db:"top_vendor"`
	VendorCount int               `json:"vendorCount" db:"vendor_count"`
	Profile     string            `json:"profile" db:"profile"`
	Result      *ComparisonResult `json:"result" db:"result"`
	CreatedAt   time.Time         `json:"createdAt" db:"created_at"`
}

// WeightProfileView is the API shape of a configured weight profile.
type WeightProfileView struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Weights     map[Criterion]float64 `json:"weights"`
	Effective   map[Criterion]float64 `json:"effective"`
	Default     bool                  `json:"default"`
}
