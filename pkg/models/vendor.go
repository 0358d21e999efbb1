package models

import "github.com/google/uuid"

// VendorCandidate is one bid submitted for comparison.
type VendorCandidate struct {
	Name               string              `json:"name"`
	Pricing            Pricing             `json:"pricing"`
	Rating             *float64            `json:"rating,omitempty"`
	LeadTimeDays       int                 `json:"leadTimeDays"`
	Location           *string             `json:"location,omitempty"`
	Distance           *float64            `json:"distance,omitempty"` // km
	Capacity           *float64            `json:"capacity,omitempty"`
	YearsInBusiness    *float64            `json:"yearsInBusiness,omitempty"`
	Certifications     []string            `json:"certifications,omitempty"`
	Documents          []string            `json:"documents,omitempty"`
	QualityMetrics     *QualityMetrics     `json:"qualityMetrics,omitempty"`
	DeliveryMetrics    *DeliveryMetrics    `json:"deliveryMetrics,omitempty"`
	PerformanceHistory *PerformanceHistory `json:"performanceHistory,omitempty"`
	PaymentTerms       *PaymentTerms       `json:"paymentTerms,omitempty"`
}

type Pricing struct {
	UnitPrice float64 `json:"unitPrice"`
	Currency  string  `json:"currency,omitempty"`
}

// QualityMetrics rates are percentages.
type QualityMetrics struct {
	DefectRate *float64 `json:"defectRate,omitempty"`
	ReturnRate *float64 `json:"returnRate,omitempty"`
}

type DeliveryMetrics struct {
	OnTimeRate   *float64 `json:"onTimeRate,omitempty"`   // percent
	AverageDelay *float64 `json:"averageDelay,omitempty"` // days
}

type PerformanceHistory struct {
	SuccessRate *float64 `json:"successRate,omitempty"` // percent
	TotalOrders *int     `json:"totalOrders,omitempty"`
	Penalties   *float64 `json:"penalties,omitempty"`
}

type PaymentTerms struct {
	Days *float64 `json:"days,omitempty"`
}

// Requirements is the buyer's side of a comparison request.
type Requirements struct {
	Material         string             `json:"material"`
	Quantity         float64            `json:"quantity"`
	Budget           *float64           `json:"budget,omitempty"`
	MaxBudget        *float64           `json:"maxBudget,omitempty"`
	RequiredByDays   *int               `json:"requiredByDays,omitempty"`
	DeliveryLocation *string            `json:"deliveryLocation,omitempty"`
	Weights          map[string]float64 `json:"weights,omitempty"`
	Profile          string             `json:"profile,omitempty"`
}

// BudgetCeiling returns maxBudget when set, otherwise budget.
func (r Requirements) BudgetCeiling() *float64 {
	if r.MaxBudget != nil {
		return r.MaxBudget
	}
	return r.Budget
}

// DirectoryVendor is a vendor record as stored by the vendor directory.
type DirectoryVendor struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Location        *string   `json:"location,omitempty" db:"location"`
	Rating          *float64  `json:"rating,omitempty" db:"rating"`
	YearsInBusiness *float64  `json:"yearsInBusiness,omitempty" db:"years_in_business"`
	PaymentTermDays *float64  `json:"paymentTermDays,omitempty" db:"payment_term_days"`
	Certifications  []string  `json:"certifications,omitempty" db:"certifications"`
	Documents       []string  `json:"documents,omitempty" db:"documents"`
	DefectRate      *float64  `json:"defectRate,omitempty" db:"defect_rate"`
	ReturnRate      *float64  `json:"returnRate,omitempty" db:"return_rate"`
	OnTimeRate      *float64  `json:"onTimeRate,omitempty" db:"on_time_rate"`
	AverageDelay    *float64  `json:"averageDelay,omitempty" db:"average_delay"`
	SuccessRate     *float64  `json:"successRate,omitempty" db:"success_rate"`
	TotalOrders     *int      `json:"totalOrders,omitempty" db:"total_orders"`
	Penalties       *float64  `json:"penalties,omitempty" db:"penalties"`
}

// ToCandidate merges a directory record with a bid.
func (v DirectoryVendor) ToCandidate(bid VendorBid) VendorCandidate {
	candidate := VendorCandidate{
		Name:            v.Name,
		Pricing:         Pricing{UnitPrice: bid.UnitPrice},
		Rating:          v.Rating,
		LeadTimeDays:    bid.LeadTimeDays,
		Location:        v.Location,
		Distance:        bid.Distance,
		Capacity:        bid.Capacity,
		YearsInBusiness: v.YearsInBusiness,
		Certifications:  v.Certifications,
		Documents:       v.Documents,
	}

	if v.DefectRate != nil || v.ReturnRate != nil {
		candidate.QualityMetrics = &QualityMetrics{DefectRate: v.DefectRate, ReturnRate: v.ReturnRate}
	}
	if v.OnTimeRate != nil || v.AverageDelay != nil {
		candidate.DeliveryMetrics = &DeliveryMetrics{OnTimeRate: v.OnTimeRate, AverageDelay: v.AverageDelay}
	}
	if v.SuccessRate != nil || v.TotalOrders != nil || v.Penalties != nil {
		candidate.PerformanceHistory = &PerformanceHistory{
			SuccessRate: v.SuccessRate,
			TotalOrders: v.TotalOrders,
			Penalties:   v.Penalties,
		}
	}
	if v.PaymentTermDays != nil {
		candidate.PaymentTerms = &PaymentTerms{Days: v.PaymentTermDays}
	}

	return candidate
}

// VendorBid is the per-request part of a directory comparison.
type VendorBid struct {
	VendorID     uuid.UUID `json:"vendorId" validate:"required"`
	UnitPrice    float64   `json:"unitPrice" validate:"min=0"`
	LeadTimeDays int       `json:"leadTimeDays" validate:"min=0"`
	Capacity     *float64  `json:"capacity,omitempty"`
	Distance     *float64  `json:"distance,omitempty"`
}
