package scoring

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/temcen/vendex/pkg/models"
)

const (
	// MinVendors is the smallest candidate set a comparison accepts.
	MinVendors = 2

	// DefaultRating applies to vendors that report no rating.
	DefaultRating = 3.5
	maxRating     = 5.0
)

// requirement is a validated Requirements value.
type requirement struct {
	material         string
	quantity         float64
	budget           *float64
	requiredByDays   *int
	deliveryLocation string
}

// candidate is a validated, clamped vendor ready for normalisation.
type candidate struct {
	index int
	name  string

	unitPrice    float64
	rating       float64
	leadTimeDays float64
	location     *string
	distance     *float64
	capacity     *float64
	years        *float64

	// artifacts maps folded identifiers to their first display form.
	artifacts map[string]string

	defectCombined *float64
	onTimeRate     *float64
	averageDelay   *float64
	successRate    *float64
	penalties      *float64
	paymentDays    float64
}

func validateRequirements(req models.Requirements) (requirement, error) {
	material := strings.TrimSpace(req.Material)
	if material == "" {
		return requirement{}, &InvalidRequirementsError{FieldName: "material", Reason: "is required"}
	}
	if !isFinite(req.Quantity) || req.Quantity <= 0 {
		return requirement{}, &InvalidRequirementsError{FieldName: "quantity", Reason: "must be greater than 0"}
	}

	r := requirement{
		material: material,
		quantity: req.Quantity,
	}

	if req.MaxBudget != nil && (!isFinite(*req.MaxBudget) || *req.MaxBudget < 0) {
		return requirement{}, &InvalidRequirementsError{FieldName: "maxBudget", Reason: "must be a non-negative number"}
	}
	if req.Budget != nil && (!isFinite(*req.Budget) || *req.Budget < 0) {
		return requirement{}, &InvalidRequirementsError{FieldName: "budget", Reason: "must be a non-negative number"}
	}
	r.budget = req.BudgetCeiling()

	if req.RequiredByDays != nil {
		if *req.RequiredByDays < 0 {
			return requirement{}, &InvalidRequirementsError{FieldName: "requiredByDays", Reason: "must not be negative"}
		}
		r.requiredByDays = req.RequiredByDays
	}

	if req.DeliveryLocation != nil {
		r.deliveryLocation = normalizeText(*req.DeliveryLocation)
	}

	return r, nil
}

func validateVendors(vendors []models.VendorCandidate, req requirement) ([]candidate, error) {
	fold := cases.Fold()
	seen := make(map[string]bool, len(vendors))
	candidates := make([]candidate, 0, len(vendors))

	for i, v := range vendors {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return nil, &MalformedVendorError{Index: i, FieldName: "name", Reason: "is required"}
		}
		if seen[name] {
			return nil, &MalformedVendorError{Index: i, Vendor: name, FieldName: "name", Reason: "must be unique within a comparison"}
		}
		seen[name] = true

		if !isFinite(v.Pricing.UnitPrice) || v.Pricing.UnitPrice < 0 {
			return nil, &MalformedVendorError{Index: i, Vendor: name, FieldName: "pricing.unitPrice", Reason: "must be a non-negative number"}
		}

		c := candidate{
			index:        i,
			name:         name,
			unitPrice:    v.Pricing.UnitPrice,
			rating:       DefaultRating,
			leadTimeDays: math.Max(float64(v.LeadTimeDays), 0),
			artifacts:    make(map[string]string),
		}

		malformed := func(field string) error {
			return &MalformedVendorError{Index: i, Vendor: name, FieldName: field, Reason: "must be a finite number"}
		}

		if v.Rating != nil {
			if !isFinite(*v.Rating) {
				return nil, malformed("rating")
			}
			c.rating = clamp(*v.Rating, 0, maxRating)
		}

		var err error
		if c.capacity, err = nonNegative(v.Capacity, malformed, "capacity"); err != nil {
			return nil, err
		}
		if c.years, err = nonNegative(v.YearsInBusiness, malformed, "yearsInBusiness"); err != nil {
			return nil, err
		}
		if c.distance, err = nonNegative(v.Distance, malformed, "distance"); err != nil {
			return nil, err
		}

		if v.Location != nil {
			loc := normalizeText(*v.Location)
			c.location = &loc
			if req.deliveryLocation != "" && loc == req.deliveryLocation {
				zero := 0.0
				c.distance = &zero
			}
		}

		for _, id := range append(append([]string{}, v.Certifications...), v.Documents...) {
			display := normalizeText(id)
			if display == "" {
				continue
			}
			key := fold.String(display)
			if _, ok := c.artifacts[key]; !ok {
				c.artifacts[key] = display
			}
		}

		if q := v.QualityMetrics; q != nil {
			defect, err := percent(q.DefectRate, malformed, "qualityMetrics.defectRate")
			if err != nil {
				return nil, err
			}
			returns, err := percent(q.ReturnRate, malformed, "qualityMetrics.returnRate")
			if err != nil {
				return nil, err
			}
			if defect != nil || returns != nil {
				combined := 0.0
				if defect != nil {
					combined += *defect
				}
				if returns != nil {
					combined += *returns
				}
				c.defectCombined = &combined
			}
		}

		if d := v.DeliveryMetrics; d != nil {
			if c.onTimeRate, err = percent(d.OnTimeRate, malformed, "deliveryMetrics.onTimeRate"); err != nil {
				return nil, err
			}
			if c.averageDelay, err = nonNegative(d.AverageDelay, malformed, "deliveryMetrics.averageDelay"); err != nil {
				return nil, err
			}
		}

		if h := v.PerformanceHistory; h != nil {
			if c.successRate, err = percent(h.SuccessRate, malformed, "performanceHistory.successRate"); err != nil {
				return nil, err
			}
			if c.penalties, err = nonNegative(h.Penalties, malformed, "performanceHistory.penalties"); err != nil {
				return nil, err
			}
		}

		if v.PaymentTerms != nil {
			days, err := nonNegative(v.PaymentTerms.Days, malformed, "paymentTerms.days")
			if err != nil {
				return nil, err
			}
			if days != nil {
				c.paymentDays = *days
			}
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

func nonNegative(v *float64, malformed func(string) error, field string) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	if !isFinite(*v) {
		return nil, malformed(field)
	}
	clamped := math.Max(*v, 0)
	return &clamped, nil
}

func percent(v *float64, malformed func(string) error, field string) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	if !isFinite(*v) {
		return nil, malformed(field)
	}
	clamped := clamp(*v, 0, 100)
	return &clamped, nil
}

func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
