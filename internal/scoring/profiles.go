package scoring

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/temcen/vendex/pkg/models"
)

const (
	DefaultProfileName = "default"
	CustomProfileName  = "custom"

	// weightTotal is the sum every effective weight map is rescaled to.
	weightTotal = 100.0
)

// WeightProfile is a named, swappable weight configuration.
type WeightProfile struct {
	Name        string
	Description string
	Weights     map[models.Criterion]float64
}

// DefaultProfile is the observed procurement UI profile. It sums to 98 and is
// renormalised like any other profile before use.
func DefaultProfile() WeightProfile {
	return WeightProfile{
		Name:        DefaultProfileName,
		Description: "Balanced procurement profile",
		Weights: map[models.Criterion]float64{
			models.CriterionPrice:       25,
			models.CriterionQuality:     20,
			models.CriterionDelivery:    15,
			models.CriterionReliability: 15,
			models.CriterionCompliance:  10,
			models.CriterionPayment:     5,
			models.CriterionLocation:    5,
			models.CriterionCapacity:    3,
		},
	}
}

// BuiltinProfiles returns the profiles available without configuration.
func BuiltinProfiles() map[string]WeightProfile {
	profiles := []WeightProfile{
		DefaultProfile(),
		{
			Name:        "urgent",
			Description: "Delivery speed first, for site-critical orders",
			Weights: map[models.Criterion]float64{
				models.CriterionPrice:       15,
				models.CriterionQuality:     15,
				models.CriterionDelivery:    35,
				models.CriterionReliability: 15,
				models.CriterionCompliance:  5,
				models.CriterionLocation:    10,
				models.CriterionCapacity:    5,
			},
		},
		{
			Name:        "cost_focused",
			Description: "Lowest landed cost with a compliance floor",
			Weights: map[models.Criterion]float64{
				models.CriterionPrice:       45,
				models.CriterionQuality:     15,
				models.CriterionDelivery:    10,
				models.CriterionReliability: 10,
				models.CriterionCompliance:  10,
				models.CriterionPayment:     5,
				models.CriterionLocation:    3,
				models.CriterionCapacity:    2,
			},
		},
		{
			Name:        "quality_focused",
			Description: "Structural materials where defects are expensive",
			Weights: map[models.Criterion]float64{
				models.CriterionPrice:       15,
				models.CriterionQuality:     35,
				models.CriterionDelivery:    10,
				models.CriterionReliability: 20,
				models.CriterionCompliance:  15,
				models.CriterionPayment:     2,
				models.CriterionLocation:    1,
				models.CriterionCapacity:    2,
			},
		},
	}

	byName := make(map[string]WeightProfile, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
	}
	return byName
}

// ParseWeights converts a request weight map into criterion weights.
// Criteria absent from the map weigh 0.
func ParseWeights(raw map[string]float64) (map[models.Criterion]float64, error) {
	known := make(map[models.Criterion]bool, len(models.Criteria))
	for _, c := range models.Criteria {
		known[c] = true
	}

	// sorted so the reported error is stable
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	weights := make(map[models.Criterion]float64, len(raw))
	for _, k := range keys {
		c := models.Criterion(strings.ToLower(strings.TrimSpace(k)))
		if !known[c] {
			return nil, &InvalidWeightsError{Criterion: k, Reason: "is not a scoring criterion"}
		}
		weights[c] += raw[k]
	}
	return weights, nil
}

// Renormalize rescales weights so they sum to 100. Negative weights count as
// zero; a map with no positive weight cannot rank anything.
func Renormalize(weights map[models.Criterion]float64) (map[models.Criterion]float64, error) {
	values := make([]float64, len(models.Criteria))
	for i, c := range models.Criteria {
		w := weights[c]
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, &InvalidWeightsError{Criterion: string(c), Reason: "must be a finite number"}
		}
		values[i] = math.Max(w, 0)
	}

	sum := floats.Sum(values)
	if sum <= 0 {
		return nil, &InvalidWeightsError{Reason: "all weights are zero or negative"}
	}
	floats.Scale(weightTotal/sum, values)

	effective := make(map[models.Criterion]float64, len(models.Criteria))
	for i, c := range models.Criteria {
		effective[c] = values[i]
	}
	return effective, nil
}
