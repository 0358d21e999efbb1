package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/temcen/vendex/pkg/models"
)

const (
	maxScore     = 100.0
	neutralScore = 50.0
)

// bounds is the observed range of one raw metric across the candidate set.
type bounds struct {
	min, max float64
	ok       bool
}

func boundsOf(values []float64) bounds {
	if len(values) == 0 {
		return bounds{}
	}
	return bounds{min: floats.Min(values), max: floats.Max(values), ok: true}
}

func (b bounds) degenerate() bool {
	return b.max == b.min
}

// lowerIsBetter maps min to 100 and max to 0.
func (b bounds) lowerIsBetter(v float64) float64 {
	if b.degenerate() {
		return maxScore
	}
	return clamp(maxScore*(b.max-v)/(b.max-b.min), 0, maxScore)
}

// belowMax scores v against the set maximum, 0 at max.
func (b bounds) belowMax(v float64) float64 {
	if b.degenerate() {
		return maxScore
	}
	return clamp(maxScore*(1-v/b.max), 0, maxScore)
}

// shareOfMax scores v as a share of the set maximum.
func (b bounds) shareOfMax(v float64) float64 {
	if b.degenerate() {
		return maxScore
	}
	return clamp(maxScore*v/b.max, 0, maxScore)
}

// setStats holds the per-metric bounds the criterion formulas read.
type setStats struct {
	price       bounds
	leadTime    bounds
	defect      bounds
	penalties   bounds
	years       bounds
	distance    bounds
	payment     bounds
	maxArtifact float64
}

func collectStats(candidates []candidate) setStats {
	var prices, leads, defects, penalties, years, distances, payments, artifacts []float64
	for _, c := range candidates {
		prices = append(prices, c.unitPrice)
		leads = append(leads, c.leadTimeDays)
		payments = append(payments, c.paymentDays)
		artifacts = append(artifacts, float64(len(c.artifacts)))
		if c.defectCombined != nil {
			defects = append(defects, *c.defectCombined)
		}
		if c.penalties != nil {
			penalties = append(penalties, *c.penalties)
		}
		if c.years != nil {
			years = append(years, *c.years)
		}
		if c.distance != nil {
			distances = append(distances, *c.distance)
		}
	}

	return setStats{
		price:       boundsOf(prices),
		leadTime:    boundsOf(leads),
		defect:      boundsOf(defects),
		penalties:   boundsOf(penalties),
		years:       boundsOf(years),
		distance:    boundsOf(distances),
		payment:     boundsOf(payments),
		maxArtifact: floats.Max(artifacts),
	}
}

// normalize scores every candidate on every criterion, in input order.
func normalize(candidates []candidate, quantity float64) []map[models.Criterion]float64 {
	stats := collectStats(candidates)

	scores := make([]map[models.Criterion]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = map[models.Criterion]float64{
			models.CriterionPrice:       stats.price.lowerIsBetter(c.unitPrice),
			models.CriterionQuality:     qualityScore(c, stats),
			models.CriterionDelivery:    deliveryScore(c, stats),
			models.CriterionReliability: reliabilityScore(c, stats),
			models.CriterionCompliance:  complianceScore(c, stats),
			models.CriterionPayment:     stats.payment.shareOfMax(c.paymentDays),
			models.CriterionLocation:    locationScore(c, stats),
			models.CriterionCapacity:    capacityScore(c, quantity),
		}
	}
	return scores
}

func qualityScore(c candidate, stats setStats) float64 {
	rating := maxScore * c.rating / maxRating
	if c.defectCombined == nil {
		return rating
	}
	return blend(rating, stats.defect.belowMax(*c.defectCombined))
}

func deliveryScore(c candidate, stats setStats) float64 {
	lead := stats.leadTime.lowerIsBetter(c.leadTimeDays)
	if c.onTimeRate == nil {
		return lead
	}
	return blend(lead, *c.onTimeRate)
}

func reliabilityScore(c candidate, stats setStats) float64 {
	var parts []float64
	if c.successRate != nil {
		parts = append(parts, *c.successRate)
	}
	if c.penalties != nil {
		parts = append(parts, stats.penalties.belowMax(*c.penalties))
	}
	if len(parts) > 0 {
		return blend(parts...)
	}

	if c.years != nil {
		return stats.years.shareOfMax(*c.years)
	}
	return neutralScore
}

func complianceScore(c candidate, stats setStats) float64 {
	n := float64(len(c.artifacts))
	if n == 0 {
		return 0
	}
	return clamp(maxScore*n/stats.maxArtifact, 0, maxScore)
}

func locationScore(c candidate, stats setStats) float64 {
	if c.distance == nil {
		return neutralScore
	}
	return stats.distance.lowerIsBetter(*c.distance)
}

func capacityScore(c candidate, quantity float64) float64 {
	if c.capacity == nil {
		return neutralScore
	}
	return math.Min(maxScore, maxScore*(*c.capacity)/quantity)
}

// blend is the equal-weight mean of the sub-scores that are present.
func blend(parts ...float64) float64 {
	return floats.Sum(parts) / float64(len(parts))
}
