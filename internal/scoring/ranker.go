package scoring

import (
	"math"
	"sort"

	"github.com/temcen/vendex/pkg/models"
)

// tieScale quantizes totals to 1e-9 so near-equal totals compare as equal.
const tieScale = 1e9

// rankedVendor is a scored candidate before rounding.
type rankedVendor struct {
	candidate
	scores map[models.Criterion]float64
	total  float64
	key    float64
	rank   int
}

// rank computes weighted totals and orders candidates by them.
// Ties fall back to lower unit price, then higher rating, then input order.
func rank(candidates []candidate, scores []map[models.Criterion]float64, weights map[models.Criterion]float64) []rankedVendor {
	ranked := make([]rankedVendor, len(candidates))
	for i, c := range candidates {
		total := weightedTotal(scores[i], weights)
		ranked[i] = rankedVendor{
			candidate: c,
			scores:    scores[i],
			total:     total,
			key:       math.Round(total * tieScale),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.key != b.key {
			return a.key > b.key
		}
		if a.unitPrice != b.unitPrice {
			return a.unitPrice < b.unitPrice
		}
		if a.rating != b.rating {
			return a.rating > b.rating
		}
		return a.index < b.index
	})

	for i := range ranked {
		ranked[i].rank = i + 1
	}
	return ranked
}

func weightedTotal(scores, weights map[models.Criterion]float64) float64 {
	total := 0.0
	for _, c := range models.Criteria {
		total += weights[c] / weightTotal * scores[c]
	}
	return clamp(total, 0, maxScore)
}

func (r rankedVendor) result(quantity float64) models.VendorScoreResult {
	scores := make(map[models.Criterion]float64, len(r.scores))
	for c, s := range r.scores {
		scores[c] = round2(s)
	}

	return models.VendorScoreResult{
		Name:         r.name,
		Scores:       scores,
		TotalScore:   round2(r.total),
		Rank:         r.rank,
		UnitPrice:    r.unitPrice,
		TotalCost:    round2(r.unitPrice * quantity),
		LeadTimeDays: int(r.leadTimeDays),
		Rating:       r.rating,
		Capacity:     r.capacity,
		Location:     r.location,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
