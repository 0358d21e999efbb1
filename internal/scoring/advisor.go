package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/temcen/vendex/pkg/models"
)

const (
	RecommendationScheduleRisk   = "schedule_risk"
	RecommendationCostSaving     = "cost_saving"
	RecommendationComplianceGap  = "compliance_gap"
	RecommendationUnderCapacity  = "under_capacity"
	RecommendationBudgetOverrun  = "budget_overrun"
	RecommendationWellBalanced   = "well_balanced"
	costSavingThresholdPercent   = 10.0
	complianceGapThresholdScore  = 50.0
	maxListedComplianceArtifacts = 5
)

// advise applies the recommendation rules to the top-ranked vendor.
// Output order follows rule order.
func advise(req requirement, ranked []rankedVendor, figures savingsFigures) []models.Recommendation {
	top := ranked[0]
	savings := figures.analysis()
	var recs []models.Recommendation

	if req.requiredByDays != nil && top.leadTimeDays > float64(*req.requiredByDays) {
		recs = append(recs, scheduleRisk(top, ranked, *req.requiredByDays))
	}

	if figures.vsMaxShare() >= costSavingThresholdPercent {
		s := savings.SavingsVsMax
		recs = append(recs, models.Recommendation{
			Type:     RecommendationCostSaving,
			Title:    "Cost saving opportunity",
			Priority: models.PriorityMedium,
			Description: fmt.Sprintf("Ordering %g units of %s from %s saves %.2f (%.2f%%) against the highest bid.",
				req.quantity, req.material, top.name, s.Amount, s.Percentage),
			Savings:   &s,
			Reasoning: fmt.Sprintf("Unit prices range from %.2f to %.2f across %d vendors.", savings.MinUnitPrice, savings.MaxUnitPrice, len(ranked)),
		})
	}

	if score := top.scores[models.CriterionCompliance]; score < complianceGapThresholdScore {
		recs = append(recs, complianceGap(top, ranked, score))
	}

	if top.capacity != nil && *top.capacity < req.quantity {
		recs = append(recs, underCapacity(top, ranked, req.quantity))
	}

	if req.budget != nil {
		if cost := top.unitPrice * req.quantity; cost > *req.budget {
			recs = append(recs, budgetOverrun(top, ranked, req, cost))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, models.Recommendation{
			Type:     RecommendationWellBalanced,
			Title:    "Selection is well-balanced",
			Priority: models.PriorityLow,
			Description: fmt.Sprintf("%s ranks first with a total score of %.2f and raises no schedule, compliance, capacity or budget concerns.",
				top.name, round2(top.total)),
		})
	}

	return recs
}

func scheduleRisk(top rankedVendor, ranked []rankedVendor, requiredBy int) models.Recommendation {
	late := int(top.leadTimeDays) - requiredBy

	var reasons []string
	if top.averageDelay != nil && *top.averageDelay > 0 {
		reasons = append(reasons, fmt.Sprintf("%s also averages %.1f days of delivery delay.", top.name, *top.averageDelay))
	}
	if alt, ok := fastestWithin(ranked, float64(requiredBy)); ok {
		reasons = append(reasons, fmt.Sprintf("%s (rank %d) can deliver in %d days.", alt.name, alt.rank, int(alt.leadTimeDays)))
	} else {
		reasons = append(reasons, "No vendor in this comparison meets the deadline.")
	}

	return models.Recommendation{
		Type:     RecommendationScheduleRisk,
		Title:    "Delivery schedule at risk",
		Priority: models.PriorityHigh,
		Description: fmt.Sprintf("%s quotes %d days lead time, %d days past the required %d days.",
			top.name, int(top.leadTimeDays), late, requiredBy),
		Reasoning: strings.Join(reasons, " "),
	}
}

// fastestWithin returns the best-ranked vendor with the shortest lead time
// inside the deadline.
func fastestWithin(ranked []rankedVendor, days float64) (rankedVendor, bool) {
	var best rankedVendor
	found := false
	for _, r := range ranked {
		if r.leadTimeDays > days {
			continue
		}
		if !found || r.leadTimeDays < best.leadTimeDays {
			best, found = r, true
		}
	}
	return best, found
}

func complianceGap(top rankedVendor, ranked []rankedVendor, score float64) models.Recommendation {
	var missing []string
	seen := make(map[string]bool)
	for _, r := range ranked {
		for key, display := range r.artifacts {
			if _, held := top.artifacts[key]; held || seen[key] {
				continue
			}
			seen[key] = true
			missing = append(missing, display)
		}
	}
	sort.Strings(missing)

	reasoning := "Collect certifications and statutory documents before issuing the purchase order."
	if len(missing) > 0 {
		if len(missing) > maxListedComplianceArtifacts {
			missing = append(missing[:maxListedComplianceArtifacts], "...")
		}
		reasoning = fmt.Sprintf("Other bidders hold %s. %s", strings.Join(missing, ", "), reasoning)
	}

	return models.Recommendation{
		Type:     RecommendationComplianceGap,
		Title:    "Compliance documentation gap",
		Priority: models.PriorityHigh,
		Description: fmt.Sprintf("%s has a compliance score of %.2f with %d certifications or documents on file.",
			top.name, round2(score), len(top.artifacts)),
		Reasoning: reasoning,
	}
}

func underCapacity(top rankedVendor, ranked []rankedVendor, quantity float64) models.Recommendation {
	reasoning := "Split the order or confirm additional capacity before committing."
	for _, r := range ranked[1:] {
		if r.capacity != nil && *r.capacity >= quantity-*top.capacity {
			reasoning = fmt.Sprintf("Split the order: %s (rank %d) can cover the remaining %g units.",
				r.name, r.rank, quantity-*top.capacity)
			break
		}
	}

	return models.Recommendation{
		Type:     RecommendationUnderCapacity,
		Title:    "Insufficient vendor capacity",
		Priority: models.PriorityHigh,
		Description: fmt.Sprintf("%s can supply %g of the %g units required and cannot fully service the order.",
			top.name, *top.capacity, quantity),
		Reasoning: reasoning,
	}
}

func budgetOverrun(top rankedVendor, ranked []rankedVendor, req requirement, cost float64) models.Recommendation {
	overrun := cost - *req.budget

	reasoning := "No vendor in this comparison fits the budget."
	for _, r := range ranked[1:] {
		if r.unitPrice*req.quantity <= *req.budget {
			reasoning = fmt.Sprintf("%s (rank %d) fits the budget at %.2f.", r.name, r.rank, round2(r.unitPrice*req.quantity))
			break
		}
	}

	return models.Recommendation{
		Type:     RecommendationBudgetOverrun,
		Title:    "Budget exceeded",
		Priority: models.PriorityHigh,
		Description: fmt.Sprintf("%s totals %.2f for %g units, %.2f over the budget of %.2f.",
			top.name, round2(cost), req.quantity, round2(overrun), *req.budget),
		Savings: &models.Savings{
			Amount:     round2(overrun),
			Percentage: round2(share(overrun, *req.budget)),
		},
		Reasoning: reasoning,
	}
}
