package scoring

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/temcen/vendex/pkg/models"
)

// savingsFigures holds the unrounded price statistics of a ranked set.
type savingsFigures struct {
	top, max, min, avg float64
	quantity           float64
}

func measureSavings(ranked []rankedVendor, quantity float64) savingsFigures {
	prices := make([]float64, len(ranked))
	for i, r := range ranked {
		prices[i] = r.unitPrice
	}

	return savingsFigures{
		top:      ranked[0].unitPrice,
		max:      floats.Max(prices),
		min:      floats.Min(prices),
		avg:      stat.Mean(prices, nil),
		quantity: quantity,
	}
}

// vsMaxShare is the saving against the highest bid as an unrounded percentage.
func (f savingsFigures) vsMaxShare() float64 {
	return share(max(0, (f.max-f.top)*f.quantity), f.max*f.quantity)
}

// analysis compares the top vendor's order cost with the rest of the set.
func (f savingsFigures) analysis() models.SavingsAnalysis {
	return models.SavingsAnalysis{
		SavingsVsMax:        savingsAgainst(f.max, f.top, f.quantity),
		SavingsVsAvg:        savingsAgainst(f.avg, f.top, f.quantity),
		PotentialMaxSavings: roundAmount((f.max - f.min) * f.quantity),
		PremiumVsCheapest:   premiumOver(f.min, f.top, f.quantity),
		TopIsCheapest:       f.top <= f.min,
		MaxUnitPrice:        f.max,
		MinUnitPrice:        f.min,
		AvgUnitPrice:        round2(f.avg),
	}
}

// savingsAgainst is how much paying price instead of reference saves on the
// order, as an amount and as a share of the reference total.
func savingsAgainst(reference, price, quantity float64) models.Savings {
	amount := (reference - price) * quantity
	if amount <= 0 {
		return models.Savings{}
	}

	return models.Savings{Amount: roundAmount(amount), Percentage: roundAmount(share(amount, reference*quantity))}
}

// premiumOver is the extra cost of price over the cheapest bid, as a share of
// the cheapest order total.
func premiumOver(cheapest, price, quantity float64) models.Savings {
	amount := (price - cheapest) * quantity
	if amount <= 0 {
		return models.Savings{}
	}
	return models.Savings{Amount: roundAmount(amount), Percentage: roundAmount(share(amount, cheapest*quantity))}
}

func share(amount, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return amount / base * 100
}

// roundAmount rounds to cents but never turns a positive value into zero.
func roundAmount(v float64) float64 {
	if r := round2(v); r != 0 || v <= 0 {
		return r
	}
	return v
}
