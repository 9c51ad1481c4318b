package utils

// math.go - money and sizing math shared across scoring and the
// paper-trading engine.
//
// Decimal is used at every boundary that is persisted, displayed, or
// compared for equality. The one float64 helper here is ReweightProRata,
// which works on unitless score weights, not money.

import (
	"github.com/shopspring/decimal"
)

// ClampDecimal clamps v into [lo, hi]. If hi < lo, hi is returned.
func ClampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if hi.LessThan(lo) {
		return hi
	}
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// PercentChange returns (to-from)/from as a fraction (0.25 == 25%).
// Returns zero if from is zero, rather than dividing by zero.
func PercentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from)
}

// WeightedAverage returns Σ(values[i]*weights[i]) / Σweights[i]. Returns
// zero if weights sum to zero or the slices mismatch in length.
func WeightedAverage(values, weights []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 || len(values) != len(weights) {
		return decimal.Zero
	}
	sumWeighted := decimal.Zero
	sumWeights := decimal.Zero
	for i, v := range values {
		sumWeighted = sumWeighted.Add(v.Mul(weights[i]))
		sumWeights = sumWeights.Add(weights[i])
	}
	if sumWeights.IsZero() {
		return decimal.Zero
	}
	return sumWeighted.Div(sumWeights)
}

// RoundUsd rounds a USD amount to 2 decimal places, half-away-from-zero,
// the convention used at every snapshot and trade-record boundary.
func RoundUsd(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// ReweightProRata redistributes the weight of missing components among
// the present ones so weights among present components still sum to 1.
// present[i] corresponds to weights[i]; entries with present[i]==false
// are dropped and their weight is spread proportionally over the rest.
func ReweightProRata(weights []float64, present []bool) []float64 {
	out := make([]float64, len(weights))
	var presentTotal float64
	for i, ok := range present {
		if ok {
			presentTotal += weights[i]
		}
	}
	if presentTotal <= 0 {
		return out
	}
	for i, ok := range present {
		if ok {
			out[i] = weights[i] / presentTotal
		}
	}
	return out
}
