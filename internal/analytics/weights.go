package analytics

import "github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"

// FactorWeight is the maximum points a scoring factor can contribute.
type FactorWeight struct {
	Factor string `json:"factor" yaml:"factor"`
	Weight int    `json:"weight" yaml:"weight"`
}

var factorWeights = []FactorWeight{
	{scoring.FactorDTI, 30},
	{scoring.FactorEmployment, 15},
	{scoring.FactorAge, 10},
	{scoring.FactorEducation, 10},
	{scoring.FactorLoanAmount, 10},
	{scoring.FactorAppType, 8},
	{scoring.FactorLoanTerm, 7},
	{scoring.FactorModeOfPayment, 5},
	{scoring.FactorMarital, 5},
}

// FactorWeights returns a fresh copy of the static factor weight table,
// heaviest first.
func FactorWeights() []FactorWeight {
	out := make([]FactorWeight, len(factorWeights))
	copy(out, factorWeights)
	return out
}
