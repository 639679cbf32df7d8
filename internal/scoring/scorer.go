// Package scoring maps a loan applicant to a default probability, a credit
// score, a risk tier and the factors that drove it. Scoring is a pure
// function of the applicant.
package scoring

import "math"

const (
	minProbability = 0
	maxProbability = 100

	maxCreditScore   = 850
	creditScoreRange = 550
)

// Factor names in scoring order.
const (
	FactorDTI           = "Debt-to-Income Ratio"
	FactorAge           = "Age"
	FactorEmployment    = "Employment Stability"
	FactorEducation     = "Education Level"
	FactorLoanAmount    = "Loan Amount"
	FactorAppType       = "Application Type"
	FactorLoanTerm      = "Loan Term"
	FactorModeOfPayment = "Mode of Payment"
	FactorMarital       = "Marital Status"
)

// debtToIncome divides the loan by total income over the term. The
// denominator is floored at 1.
func debtToIncome(a Applicant) float64 {
	denom := a.Income * float64(a.LoanTerm)
	if denom < 1 {
		denom = 1
	}
	return a.LoanAmount / denom
}

func agePoints(age int) int {
	switch {
	case age < 25:
		return 10
	case age < 30:
		return 6
	case age <= 55:
		return 2
	default:
		return 7
	}
}

func educationScore(e Education) int {
	if p, ok := educationPoints[e]; ok {
		return p
	}
	return unknownEducationPoints
}

func lookup[K comparable](table map[K]int, key K, fallback int) int {
	if p, ok := table[key]; ok {
		return p
	}
	return fallback
}

// scoreFactors computes the nine point contributions in table order.
func scoreFactors(a Applicant) []FactorPoints {
	return []FactorPoints{
		{FactorDTI, bandPoints(debtToIncome(a), dtiBands, baseDTIPoints)},
		{FactorAge, agePoints(a.Age)},
		{FactorEmployment, stabilityPoints[a.EmploymentStatus.Stability()]},
		{FactorEducation, educationScore(a.Education)},
		{FactorLoanAmount, bandPoints(a.LoanAmount, loanAmountBands, baseLoanAmountPoints)},
		{FactorAppType, lookup(appTypePoints, a.LoanAppType, otherAppTypePoints)},
		{FactorLoanTerm, bandPoints(float64(a.LoanTerm), loanTermBands, baseLoanTermPoints)},
		{FactorModeOfPayment, lookup(paymentPoints, a.ModeOfPayment, otherPaymentPoints)},
		{FactorMarital, lookup(maritalPoints, a.MaritalStatus, otherMaritalPoints)},
	}
}

// Breakdown returns the point contribution of each factor for a valid applicant.
func Breakdown(a Applicant) ([]FactorPoints, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}
	return scoreFactors(a), nil
}

// CreditScore maps a default probability onto the 300-850 scale.
func CreditScore(probability int) int {
	return int(math.Round(maxCreditScore - (float64(probability)/100)*creditScoreRange))
}

// LevelFor buckets a default probability into a risk tier.
func LevelFor(probability int) RiskLevel {
	switch {
	case probability <= 25:
		return RiskLow
	case probability <= 50:
		return RiskMedium
	case probability <= 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func clampProbability(p int) int {
	if p < minProbability {
		return minProbability
	}
	if p > maxProbability {
		return maxProbability
	}
	return p
}

// Score evaluates an applicant. The only error is an *InvalidInputError.
func Score(a Applicant) (Prediction, error) {
	if err := Validate(a); err != nil {
		return Prediction{}, err
	}

	total := 0
	for _, f := range scoreFactors(a) {
		total += f.Points
	}

	p := clampProbability(total)
	level := LevelFor(p)

	return Prediction{
		DefaultProbability: p,
		CreditScore:        CreditScore(p),
		RiskLevel:          level,
		SignificantFactors: significantFactors(a),
		Recommendation:     RecommendationFor(level),
	}, nil
}
