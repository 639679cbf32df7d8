package scoring

// Point tables for the nine scoring factors. These are policy constants.

var educationPoints = map[Education]int{
	EducationDoctoral:   1,
	EducationMasteral:   2,
	EducationBachelor:   4,
	EducationHighSchool: 8,
	EducationElementary: 10,
}

const unknownEducationPoints = 5

var employmentStability = map[EmploymentStatus]Stability{
	EmploymentGovernment:   StabilityStable,
	EmploymentPrivate:      StabilityStable,
	EmploymentLicensedProf: StabilityStable,
	EmploymentSelfEmployed: StabilityModerate,
	EmploymentSeamanOFW:    StabilityModerate,
}

var stabilityPoints = map[Stability]int{
	StabilityStable:   2,
	StabilityModerate: 8,
	StabilityOther:    15,
}

var appTypePoints = map[LoanAppType]int{
	AppTypeRenewal: 1,
}

const otherAppTypePoints = 8

var paymentPoints = map[ModeOfPayment]int{
	PaymentWeekly:  1,
	PaymentMonthly: 3,
}

const otherPaymentPoints = 5

var maritalPoints = map[MaritalStatus]int{
	MaritalMarried: 1,
	MaritalSingle:  4,
}

const otherMaritalPoints = 3

// band is a lower-exclusive threshold: values strictly above Above earn Points.
type band struct {
	Above  float64
	Points int
}

var dtiBands = []band{{0.6, 30}, {0.4, 20}, {0.25, 10}}

const baseDTIPoints = 3

var loanAmountBands = []band{{200000, 10}, {100000, 6}, {50000, 3}}

const baseLoanAmountPoints = 1

var loanTermBands = []band{{36, 7}, {18, 4}}

const baseLoanTermPoints = 1

func bandPoints(v float64, bands []band, base int) int {
	for _, b := range bands {
		if v > b.Above {
			return b.Points
		}
	}
	return base
}

var recommendations = map[RiskLevel]string{
	RiskLow:      "Approve — the member demonstrates strong creditworthiness with a favorable debt-to-income ratio and stable profile.",
	RiskMedium:   "Conditional approval — consider requiring a co-maker or reducing the loan amount to mitigate moderate risk exposure.",
	RiskHigh:     "Further review required — the high risk indicators suggest the loan committee should evaluate additional collateral or alternative repayment terms.",
	RiskCritical: "Decline or restructure — critical risk level detected. Recommend financial counseling before reapplication.",
}

// RecommendationFor returns the fixed recommendation text for a risk tier.
func RecommendationFor(level RiskLevel) string {
	return recommendations[level]
}
