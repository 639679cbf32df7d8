package scoring

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// maxSignificantFactors is how many ranked observations a Prediction carries.
const maxSignificantFactors = 3

// Education levels scoring above this many points are flagged as a concern.
const educationConcernPoints = 5

// observation is a narrative factor with its own severity weight (1-3).
// The weights rank observations and are unrelated to scoring points.
type observation struct {
	label  string
	weight int
}

// Ratios and amounts in labels round half away from zero.
const (
	ratioPlaces  = 2
	amountPlaces = 3
)

func dtiObservation(dti float64) observation {
	ratio := decimal.NewFromFloat(dti).StringFixed(ratioPlaces)
	switch {
	case dti > 0.4:
		return observation{fmt.Sprintf("Debt-to-income ratio is %s (high)", ratio), 3}
	case dti > 0.25:
		return observation{fmt.Sprintf("Debt-to-income ratio is %s (moderate)", ratio), 2}
	default:
		return observation{fmt.Sprintf("Debt-to-income ratio is %s (healthy)", ratio), 1}
	}
}

func employmentObservation(e EmploymentStatus) observation {
	if e.Stability() == StabilityStable {
		return observation{fmt.Sprintf("Employment: %s (stable)", e), 1}
	}
	return observation{fmt.Sprintf("Employment: %s (moderate risk)", e), 2}
}

func appTypeObservation(t LoanAppType) observation {
	if t == AppTypeRenewal {
		return observation{"Renewal application — positive repayment history", 1}
	}
	return observation{"New application — no prior repayment history", 2}
}

func educationObservation(e Education) observation {
	weight := 1
	if educationScore(e) > educationConcernPoints {
		weight = 2
	}
	return observation{fmt.Sprintf("Education level: %s", e), weight}
}

func loanObservation(amount float64, term int) observation {
	weight := 1
	if amount > 100000 {
		weight = 2
	}
	rounded := decimal.NewFromFloat(amount).Round(amountPlaces).InexactFloat64()
	return observation{fmt.Sprintf("Loan amount ₱%s over %d months", humanize.Commaf(rounded), term), weight}
}

// significantFactors ranks the five observations by weight, keeping
// construction order among equal weights, and returns the top three labels.
func significantFactors(a Applicant) []string {
	obs := []observation{
		dtiObservation(debtToIncome(a)),
		employmentObservation(a.EmploymentStatus),
		appTypeObservation(a.LoanAppType),
		educationObservation(a.Education),
		loanObservation(a.LoanAmount, a.LoanTerm),
	}

	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].weight > obs[j].weight
	})

	labels := make([]string, 0, maxSignificantFactors)
	for _, o := range obs[:maxSignificantFactors] {
		labels = append(labels, o.label)
	}
	return labels
}
