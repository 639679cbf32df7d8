package scoring

// Education is the highest completed education level of an applicant.
type Education string

const (
	EducationElementary Education = "Elementary"
	EducationHighSchool Education = "High School"
	EducationBachelor   Education = "Bachelor"
	EducationMasteral   Education = "Masteral"
	EducationDoctoral   Education = "Doctoral"
)

// Known reports whether e is one of the enumerated education levels.
func (e Education) Known() bool {
	_, ok := educationPoints[e]
	return ok
}

// MaritalStatus is the civil status of an applicant.
type MaritalStatus string

const (
	MaritalSingle    MaritalStatus = "Single"
	MaritalMarried   MaritalStatus = "Married"
	MaritalPartnered MaritalStatus = "Partnered"
	MaritalWidowed   MaritalStatus = "Widowed"
)

// Known reports whether m is one of the enumerated marital statuses.
func (m MaritalStatus) Known() bool {
	switch m {
	case MaritalSingle, MaritalMarried, MaritalPartnered, MaritalWidowed:
		return true
	}
	return false
}

// EmploymentStatus is the applicant's source of income.
type EmploymentStatus string

const (
	EmploymentGovernment   EmploymentStatus = "Employed-Government"
	EmploymentPrivate      EmploymentStatus = "Employed-Private"
	EmploymentLicensedProf EmploymentStatus = "Licensed Professional"
	EmploymentRetired      EmploymentStatus = "Retired"
	EmploymentSeamanOFW    EmploymentStatus = "Seaman/OFW"
	EmploymentSelfEmployed EmploymentStatus = "Self-employed"
)

// Known reports whether e is one of the enumerated employment statuses.
func (e EmploymentStatus) Known() bool {
	switch e {
	case EmploymentGovernment, EmploymentPrivate, EmploymentLicensedProf,
		EmploymentRetired, EmploymentSeamanOFW, EmploymentSelfEmployed:
		return true
	}
	return false
}

// Stability returns the employment stability class used by the scorer.
func (e EmploymentStatus) Stability() Stability {
	if s, ok := employmentStability[e]; ok {
		return s
	}
	return StabilityOther
}

// Stability partitions employment statuses for factor 3.
type Stability int

const (
	StabilityOther Stability = iota
	StabilityModerate
	StabilityStable
)

func (s Stability) String() string {
	switch s {
	case StabilityStable:
		return "stable"
	case StabilityModerate:
		return "moderate"
	default:
		return "other"
	}
}

// LoanType is the cooperative loan product applied for.
type LoanType string

const (
	LoanCollateral LoanType = "Collateral"
	LoanMarket     LoanType = "Market"
	LoanMidYear    LoanType = "Mid-Year"
	LoanQuick      LoanType = "Quick"
	LoanRegular    LoanType = "Regular"
	LoanSalary     LoanType = "Salary"
	LoanOthers     LoanType = "Others"
)

// Known reports whether l is one of the enumerated loan products.
func (l LoanType) Known() bool {
	switch l {
	case LoanCollateral, LoanMarket, LoanMidYear, LoanQuick, LoanRegular, LoanSalary, LoanOthers:
		return true
	}
	return false
}

// Gender of the applicant as recorded on the application.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Known reports whether g is Male or Female.
func (g Gender) Known() bool {
	return g == GenderMale || g == GenderFemale
}

// LoanAppType tells a first application apart from a renewal.
type LoanAppType string

const (
	AppTypeNew     LoanAppType = "New"
	AppTypeRenewal LoanAppType = "Renewal"
)

// Known reports whether t is New or Renewal.
func (t LoanAppType) Known() bool {
	return t == AppTypeNew || t == AppTypeRenewal
}

// ModeOfPayment is the amortization schedule of the loan.
type ModeOfPayment string

const (
	PaymentMonthly   ModeOfPayment = "Monthly"
	PaymentQuarterly ModeOfPayment = "Quarterly"
	PaymentWeekly    ModeOfPayment = "Weekly"
)

// Known reports whether m is one of the enumerated payment schedules.
func (m ModeOfPayment) Known() bool {
	switch m {
	case PaymentMonthly, PaymentQuarterly, PaymentWeekly:
		return true
	}
	return false
}

// Applicant is the normalized loan application submitted for scoring.
// Income is monthly, LoanTerm is in months.
type Applicant struct {
	Age              int              `json:"age" yaml:"age"`
	LoanAmount       float64          `json:"loanAmount" yaml:"loanAmount"`
	LoanTerm         int              `json:"loanTerm" yaml:"loanTerm"`
	Income           float64          `json:"income" yaml:"income"`
	Education        Education        `json:"education" yaml:"education"`
	Gender           Gender           `json:"gender" yaml:"gender"`
	MaritalStatus    MaritalStatus    `json:"maritalStatus" yaml:"maritalStatus"`
	EmploymentStatus EmploymentStatus `json:"employmentStatus" yaml:"employmentStatus"`
	LoanType         LoanType         `json:"loanType" yaml:"loanType"`
	LoanAppType      LoanAppType      `json:"loanAppType" yaml:"loanAppType"`
	ModeOfPayment    ModeOfPayment    `json:"modeOfPayment" yaml:"modeOfPayment"`
}

// RiskLevel is the risk tier derived from a default probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// RiskLevels lists every tier from least to most risky.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Known reports whether r is one of RiskLevels.
func (r RiskLevel) Known() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Approvable reports whether the tier counts towards the approval rate.
func (r RiskLevel) Approvable() bool {
	return r == RiskLow || r == RiskMedium
}

// Prediction is the outcome of scoring one Applicant.
type Prediction struct {
	DefaultProbability int       `json:"defaultProbability" yaml:"defaultProbability"`
	CreditScore        int       `json:"creditScore" yaml:"creditScore"`
	RiskLevel          RiskLevel `json:"riskLevel" yaml:"riskLevel"`
	SignificantFactors []string  `json:"significantFactors" yaml:"significantFactors"`
	Recommendation     string    `json:"recommendation" yaml:"recommendation"`
}

// FactorPoints is the contribution of one scoring factor.
type FactorPoints struct {
	Factor string `json:"factor" yaml:"factor"`
	Points int    `json:"points" yaml:"points"`
}
