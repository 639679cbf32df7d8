package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
)

// NoData is shown in place of a metric that has no entries behind it.
const NoData = "—"

// GroupRow is a GroupStat rounded for display.
type GroupRow struct {
	Group       string `json:"group" yaml:"group"`
	Count       int    `json:"count" yaml:"count"`
	AverageRisk int64  `json:"averageRisk" yaml:"averageRisk"`
}

// ShareRow is a RiskShare rendered as a percentage.
type ShareRow struct {
	Level   scoring.RiskLevel `json:"level" yaml:"level"`
	Count   int               `json:"count" yaml:"count"`
	Percent string            `json:"percent" yaml:"percent"`
}

// Report is the display form of a Summary.
type Report struct {
	TotalPredictions          int            `json:"totalPredictions" yaml:"totalPredictions"`
	AverageDefaultProbability string         `json:"averageDefaultProbability" yaml:"averageDefaultProbability"`
	AverageCreditScore        string         `json:"averageCreditScore" yaml:"averageCreditScore"`
	ApprovalRate              string         `json:"approvalRate" yaml:"approvalRate"`
	RiskDistribution          []ShareRow     `json:"riskDistribution" yaml:"riskDistribution"`
	ByAgeBand                 []GroupRow     `json:"byAgeBand" yaml:"byAgeBand"`
	ByEmployment              []GroupRow     `json:"byEmployment" yaml:"byEmployment"`
	ByEducation               []GroupRow     `json:"byEducation" yaml:"byEducation"`
	ByLoanType                []GroupRow     `json:"byLoanType" yaml:"byLoanType"`
	FactorWeights             []FactorWeight `json:"factorWeights" yaml:"factorWeights"`
}

func fixed(v *float64, places int32) string {
	if v == nil {
		return NoData
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

func percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func rows(stats []GroupStat) []GroupRow {
	out := make([]GroupRow, len(stats))
	for i, s := range stats {
		out[i] = GroupRow{
			Group:       s.Group,
			Count:       s.Count,
			AverageRisk: decimal.NewFromFloat(s.AverageRisk).Round(0).IntPart(),
		}
	}
	return out
}

// NewReport rounds a Summary for display: the average probability to one
// decimal, the average credit score to an integer, the approval rate as a
// one-decimal percentage.
func NewReport(s Summary) Report {
	r := Report{
		TotalPredictions:          s.TotalPredictions,
		AverageDefaultProbability: fixed(s.AverageDefaultProbability, 1),
		AverageCreditScore:        fixed(s.AverageCreditScore, 0),
		ApprovalRate:              NoData,
		RiskDistribution:          make([]ShareRow, len(s.RiskDistribution)),
		ByAgeBand:                 rows(s.ByAgeBand),
		ByEmployment:              rows(s.ByEmployment),
		ByEducation:               rows(s.ByEducation),
		ByLoanType:                rows(s.ByLoanType),
		FactorWeights:             s.FactorWeights,
	}
	if s.ApprovalRate != nil {
		r.ApprovalRate = percent(*s.ApprovalRate)
	}
	for i, share := range s.RiskDistribution {
		r.RiskDistribution[i] = ShareRow{Level: share.Level, Count: share.Count, Percent: percent(share.Share)}
	}
	return r
}
