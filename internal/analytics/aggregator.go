// Package analytics summarizes a snapshot of the prediction history. It is a
// pure function of its input and keeps no state between calls.
package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

// GroupStat is the mean default probability of one group of entries.
type GroupStat struct {
	Group       string  `json:"group" yaml:"group"`
	Count       int     `json:"count" yaml:"count"`
	AverageRisk float64 `json:"averageRisk" yaml:"averageRisk"`
}

// RiskShare is one slice of the risk level distribution.
type RiskShare struct {
	Level scoring.RiskLevel `json:"level" yaml:"level"`
	Count int               `json:"count" yaml:"count"`
	Share float64           `json:"share" yaml:"share"`
}

// Summary is the aggregate view over a history snapshot. Pointer averages are
// nil when there is no data.
type Summary struct {
	TotalPredictions          int                       `json:"totalPredictions" yaml:"totalPredictions"`
	AverageDefaultProbability *float64                  `json:"averageDefaultProbability" yaml:"averageDefaultProbability"`
	AverageCreditScore        *float64                  `json:"averageCreditScore" yaml:"averageCreditScore"`
	ApprovalRate              *float64                  `json:"approvalRate" yaml:"approvalRate"`
	RiskLevelCounts           map[scoring.RiskLevel]int `json:"riskLevelCounts" yaml:"riskLevelCounts"`
	RiskDistribution          []RiskShare               `json:"riskDistribution" yaml:"riskDistribution"`
	ByAgeBand                 []GroupStat               `json:"byAgeBand" yaml:"byAgeBand"`
	ByEmployment              []GroupStat               `json:"byEmployment" yaml:"byEmployment"`
	ByEducation               []GroupStat               `json:"byEducation" yaml:"byEducation"`
	ByLoanType                []GroupStat               `json:"byLoanType" yaml:"byLoanType"`
	FactorWeights             []FactorWeight            `json:"factorWeights" yaml:"factorWeights"`
}

// Age bands in display order. Upper bounds are inclusive.
var ageBands = []struct {
	label string
	upper int
}{
	{"18-25", 25},
	{"26-35", 35},
	{"36-45", 45},
	{"46-55", 55},
}

const oldestAgeBand = "56+"

// AgeBand returns the display band for an age.
func AgeBand(age int) string {
	for _, b := range ageBands {
		if age <= b.upper {
			return b.label
		}
	}
	return oldestAgeBand
}

// grouper accumulates probabilities per key, remembering first appearance.
type grouper struct {
	order []string
	probs map[string][]float64
}

func newGrouper() *grouper {
	return &grouper{probs: make(map[string][]float64)}
}

func (g *grouper) add(key string, p float64) {
	if _, ok := g.probs[key]; !ok {
		g.order = append(g.order, key)
	}
	g.probs[key] = append(g.probs[key], p)
}

func (g *grouper) stats(keys []string) []GroupStat {
	out := make([]GroupStat, 0, len(keys))
	for _, k := range keys {
		ps, ok := g.probs[k]
		if !ok {
			continue
		}
		out = append(out, GroupStat{Group: k, Count: len(ps), AverageRisk: stat.Mean(ps, nil)})
	}
	return out
}

// ranked returns groups by average risk descending, ties in first-appearance order.
func (g *grouper) ranked() []GroupStat {
	out := g.stats(g.order)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageRisk > out[j].AverageRisk
	})
	return out
}

func bandOrder() []string {
	keys := make([]string, 0, len(ageBands)+1)
	for _, b := range ageBands {
		keys = append(keys, b.label)
	}
	return append(keys, oldestAgeBand)
}

// Aggregate computes the Summary of entries. The slice is read once and
// not retained.
func Aggregate(entries []types.HistoryEntry) Summary {
	summary := Summary{
		TotalPredictions: len(entries),
		RiskLevelCounts:  make(map[scoring.RiskLevel]int, len(scoring.RiskLevels)),
		RiskDistribution: []RiskShare{},
		ByAgeBand:        []GroupStat{},
		ByEmployment:     []GroupStat{},
		ByEducation:      []GroupStat{},
		ByLoanType:       []GroupStat{},
		FactorWeights:    FactorWeights(),
	}
	for _, level := range scoring.RiskLevels {
		summary.RiskLevelCounts[level] = 0
	}

	if len(entries) == 0 {
		return summary
	}

	probs := make([]float64, len(entries))
	scores := make([]float64, len(entries))
	approved := 0

	ages := newGrouper()
	employment := newGrouper()
	education := newGrouper()
	loanTypes := newGrouper()

	for i, e := range entries {
		p := float64(e.Result.DefaultProbability)
		probs[i] = p
		scores[i] = float64(e.Result.CreditScore)

		level := e.Result.RiskLevel
		if !level.Known() {
			level = scoring.LevelFor(e.Result.DefaultProbability)
		}
		summary.RiskLevelCounts[level]++
		if level.Approvable() {
			approved++
		}

		ages.add(AgeBand(e.Input.Age), p)
		employment.add(string(e.Input.EmploymentStatus), p)
		education.add(string(e.Input.Education), p)
		loanTypes.add(string(e.Input.LoanType), p)
	}

	avgProb := stat.Mean(probs, nil)
	avgScore := stat.Mean(scores, nil)
	rate := float64(approved) / float64(len(entries))

	summary.AverageDefaultProbability = &avgProb
	summary.AverageCreditScore = &avgScore
	summary.ApprovalRate = &rate

	for _, level := range scoring.RiskLevels {
		if n := summary.RiskLevelCounts[level]; n > 0 {
			summary.RiskDistribution = append(summary.RiskDistribution, RiskShare{
				Level: level,
				Count: n,
				Share: float64(n) / float64(len(entries)),
			})
		}
	}

	summary.ByAgeBand = ages.stats(bandOrder())
	summary.ByEmployment = employment.ranked()
	summary.ByEducation = education.ranked()
	summary.ByLoanType = loanTypes.ranked()

	return summary
}
