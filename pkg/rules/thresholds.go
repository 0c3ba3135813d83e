package rules

import "github.com/spendsentry/spendsentry/pkg/model"

// BudgetBand is one percentage threshold of a budget alert. Bands are
// evaluated most severe first; within a period a budget fires at most
// one band per run.
type BudgetBand struct {
	ThresholdPct float64
	Flag         string
	Severity     int
}

// BudgetBands is the registry of budget alert bands, ordered by
// descending severity.
var BudgetBands = []BudgetBand{
	{ThresholdPct: 100, Flag: model.FlagOverage, Severity: 3},
	{ThresholdPct: 90, Flag: model.FlagNinetyPct, Severity: 2},
	{ThresholdPct: 75, Flag: model.FlagSeventyFivePct, Severity: 1},
}

// Milestones is the registry of cumulative spending milestones, in
// ascending order. Unlike budget bands, every crossed milestone fires;
// none may be skipped.
var Milestones = []int64{100, 500, 1000, 5000, 10000, 25000, 50000}
