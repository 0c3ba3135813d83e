package rules

import "github.com/spendsentry/spendsentry/pkg/model"

// BudgetCrossing is a newly detected budget threshold transition.
type BudgetCrossing struct {
	Band       BudgetBand
	PercentPct float64
}

// EvaluateBudget returns the single highest-severity band whose
// threshold is met and whose flag has not been sent, if any. Lower
// bands are ignored even when also met and unflagged: severity levels
// supersede each other within a period.
//
// A budget with a non-positive limit never crosses (the percentage is
// undefined).
func EvaluateBudget(b *model.Budget, spending float64) (BudgetCrossing, bool) {
	if b.LimitUSD <= 0 {
		return BudgetCrossing{}, false
	}

	pct := (spending / b.LimitUSD) * 100
	for _, band := range BudgetBands {
		if pct >= band.ThresholdPct && !b.FlagSet(band.Flag) {
			return BudgetCrossing{Band: band, PercentPct: pct}, true
		}
	}
	return BudgetCrossing{}, false
}

// EvaluateMilestones returns every milestone at or below total that
// has no achievement yet, in ascending order. Milestones are
// cumulative checkpoints: a total jumping past several at once fires
// all of them, so the achievement trail has no gaps.
func EvaluateMilestones(total float64, achieved map[int64]bool) []int64 {
	var crossed []int64
	for _, m := range Milestones {
		if total >= float64(m) && !achieved[m] {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

// EvaluatePriceDrop reports whether a tracked item's current price is
// newsworthy: at or below the target and strictly below the last
// price the user was told about.
func EvaluatePriceDrop(item *model.TrackedItem, current float64) bool {
	return current <= item.TargetPrice && current < item.LastKnownPrice
}
