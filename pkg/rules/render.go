package rules

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spendsentry/spendsentry/pkg/model"
)

// Rendered is a notification ready for dispatch: human text plus the
// structured data payload consumed by the client apps.
type Rendered struct {
	Title string
	Body  string
	Data  map[string]string
}

// money formats a dollar amount to exact cents. Decimal arithmetic
// keeps differences like 510.00-500.00 from rendering as "9.999999".
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RenderBudgetAlert builds the notification for a budget crossing.
func RenderBudgetAlert(b *model.Budget, spending float64, band BudgetBand) Rendered {
	var title, body string
	switch band.Flag {
	case model.FlagOverage:
		overage := decimal.NewFromFloat(spending).Sub(decimal.NewFromFloat(b.LimitUSD))
		title = "Budget Exceeded!"
		body = fmt.Sprintf("You've overspent in %s by $%s. Current: $%s / $%s",
			b.Category, overage.StringFixed(2), money(spending), money(b.LimitUSD))
	default:
		remaining := decimal.NewFromFloat(b.LimitUSD).Sub(decimal.NewFromFloat(spending))
		title = fmt.Sprintf("Budget Alert - %.0f%% Used", band.ThresholdPct)
		body = fmt.Sprintf("You've used %.0f%% of your %s budget. $%s remaining.",
			band.ThresholdPct, b.Category, remaining.StringFixed(2))
	}

	return Rendered{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":             string(model.KindBudgetAlert),
			"user_id":          b.UserID,
			"category":         b.Category,
			"current_spending": money(spending),
			"budget_limit":     money(b.LimitUSD),
			"action":           "open_budget",
		},
	}
}

// RenderPriceDrop builds the notification for a tracked-item drop.
func RenderPriceDrop(item *model.TrackedItem, current float64) Rendered {
	return Rendered{
		Title: "Price Drop Alert!",
		Body: fmt.Sprintf("Great news! %s dropped from $%s to $%s!",
			item.ItemName, money(item.LastKnownPrice), money(current)),
		Data: map[string]string{
			"type":      string(model.KindPriceAlert),
			"user_id":   item.UserID,
			"item_name": item.ItemName,
			"old_price": money(item.LastKnownPrice),
			"new_price": money(current),
			"action":    "open_price_alerts",
		},
	}
}

// RenderMilestone builds the notification for a crossed spending
// milestone.
func RenderMilestone(userID string, milestone int64, total float64) Rendered {
	return Rendered{
		Title: "Milestone Achieved!",
		Body: fmt.Sprintf("You've reached $%d in total spending! Your current total: $%s",
			milestone, money(total)),
		Data: map[string]string{
			"type":            string(model.KindMilestone),
			"user_id":         userID,
			"milestone_type":  "spending",
			"milestone_value": strconv.FormatInt(milestone, 10),
			"total_spending":  money(total),
			"action":          "open_achievements",
		},
	}
}

// RenderCoachingTip wraps a tip for one user.
func RenderCoachingTip(userID, title, body string) Rendered {
	return Rendered{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":     string(model.KindCoachingTip),
			"user_id":  userID,
			"category": "weekly_tip",
		},
	}
}
