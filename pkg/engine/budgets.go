package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spendsentry/spendsentry/pkg/model"
	"github.com/spendsentry/spendsentry/pkg/push"
	"github.com/spendsentry/spendsentry/pkg/rules"
)

// RunBudgetAlerts evaluates every eligible user's current-month
// budgets and sends at most one alert per budget per run: the highest
// unflagged band the spending percentage has reached.
//
// The flag is claimed with a conditional set before dispatching, so
// two overlapping runs cannot both send for the same (budget, band).
// If dispatch then fails, the claim is released and the next scheduled
// run retries.
func (e *Engine) RunBudgetAlerts(ctx context.Context) (RunSummary, error) {
	users, err := e.store.ListEligibleUsers(ctx, model.EligibleFilter{BudgetAlerts: true})
	if err != nil {
		return RunSummary{}, fmt.Errorf("list eligible users: %w", err)
	}

	now := time.Now().UTC()
	month := model.MonthKey(now)
	start, end := model.MonthBounds(now)

	var c counters
	e.forEachUser(ctx, users, func(ctx context.Context, user model.User) {
		if user.FCMToken == "" {
			c.skipped.Add(1)
			return
		}

		budgets, err := e.store.ListBudgets(ctx, user.ID, month)
		if err != nil {
			e.logger.Error("list budgets", "user", user.ID, "error", err)
			c.failed.Add(1)
			return
		}

		for _, budget := range budgets {
			e.checkBudget(ctx, &c, user, budget, start, end)
		}
	})

	summary := c.summary()
	e.logger.Info("budget alerts run complete", "month", month, "summary", summary.String())
	return summary, nil
}

func (e *Engine) checkBudget(ctx context.Context, c *counters, user model.User, budget model.Budget, start, end time.Time) {
	if budget.LimitUSD <= 0 {
		e.logger.Warn("budget has non-positive limit, skipping",
			"user", user.ID, "budget", budget.ID, "category", budget.Category)
		c.skipped.Add(1)
		return
	}

	spending, err := e.store.SumTransactions(ctx, user.ID, budget.Category, start, end)
	if err != nil {
		e.logger.Error("sum transactions", "user", user.ID, "category", budget.Category, "error", err)
		c.failed.Add(1)
		return
	}

	crossing, ok := rules.EvaluateBudget(&budget, spending)
	if !ok {
		return
	}
	c.attempted.Add(1)

	// Claim the flag first. Losing the race means a concurrent run
	// already sent this alert; that is a no-op, not an error.
	won, err := e.store.MarkAlertSent(ctx, budget.ID, crossing.Band.Flag)
	if err != nil {
		e.logger.Error("mark alert sent", "budget", budget.ID, "flag", crossing.Band.Flag, "error", err)
		c.failed.Add(1)
		return
	}
	if !won {
		c.skipped.Add(1)
		return
	}

	rendered := rules.RenderBudgetAlert(&budget, spending, crossing.Band)
	msg := push.Message{
		Title:   rendered.Title,
		Body:    rendered.Body,
		Data:    rendered.Data,
		Channel: channelBudgetAlerts,
	}

	if err := e.dispatcher.Send(ctx, user.FCMToken, msg); err != nil {
		e.logger.Error("send budget alert",
			"user", user.ID, "category", budget.Category, "error", err)
		// Release the claim so the next run retries this alert.
		if clearErr := e.store.ClearAlertFlag(ctx, budget.ID, crossing.Band.Flag); clearErr != nil {
			e.logger.Error("clear alert flag after failed send",
				"budget", budget.ID, "flag", crossing.Band.Flag, "error", clearErr)
		}
		c.failed.Add(1)
		return
	}

	c.sent.Add(1)
	e.audit(ctx, user.ID, model.KindBudgetAlert, rendered)
	e.logger.Info("budget alert sent",
		"user", user.ID, "category", budget.Category,
		"flag", crossing.Band.Flag, "pct", crossing.PercentPct)
}
